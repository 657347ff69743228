package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailops/ses-guardian/pkg/model"
	"github.com/mailops/ses-guardian/pkg/monitor"
	"github.com/mailops/ses-guardian/pkg/notify"
	"github.com/mailops/ses-guardian/pkg/storage"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one quota and reputation check cycle",
	Long: `Run a single check cycle: evaluate the sending quota and reputation
metrics, apply the configured management strategy, and deliver any queued
notifications.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Bool("dry-run", false, "Build and log notifications without delivering them")
	checkCmd.Flags().Bool("raise-on-errors", false, "Exit non-zero when a notification backend rejects a delivery")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	raiseOnErrors, _ := cmd.Flags().GetBool("raise-on-errors")
	if dryRun {
		cfg.PagerDuty.DryRun = true
		cfg.Slack.DryRun = true
	}

	logger := newLogger(cfg)

	m, err := initMonitor(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return runCycle(cmd.Context(), m, store, raiseOnErrors, logger)
}

// runCycle executes one full check cycle and persists its outcome. Delivery
// failures are surfaced only when raiseOnErrors is set; storage failures are
// logged and never abort a cycle.
func runCycle(ctx context.Context, m *monitor.Monitor, store storage.Storage, raiseOnErrors bool, logger *slog.Logger) error {
	now := time.Now()

	quota, err := m.HandleQuota(ctx, now)
	if err != nil {
		return fmt.Errorf("quota check: %w", err)
	}
	reputation, err := m.HandleReputation(ctx, now)
	if err != nil {
		return fmt.Errorf("reputation check: %w", err)
	}

	report, sendErr := m.SendNotifications(ctx, raiseOnErrors)

	recordChecks(ctx, store, quota, reputation, now, logger)
	recordDeliveries(ctx, store, report, now, logger)

	printCycle(quota, reputation, report)

	return sendErr
}

func recordChecks(ctx context.Context, store storage.Storage, quota monitor.QuotaCheck, reputation monitor.ReputationCheck, now time.Time, logger *slog.Logger) {
	quotaRecord := &model.CheckRecord{
		Signal:    model.SignalQuota,
		Skipped:   quota.Skipped,
		Timestamp: now.UTC(),
	}
	if quota.Verdict != nil {
		quotaRecord.Status = quota.Verdict.Status
		quotaRecord.UtilizationPercent = quota.Verdict.UtilizationPercent
		quotaRecord.Volume = quota.Verdict.Volume
		quotaRecord.MaxVolume = quota.Verdict.MaxVolume
	}
	if err := store.RecordCheck(ctx, quotaRecord); err != nil {
		logger.Error("record quota check", "error", err)
	}

	reputationRecord := &model.CheckRecord{
		Signal:    model.SignalReputation,
		Action:    reputation.Action,
		Skipped:   reputation.Skipped,
		Timestamp: now.UTC(),
	}
	if reputation.Verdict != nil {
		reputationRecord.Status = reputation.Verdict.Status()
		reputationRecord.CriticalCount = len(reputation.Verdict.Critical)
		reputationRecord.WarningCount = len(reputation.Verdict.Warning)
		reputationRecord.OKCount = len(reputation.Verdict.OK)
	}
	if err := store.RecordCheck(ctx, reputationRecord); err != nil {
		logger.Error("record reputation check", "error", err)
	}
}

func recordDeliveries(ctx context.Context, store storage.Storage, report monitor.DeliveryReport, now time.Time, logger *slog.Logger) {
	record := func(backend string, outcomes []notify.Outcome) {
		for _, o := range outcomes {
			r := &model.DeliveryRecord{
				Backend:    backend,
				Identifier: o.Identifier,
				StatusCode: o.StatusCode,
				DryRun:     o.DryRun,
				Timestamp:  now.UTC(),
			}
			if o.Err != nil {
				r.Error = o.Err.Error()
			}
			if err := store.RecordDelivery(ctx, r); err != nil {
				logger.Error("record delivery", "backend", backend, "error", err)
			}
		}
	}
	record("pager_duty", report.PagerDuty)
	record("slack", report.Slack)
}

func printCycle(quota monitor.QuotaCheck, reputation monitor.ReputationCheck, report monitor.DeliveryReport) {
	if quota.Skipped {
		fmt.Println("Quota:       skipped")
	} else if quota.Verdict != nil {
		fmt.Printf("Quota:       %s (%s of %s, %s used)\n",
			quota.Verdict.Status,
			model.FormatVolume(quota.Verdict.Volume),
			model.FormatVolume(quota.Verdict.MaxVolume),
			model.FormatPercent2(quota.Verdict.UtilizationPercent),
		)
	}

	if reputation.Skipped {
		fmt.Println("Reputation:  skipped")
	} else if reputation.Verdict != nil {
		fmt.Printf("Reputation:  %s (critical=%d warning=%d ok=%d action=%s)\n",
			reputation.Verdict.Status(),
			len(reputation.Verdict.Critical),
			len(reputation.Verdict.Warning),
			len(reputation.Verdict.OK),
			reputation.Action,
		)
	}

	fmt.Printf("Delivered:   pagerduty=%d slack=%d\n", len(report.PagerDuty), len(report.Slack))
}
