package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mailops/ses-guardian/internal/scheduler"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run check cycles on a cron schedule",
	Long: `Run check cycles continuously on the configured cron schedule until
interrupted. Each tick is a full check cycle: evaluate, act, notify, record.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("cron", "", "Cron schedule (default from config)")
	watchCmd.Flags().Bool("dry-run", false, "Build and log notifications without delivering them")
	watchCmd.Flags().Bool("run-on-start", false, "Run one check cycle immediately before scheduling")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cronSpec, _ := cmd.Flags().GetString("cron")
	if cronSpec != "" {
		cfg.Schedule.Cron = cronSpec
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		cfg.PagerDuty.DryRun = true
		cfg.Slack.DryRun = true
	}
	runOnStart, _ := cmd.Flags().GetBool("run-on-start")

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

	cycle := func(ctx context.Context) error {
		return runCycle(ctx, m, store, false, logger)
	}

	sched := scheduler.New(cycle, logger)
	if err := sched.Register(cmd.Context(), cfg.Schedule.Cron); err != nil {
		return err
	}

	if runOnStart {
		if err := cycle(cmd.Context()); err != nil {
			logger.Error("initial check cycle failed", "error", err)
		}
	}

	sched.Start()
	fmt.Fprintf(os.Stderr, "SES Guardian watching on schedule %q\n", cfg.Schedule.Cron)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", "signal", sig.String())
	sched.Stop()
	return nil
}
