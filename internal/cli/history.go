package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mailops/ses-guardian/pkg/model"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded check and delivery history",
	Long:  `List past check cycles and notification delivery attempts, newest first.`,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringP("signal", "s", "", "Filter checks by signal (sending_quota, reputation)")
	historyCmd.Flags().String("status", "", "Filter checks by status (OK, WARNING, CRITICAL)")
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum rows per table")
	historyCmd.Flags().Bool("deliveries", false, "Show delivery attempts instead of checks")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	signalFilter, _ := cmd.Flags().GetString("signal")
	statusFilter, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	deliveries, _ := cmd.Flags().GetBool("deliveries")

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if deliveries {
		records, err := store.ListDeliveries(cmd.Context(), model.HistoryFilter{Limit: limit})
		if err != nil {
			return fmt.Errorf("list deliveries: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "TIMESTAMP\tBACKEND\tIDENTIFIER\tSTATUS\tDRY RUN\tERROR\n")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%s\n",
				r.Timestamp.Format("2006-01-02 15:04:05"),
				r.Backend, r.Identifier, r.StatusCode, r.DryRun, r.Error,
			)
		}
		return w.Flush()
	}

	records, err := store.ListChecks(cmd.Context(), model.HistoryFilter{
		Signal: model.Signal(signalFilter),
		Status: model.Status(statusFilter),
		Limit:  limit,
	})
	if err != nil {
		return fmt.Errorf("list checks: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TIMESTAMP\tSIGNAL\tSTATUS\tACTION\tDETAIL\n")
	for _, r := range records {
		detail := ""
		switch r.Signal {
		case model.SignalQuota:
			if !r.Skipped {
				detail = fmt.Sprintf("%s of %s (%s)",
					model.FormatVolume(r.Volume),
					model.FormatVolume(r.MaxVolume),
					model.FormatPercent2(r.UtilizationPercent),
				)
			}
		case model.SignalReputation:
			if !r.Skipped {
				detail = fmt.Sprintf("critical=%d warning=%d ok=%d",
					r.CriticalCount, r.WarningCount, r.OKCount)
			}
		}
		status := string(r.Status)
		if r.Skipped {
			status = "skipped"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Signal, status, r.Action, detail,
		)
	}
	return w.Flush()
}
