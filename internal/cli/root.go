package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mailops/ses-guardian/internal/config"
	"github.com/mailops/ses-guardian/pkg/awsx"
	"github.com/mailops/ses-guardian/pkg/model"
	"github.com/mailops/ses-guardian/pkg/monitor"
	"github.com/mailops/ses-guardian/pkg/notify"
	"github.com/mailops/ses-guardian/pkg/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sesguard",
	Short: "SES Guardian - SES account sending quota and reputation monitoring",
	Long: `SES Guardian watches an AWS SES account's sending quota and reputation
metrics, raises PagerDuty incidents and Slack messages when thresholds are
breached, and can optionally pause account sending while reputation is
critical.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	// Local .env files are a convenience for development; absence is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.sesguard/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initStorage creates a storage backend from config.
func initStorage(cfg *config.Config) (storage.Storage, error) {
	return storage.NewSQLite(cfg.Storage.Path)
}

// initNotifiers creates the PagerDuty and Slack services from config.
func initNotifiers(cfg *config.Config, logger *slog.Logger) (*notify.PagerDutyService, *notify.SlackService) {
	pagerDuty := notify.NewPagerDutyService(notify.PagerDutyConfig{
		AccountName:  cfg.AWS.AccountName,
		Environment:  cfg.AWS.Environment,
		Region:       cfg.AWS.Region,
		EventsURL:    cfg.PagerDuty.EventsURL,
		RoutingKey:   cfg.PagerDuty.RoutingKey,
		ServiceName:  cfg.AWS.ServiceName,
		ConsoleURL:   cfg.AWS.ConsoleURL,
		DashboardURL: cfg.AWS.DashboardURL,
		DryRun:       cfg.PagerDuty.DryRun,
	}, nil, logger)

	slack := notify.NewSlackService(notify.SlackConfig{
		AccountName:   cfg.AWS.AccountName,
		Environment:   cfg.AWS.Environment,
		Region:        cfg.AWS.Region,
		Channels:      cfg.Slack.Channels,
		FooterIconURL: cfg.Slack.FooterIconURL,
		IconEmoji:     cfg.Slack.IconEmoji,
		ServiceName:   cfg.AWS.ServiceName,
		ConsoleURL:    cfg.AWS.ConsoleURL,
		DashboardURL:  cfg.AWS.DashboardURL,
		WebhookURL:    cfg.Slack.WebhookURL,
		DryRun:        cfg.Slack.DryRun,
	}, nil, logger)

	return pagerDuty, slack
}

// monitorConfig translates file configuration into the monitor's policy.
func monitorConfig(cfg *config.Config) (monitor.Config, error) {
	period, err := cfg.Monitor.Period()
	if err != nil {
		return monitor.Config{}, err
	}
	window, err := cfg.Monitor.Window()
	if err != nil {
		return monitor.Config{}, err
	}

	reputation := make(map[string]monitor.Thresholds, len(cfg.Monitor.ReputationThresholds))
	for name, t := range cfg.Monitor.ReputationThresholds {
		reputation[name] = monitor.Thresholds{Warning: t.Warning, Critical: t.Critical}
	}

	return monitor.Config{
		Strategy: model.Strategy(cfg.Monitor.Strategy),
		Notify: model.NotifyConfig{
			PagerDutyOnReputation: cfg.PagerDuty.OnReputation,
			PagerDutyOnQuota:      cfg.PagerDuty.OnQuota,
			SlackOnReputation:     cfg.Slack.OnReputation,
			SlackOnQuota:          cfg.Slack.OnQuota,
		},
		MonitorQuota:      cfg.Monitor.Quota,
		MonitorReputation: cfg.Monitor.Reputation,
		QuotaThresholds: monitor.Thresholds{
			Warning:  cfg.Monitor.QuotaThresholds.Warning,
			Critical: cfg.Monitor.QuotaThresholds.Critical,
		},
		ReputationThresholds: reputation,
		ReputationPeriod:     period,
		ReputationWindow:     window,
	}, nil
}

// initMonitor creates a fully wired monitor against live AWS clients.
func initMonitor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*monitor.Monitor, error) {
	mcfg, err := monitorConfig(cfg)
	if err != nil {
		return nil, err
	}

	sesClient, cwClient, err := awsx.NewClients(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, err
	}

	source := awsx.NewSource(sesClient, cwClient, logger)
	control := awsx.NewControl(sesClient, logger)
	pagerDuty, slack := initNotifiers(cfg, logger)

	return monitor.New(mcfg, source, control, pagerDuty, slack, logger), nil
}
