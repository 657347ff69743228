package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all SES Guardian configuration.
type Config struct {
	AWS       AWSConfig       `mapstructure:"aws"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	PagerDuty PagerDutyConfig `mapstructure:"pagerduty"`
	Slack     SlackConfig     `mapstructure:"slack"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Server    ServerConfig    `mapstructure:"server"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AWSConfig identifies the monitored account.
type AWSConfig struct {
	AccountName  string `mapstructure:"account_name"`
	Environment  string `mapstructure:"environment"`
	Region       string `mapstructure:"region"`
	ServiceName  string `mapstructure:"service_name"`
	ConsoleURL   string `mapstructure:"console_url"`
	DashboardURL string `mapstructure:"dashboard_url"`
}

// MonitorConfig defines the decision policy for a check cycle.
type MonitorConfig struct {
	Strategy         string `mapstructure:"strategy"`
	Quota            bool   `mapstructure:"quota"`
	Reputation       bool   `mapstructure:"reputation"`
	ThresholdsFile   string `mapstructure:"thresholds_file"`
	ReputationPeriod string `mapstructure:"reputation_period"`
	ReputationWindow string `mapstructure:"reputation_window"`

	QuotaThresholds      ThresholdConfig            `mapstructure:"quota_thresholds"`
	ReputationThresholds map[string]ThresholdConfig `mapstructure:"reputation_thresholds"`
}

// ThresholdConfig is a warning/critical threshold pair on the 0-100 percent
// scale.
type ThresholdConfig struct {
	Warning  float64 `mapstructure:"warning" yaml:"warning"`
	Critical float64 `mapstructure:"critical" yaml:"critical"`
}

// PagerDutyConfig defines PagerDuty Events API settings.
type PagerDutyConfig struct {
	OnQuota      bool   `mapstructure:"on_quota"`
	OnReputation bool   `mapstructure:"on_reputation"`
	EventsURL    string `mapstructure:"events_url"`
	RoutingKey   string `mapstructure:"routing_key"`
	DryRun       bool   `mapstructure:"dry_run"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	OnQuota       bool     `mapstructure:"on_quota"`
	OnReputation  bool     `mapstructure:"on_reputation"`
	WebhookURL    string   `mapstructure:"webhook_url"`
	Channels      []string `mapstructure:"channels"`
	IconEmoji     string   `mapstructure:"icon_emoji"`
	FooterIconURL string   `mapstructure:"footer_icon_url"`
	DryRun        bool     `mapstructure:"dry_run"`
}

// StorageConfig defines database settings.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig defines the status API settings.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// ScheduleConfig defines watch-mode settings.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".sesguard"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("aws.service_name", "ses-account-monitor")
	v.SetDefault("aws.console_url", "https://console.aws.amazon.com/ses/home")
	v.SetDefault("monitor.strategy", "alert")
	v.SetDefault("monitor.quota", true)
	v.SetDefault("monitor.reputation", true)
	v.SetDefault("monitor.reputation_period", "900s")
	v.SetDefault("monitor.reputation_window", "1800s")
	v.SetDefault("monitor.quota_thresholds.warning", 80.0)
	v.SetDefault("monitor.quota_thresholds.critical", 90.0)
	v.SetDefault("monitor.reputation_thresholds.bounce_rate.warning", 5.0)
	v.SetDefault("monitor.reputation_thresholds.bounce_rate.critical", 8.0)
	v.SetDefault("monitor.reputation_thresholds.complaint_rate.warning", 0.01)
	v.SetDefault("monitor.reputation_thresholds.complaint_rate.critical", 0.04)
	v.SetDefault("pagerduty.on_quota", true)
	v.SetDefault("pagerduty.on_reputation", true)
	v.SetDefault("pagerduty.events_url", "https://events.pagerduty.com/v2/enqueue")
	v.SetDefault("slack.on_quota", true)
	v.SetDefault("slack.on_reputation", true)
	v.SetDefault("slack.footer_icon_url", "https://platform.slack-edge.com/img/default_application_icon.png")
	v.SetDefault("storage.path", filepath.Join(home, ".sesguard", "sesguard.db"))
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("schedule.cron", "*/5 * * * *")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables
	v.SetEnvPrefix("SESGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Monitor.ThresholdsFile != "" {
		if err := applyThresholdsFile(&cfg, cfg.Monitor.ThresholdsFile); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// Period parses the configured reputation sample period.
func (m MonitorConfig) Period() (time.Duration, error) {
	d, err := time.ParseDuration(m.ReputationPeriod)
	if err != nil {
		return 0, fmt.Errorf("parse reputation_period: %w", err)
	}
	return d, nil
}

// Window parses the configured lookback window.
func (m MonitorConfig) Window() (time.Duration, error) {
	d, err := time.ParseDuration(m.ReputationWindow)
	if err != nil {
		return 0, fmt.Errorf("parse reputation_window: %w", err)
	}
	return d, nil
}
