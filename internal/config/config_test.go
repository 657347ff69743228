package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailops/ses-guardian/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "alert", cfg.Monitor.Strategy)
	assert.True(t, cfg.Monitor.Quota)
	assert.True(t, cfg.Monitor.Reputation)
	assert.Equal(t, 80.0, cfg.Monitor.QuotaThresholds.Warning)
	assert.Equal(t, 90.0, cfg.Monitor.QuotaThresholds.Critical)
	assert.Equal(t, 5.0, cfg.Monitor.ReputationThresholds["bounce_rate"].Warning)
	assert.Equal(t, 8.0, cfg.Monitor.ReputationThresholds["bounce_rate"].Critical)
	assert.Equal(t, 0.01, cfg.Monitor.ReputationThresholds["complaint_rate"].Warning)
	assert.Equal(t, 0.04, cfg.Monitor.ReputationThresholds["complaint_rate"].Critical)
	assert.Equal(t, "https://events.pagerduty.com/v2/enqueue", cfg.PagerDuty.EventsURL)
	assert.Equal(t, "ses-account-monitor", cfg.AWS.ServiceName)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Durations(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	period, err := cfg.Monitor.Period()
	require.NoError(t, err)
	assert.Equal(t, "15m0s", period.String())

	window, err := cfg.Monitor.Window()
	require.NoError(t, err)
	assert.Equal(t, "30m0s", window.String())
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	data := []byte(`
aws:
  account_name: production
  region: us-west-2
  environment: live
monitor:
  strategy: managed
  quota_thresholds:
    warning: 70
    critical: 85
slack:
  webhook_url: https://hooks.slack.com/services/T/B/X
  channels:
    - "#alerts"
    - "#mailops"
logging:
  level: debug
`)
	err := os.WriteFile(cfgPath, data, 0o644)
	require.NoError(t, err)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.AWS.AccountName)
	assert.Equal(t, "us-west-2", cfg.AWS.Region)
	assert.Equal(t, "managed", cfg.Monitor.Strategy)
	assert.Equal(t, 70.0, cfg.Monitor.QuotaThresholds.Warning)
	assert.Equal(t, 85.0, cfg.Monitor.QuotaThresholds.Critical)
	assert.Equal(t, []string{"#alerts", "#mailops"}, cfg.Slack.Channels)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SESGUARD_LOGGING_LEVEL", "error")
	t.Setenv("SESGUARD_MONITOR_STRATEGY", "managed")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "managed", cfg.Monitor.Strategy)
}

func TestLoad_ThresholdsFile(t *testing.T) {
	dir := t.TempDir()

	thresholdsPath := filepath.Join(dir, "thresholds.yaml")
	require.NoError(t, os.WriteFile(thresholdsPath, []byte(`
quota:
  warning: 60
  critical: 75
reputation:
  bounce_rate:
    warning: 3
    critical: 6
`), 0o644))

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
monitor:
  thresholds_file: `+thresholdsPath+`
`), 0o644))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, 60.0, cfg.Monitor.QuotaThresholds.Warning)
	assert.Equal(t, 75.0, cfg.Monitor.QuotaThresholds.Critical)
	assert.Equal(t, 3.0, cfg.Monitor.ReputationThresholds["bounce_rate"].Warning)
	assert.Equal(t, 6.0, cfg.Monitor.ReputationThresholds["bounce_rate"].Critical)
	// Untouched metrics keep their defaults.
	assert.Equal(t, 0.01, cfg.Monitor.ReputationThresholds["complaint_rate"].Warning)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	err := os.WriteFile(cfgPath, []byte("invalid: [yaml"), 0o644)
	require.NoError(t, err)

	_, err = config.Load(cfgPath)
	assert.Error(t, err)
}
