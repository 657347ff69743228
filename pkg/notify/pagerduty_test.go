package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailops/ses-guardian/pkg/model"
	"github.com/mailops/ses-guardian/pkg/notify"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPagerDuty(cfg notify.PagerDutyConfig) *notify.PagerDutyService {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "ses-account-monitor"
	}
	if cfg.AccountName == "" {
		cfg.AccountName = "production"
	}
	if cfg.RoutingKey == "" {
		cfg.RoutingKey = "test-routing-key"
	}
	return notify.NewPagerDutyService(cfg, nil, testLogger())
}

func TestPagerDuty_DedupKey(t *testing.T) {
	s := newPagerDuty(notify.PagerDutyConfig{})

	assert.Equal(t, "ses-account-monitor/ses_account_sending_quota", s.DedupKey(notify.ClassSendingQuota))
	assert.Equal(t, "ses-account-monitor/ses_account_reputation", s.DedupKey(notify.ClassReputation))
}

func TestPagerDuty_BuildQuotaTriggerEvent(t *testing.T) {
	s := newPagerDuty(notify.PagerDutyConfig{Region: "us-west-2", Environment: "production", ConsoleURL: "https://console.example.com"})

	verdict := model.QuotaVerdict{
		Volume:             150,
		MaxVolume:          100,
		UtilizationPercent: 150,
		Status:             model.StatusCritical,
		MetricTimestamp:    "2018-06-18T00:00:00Z",
	}
	event := s.BuildQuotaTriggerEvent(verdict, 90, "2018-06-18T00:00:00Z")

	assert.Equal(t, "trigger", event.EventAction)
	assert.Equal(t, "ses-account-monitor/ses_account_sending_quota", event.DedupKey)
	assert.Equal(t, "test-routing-key", event.RoutingKey)
	assert.Equal(t, "AWS Console", event.Client)
	assert.Equal(t, "https://console.example.com", event.ClientURL)

	require.NotNil(t, event.Payload)
	assert.Equal(t, "critical", event.Payload.Severity)
	assert.Equal(t, "ses", event.Payload.Component)
	assert.Equal(t, "aws-production", event.Payload.Group)
	assert.Equal(t, notify.ClassSendingQuota, event.Payload.Class)

	details := event.Payload.CustomDetails
	assert.Equal(t, "150%", details["utilization"])
	assert.Equal(t, "90%", details["threshold"])
	assert.Equal(t, 150.0, details["volume"])
	assert.Equal(t, 100.0, details["max_volume"])
	assert.Equal(t, "v1.2018.06.18", details["version"])
}

func TestPagerDuty_BuildQuotaResolveEvent(t *testing.T) {
	s := newPagerDuty(notify.PagerDutyConfig{})
	event := s.BuildQuotaResolveEvent()

	assert.Equal(t, "resolve", event.EventAction)
	assert.Equal(t, "ses-account-monitor/ses_account_sending_quota", event.DedupKey)
	assert.Nil(t, event.Payload)
}

func TestPagerDuty_BuildReputationTriggerEvent(t *testing.T) {
	s := newPagerDuty(notify.PagerDutyConfig{})

	metrics := []model.MetricPoint{
		{Label: "Bounce Rate", Value: 9, Threshold: 8, Timestamp: "2018-06-18T00:00:00Z"},
	}
	event, err := s.BuildReputationTriggerEvent(metrics, model.ActionDisable, "2018-06-18T00:00:00Z", 1529280000)
	require.NoError(t, err)

	details := event.Payload.CustomDetails
	assert.Equal(t, "9.00%", details["bounce_rate"])
	assert.Equal(t, "8.00%", details["bounce_rate_threshold"])
	assert.Equal(t, "2018-06-18T00:00:00Z", details["bounce_rate_timestamp"])
	assert.Equal(t, "disable", details["action"])
	assert.Equal(t, "SES account sending is disabled.", details["action_message"])
	assert.Equal(t, "1529280000", details["ts"])
}

func TestPagerDuty_BuildReputationTriggerEvent_AlertAction(t *testing.T) {
	s := newPagerDuty(notify.PagerDutyConfig{})

	metrics := []model.MetricPoint{{Label: "Complaint Rate", Value: 5, Threshold: 0.04}}
	event, err := s.BuildReputationTriggerEvent(metrics, model.ActionAlert, "", 0)
	require.NoError(t, err)

	details := event.Payload.CustomDetails
	assert.Equal(t, "5.00%", details["complaint_rate"])
	assert.Equal(t, "SES account is in danger of being suspended.", details["action_message"])
}

func TestPagerDuty_BuildReputationTriggerEvent_NoMetrics(t *testing.T) {
	s := newPagerDuty(notify.PagerDutyConfig{})

	_, err := s.BuildReputationTriggerEvent(nil, model.ActionAlert, "", 0)
	require.Error(t, err)

	var missing *notify.MissingRequiredFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "metrics", missing.Field)
}

func TestPagerDuty_Send_DryRun(t *testing.T) {
	s := newPagerDuty(notify.PagerDutyConfig{})
	s.EnqueueQuotaResolveEvent()

	sent, outcomes := s.Send(context.Background(), true)

	assert.False(t, sent)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].DryRun)
	assert.Equal(t, "debug::resolve::ses-account-monitor/ses_account_sending_quota", outcomes[0].Identifier)
	assert.NotNil(t, outcomes[0].Payload)
}

func TestPagerDuty_Send_Live(t *testing.T) {
	var bodies [][]byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := newPagerDuty(notify.PagerDutyConfig{EventsURL: srv.URL})
	s.EnqueueQuotaResolveEvent()
	s.EnqueueReputationResolveEvent()

	sent, outcomes := s.Send(context.Background(), false)

	assert.True(t, sent)
	require.Len(t, outcomes, 2)
	require.Len(t, bodies, 2)
	assert.Equal(t, http.StatusAccepted, outcomes[0].StatusCode)
	assert.Equal(t, "resolve::ses-account-monitor/ses_account_sending_quota", outcomes[0].Identifier)
	assert.Equal(t, "resolve::ses-account-monitor/ses_account_reputation", outcomes[1].Identifier)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(bodies[0], &payload))
	assert.Equal(t, "test-routing-key", payload["routing_key"])
	assert.Equal(t, "resolve", payload["event_action"])

	// Queue is consumed by a live send.
	assert.Empty(t, s.Pending())
}
