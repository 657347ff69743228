package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailops/ses-guardian/pkg/model"
	"github.com/mailops/ses-guardian/pkg/notify"
)

func newSlack(cfg notify.SlackConfig) *notify.SlackService {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "ses-account-monitor"
	}
	if cfg.AccountName == "" {
		cfg.AccountName = "production"
	}
	if len(cfg.Channels) == 0 {
		cfg.Channels = []string{"#alerts"}
	}
	return notify.NewSlackService(cfg, nil, testLogger())
}

func fieldValue(t *testing.T, msg notify.SlackMessage, title string) string {
	t.Helper()
	for _, f := range msg.Attachments[0].Fields {
		if f.Title == title {
			return f.Value
		}
	}
	t.Fatalf("field %q not found", title)
	return ""
}

func TestSlack_BuildQuotaMessage(t *testing.T) {
	s := newSlack(notify.SlackConfig{Region: "us-west-2", Environment: "production", ConsoleURL: "https://console.example.com"})

	verdict := model.QuotaVerdict{
		Volume:             84.85,
		MaxVolume:          100,
		UtilizationPercent: 84.85,
		Status:             model.StatusWarning,
		MetricTimestamp:    "2018-06-18T00:00:00Z",
	}
	msg := s.BuildQuotaMessage(model.StatusWarning, verdict, 80, 1529280000)

	assert.Equal(t, "SES Account Monitor", msg.Username)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "warning", msg.Attachments[0].Color)
	assert.Equal(t, int64(1529280000), msg.Attachments[0].Ts)
	assert.Equal(t, "ses-account-monitor", msg.Attachments[0].Footer)

	assert.Equal(t, "84.85%", fieldValue(t, msg, "Utilization"))
	assert.Equal(t, "80.00%", fieldValue(t, msg, "Threshold"))
	assert.Equal(t, "84.85", fieldValue(t, msg, "Volume"))
	assert.Equal(t, "100", fieldValue(t, msg, "Max Volume"))
	assert.Equal(t, "WARNING", fieldValue(t, msg, "Status"))
	assert.Equal(t, "<https://console.example.com|SES Account Sending>", fieldValue(t, msg, "Service"))
}

func TestSlack_BuildQuotaMessage_CriticalColor(t *testing.T) {
	s := newSlack(notify.SlackConfig{})
	msg := s.BuildQuotaMessage(model.StatusCritical, model.QuotaVerdict{}, 90, 0)
	assert.Equal(t, "danger", msg.Attachments[0].Color)
}

func TestSlack_BuildReputationMessage(t *testing.T) {
	s := newSlack(notify.SlackConfig{DashboardURL: "https://dashboard.example.com"})

	metrics := []model.MetricPoint{
		{Label: "Bounce Rate", Value: 9, Threshold: 8, Timestamp: "2018-06-18T00:00:00Z"},
	}
	msg := s.BuildReputationMessage(model.StatusCritical, metrics, model.ActionDisable, 1529280000)

	assert.Equal(t, "danger", msg.Attachments[0].Color)
	assert.Equal(t, "DISABLE", fieldValue(t, msg, "Action"))
	assert.Equal(t, "9.00% / 8.00%", fieldValue(t, msg, "Bounce Rate / Threshold"))
	assert.Equal(t, "2018-06-18T00:00:00Z", fieldValue(t, msg, "Bounce Rate Time"))
	assert.Equal(t, "SES account reputation has breached the CRITICAL threshold.", fieldValue(t, msg, "Message"))
}

func TestSlack_BuildReputationMessage_OKText(t *testing.T) {
	s := newSlack(notify.SlackConfig{})
	msg := s.BuildReputationMessage(model.StatusOK, nil, model.ActionEnable, 0)

	assert.Equal(t, "ok", msg.Attachments[0].Color)
	assert.Equal(t, "SES account reputation has recovered.", msg.Attachments[0].Fallback)
	assert.Equal(t, "SES account reputation status is OK.", fieldValue(t, msg, "Message"))
}

func TestSlack_Send_FanOut(t *testing.T) {
	var channels []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var msg map[string]any
		require.NoError(t, json.Unmarshal(body, &msg))
		channels = append(channels, msg["channel"].(string))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newSlack(notify.SlackConfig{
		WebhookURL: srv.URL,
		Channels:   []string{"#alerts", "#mailops"},
	})
	s.EnqueueQuotaMessage(model.StatusCritical, model.QuotaVerdict{}, 90, 0)
	s.EnqueueQuotaMessage(model.StatusWarning, model.QuotaVerdict{}, 80, 0)

	sent, outcomes := s.Send(context.Background(), false)

	assert.True(t, sent)
	require.Len(t, outcomes, 4)
	// One POST per channel per message, channel-list order within queue order.
	assert.Equal(t, []string{"#alerts", "#mailops", "#alerts", "#mailops"}, channels)
	assert.Equal(t, "#alerts", outcomes[0].Identifier)
	assert.Equal(t, "#mailops", outcomes[1].Identifier)
}

func TestSlack_Send_DryRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("unexpected network call under dry run")
	}))
	defer srv.Close()

	s := newSlack(notify.SlackConfig{WebhookURL: srv.URL, Channels: []string{"#alerts", "#mailops"}})
	s.EnqueueQuotaMessage(model.StatusOK, model.QuotaVerdict{}, 80, 0)

	sent, outcomes := s.Send(context.Background(), true)

	assert.False(t, sent)
	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].DryRun)

	payload, ok := outcomes[0].Payload.(notify.SlackMessage)
	require.True(t, ok)
	assert.Equal(t, "#alerts", payload.Channel)
}
