package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mailops/ses-guardian/pkg/model"
)

const slackUsername = "SES Account Monitor"

// SlackConfig is the static context baked into every Slack message.
type SlackConfig struct {
	AccountName   string
	Environment   string
	Region        string
	Channels      []string
	FooterIconURL string
	IconEmoji     string
	ServiceName   string
	ConsoleURL    string
	DashboardURL  string
	WebhookURL    string
	DryRun        bool
}

// SlackMessage is a webhook payload. Channel is injected at send time, one
// copy per configured channel.
type SlackMessage struct {
	Channel     string            `json:"channel,omitempty"`
	Attachments []SlackAttachment `json:"attachments"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Username    string            `json:"username"`
}

// SlackAttachment is one message attachment block.
type SlackAttachment struct {
	Fallback   string       `json:"fallback"`
	Color      string       `json:"color"`
	Fields     []SlackField `json:"fields"`
	Footer     string       `json:"footer"`
	FooterIcon string       `json:"footer_icon"`
	Ts         int64        `json:"ts"`
}

// SlackField is one title/value pair inside an attachment.
type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// SlackService builds, queues and delivers Slack messages.
type SlackService struct {
	cfg    SlackConfig
	queue  *Queue[SlackMessage]
	client *http.Client
	logger *slog.Logger
}

// NewSlackService creates a Slack notifier. The client is optional; a
// default with a 10s timeout is used when nil.
func NewSlackService(cfg SlackConfig, client *http.Client, logger *slog.Logger) *SlackService {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SlackService{
		cfg:    cfg,
		queue:  &Queue[SlackMessage]{},
		client: client,
		logger: logger.With("component", "slack"),
	}
}

// DryRun reports the service-level dry-run default.
func (s *SlackService) DryRun() bool { return s.cfg.DryRun }

// Pending returns a snapshot of the queued messages.
func (s *SlackService) Pending() []SlackMessage { return s.queue.Items() }

// statusColor maps a severity to a Slack attachment color.
func statusColor(status model.Status) string {
	switch status {
	case model.StatusCritical:
		return "danger"
	case model.StatusWarning:
		return "warning"
	case model.StatusOK:
		return "ok"
	default:
		return ""
	}
}

// BuildQuotaMessage builds the sending-quota status message. Percentages are
// 0–100-scale; both are rendered with two decimals.
func (s *SlackService) BuildQuotaMessage(status model.Status, v model.QuotaVerdict, thresholdPercent float64, eventUnix int64) SlackMessage {
	fields := []SlackField{
		{Title: "Service", Value: fmt.Sprintf("<%s|SES Account Sending>", s.cfg.ConsoleURL), Short: true},
		{Title: "Account", Value: s.cfg.AccountName, Short: true},
		{Title: "Region", Value: s.cfg.Region, Short: true},
		{Title: "Environment", Value: s.cfg.Environment, Short: true},
		{Title: "Status", Value: string(status), Short: true},
		{Title: "Time", Value: v.MetricTimestamp},
		{Title: "Utilization", Value: model.FormatPercent2(v.UtilizationPercent), Short: true},
		{Title: "Threshold", Value: model.FormatPercent2(thresholdPercent), Short: true},
		{Title: "Volume", Value: model.FormatVolume(v.Volume), Short: true},
		{Title: "Max Volume", Value: model.FormatVolume(v.MaxVolume), Short: true},
		{Title: "Message", Value: fmt.Sprintf("SES account sending rate has breached the %s threshold.", status)},
	}

	return SlackMessage{
		Attachments: []SlackAttachment{{
			Fallback:   fmt.Sprintf("SES account sending rate has breached %s threshold.", status),
			Color:      statusColor(status),
			Fields:     fields,
			Footer:     s.cfg.ServiceName,
			FooterIcon: s.cfg.FooterIconURL,
			Ts:         eventUnix,
		}},
		IconEmoji: s.cfg.IconEmoji,
		Username:  slackUsername,
	}
}

// BuildReputationMessage builds the reputation status message. Each metric
// contributes a "<label> / Threshold" and a "<label> Time" field pair.
func (s *SlackService) BuildReputationMessage(status model.Status, metrics []model.MetricPoint, action model.Action, eventUnix int64) SlackMessage {
	if action == "" {
		action = model.ActionAlert
	}
	fallback, primary := reputationText(status)

	fields := []SlackField{
		{Title: "Service", Value: fmt.Sprintf("<%s|SES Account Reputation>", s.cfg.DashboardURL), Short: true},
		{Title: "Account", Value: s.cfg.AccountName, Short: true},
		{Title: "Region", Value: s.cfg.Region, Short: true},
		{Title: "Environment", Value: s.cfg.Environment, Short: true},
		{Title: "Status", Value: string(status), Short: true},
		{Title: "Action", Value: strings.ToUpper(string(action)), Short: true},
	}
	for _, m := range metrics {
		fields = append(fields,
			SlackField{
				Title: m.Label + " / Threshold",
				Value: fmt.Sprintf("%s / %s", model.FormatPercent2(m.Value), model.FormatPercent2(m.Threshold)),
				Short: true,
			},
			SlackField{Title: m.Label + " Time", Value: m.Timestamp, Short: true},
		)
	}
	fields = append(fields, SlackField{Title: "Message", Value: primary})

	return SlackMessage{
		Attachments: []SlackAttachment{{
			Fallback:   fallback,
			Color:      statusColor(status),
			Fields:     fields,
			Footer:     s.cfg.ServiceName,
			FooterIcon: s.cfg.FooterIconURL,
			Ts:         eventUnix,
		}},
		IconEmoji: s.cfg.IconEmoji,
		Username:  slackUsername,
	}
}

// EnqueueQuotaMessage builds and queues a sending-quota message.
func (s *SlackService) EnqueueQuotaMessage(status model.Status, v model.QuotaVerdict, thresholdPercent float64, eventUnix int64) {
	s.queue.Enqueue(s.BuildQuotaMessage(status, v, thresholdPercent, eventUnix))
}

// EnqueueReputationMessage builds and queues a reputation message.
func (s *SlackService) EnqueueReputationMessage(status model.Status, metrics []model.MetricPoint, action model.Action, eventUnix int64) {
	s.queue.Enqueue(s.BuildReputationMessage(status, metrics, action, eventUnix))
}

// Send drains the queue, fanning each message out to every configured
// channel: one outbound call per channel per message, channel-list order
// within queue order. Under dry run the channel-tagged copies are echoed
// back and no call is made.
func (s *SlackService) Send(ctx context.Context, dryRun bool) (bool, []Outcome) {
	dry := dryRun || s.cfg.DryRun
	messages := s.queue.Drain()
	outcomes := make([]Outcome, 0, len(messages)*len(s.cfg.Channels))

	s.logger.Debug("sending messages to Slack", "count", len(messages), "channels", len(s.cfg.Channels), "dry_run", dry)

	for _, message := range messages {
		for _, channel := range s.cfg.Channels {
			message.Channel = channel

			if dry {
				o := Outcome{Identifier: channel, DryRun: true, Payload: message}
				logOutcome(s.logger, "slack", o)
				outcomes = append(outcomes, o)
				continue
			}

			status, body, err := postJSON(ctx, s.client, s.cfg.WebhookURL, message)
			o := Outcome{Identifier: channel, StatusCode: status, Body: body, Err: err}
			logOutcome(s.logger, "slack", o)
			outcomes = append(outcomes, o)
		}
	}

	return !dry, outcomes
}

func reputationText(status model.Status) (fallback, primary string) {
	switch status {
	case model.StatusCritical, model.StatusWarning:
		fallback = fmt.Sprintf("SES account reputation has breached %s threshold.", status)
		primary = fmt.Sprintf("SES account reputation has breached the %s threshold.", status)
	case model.StatusOK:
		fallback = "SES account reputation has recovered."
		primary = fmt.Sprintf("SES account reputation status is %s.", status)
	}
	return fallback, primary
}
