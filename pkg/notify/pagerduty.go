package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mailops/ses-guardian/pkg/model"
)

// Event classes used in PagerDuty dedup keys. Stable across trigger and
// resolve so the backend correlates open/close of the same incident.
const (
	ClassSendingQuota = "ses_account_sending_quota"
	ClassReputation   = "ses_account_reputation"
)

const customDetailsVersion = "v1.2018.06.18"

// PagerDutyConfig is the static context baked into every PagerDuty event.
type PagerDutyConfig struct {
	AccountName  string
	Environment  string
	Region       string
	EventsURL    string
	RoutingKey   string
	ServiceName  string
	ConsoleURL   string
	DashboardURL string
	DryRun       bool
}

// PagerDutyEvent is an Events API v2 payload. Resolve events carry only the
// routing key, dedup key and action.
type PagerDutyEvent struct {
	RoutingKey  string            `json:"routing_key"`
	DedupKey    string            `json:"dedup_key"`
	EventAction string            `json:"event_action"`
	Payload     *PagerDutyDetails `json:"payload,omitempty"`
	Client      string            `json:"client,omitempty"`
	ClientURL   string            `json:"client_url,omitempty"`
}

// PagerDutyDetails is the trigger-only payload body.
type PagerDutyDetails struct {
	Summary       string         `json:"summary"`
	Timestamp     string         `json:"timestamp"`
	Source        string         `json:"source"`
	Severity      string         `json:"severity"`
	Component     string         `json:"component"`
	Group         string         `json:"group"`
	Class         string         `json:"class"`
	CustomDetails map[string]any `json:"custom_details"`
}

// PagerDutyService builds, queues and delivers PagerDuty events.
type PagerDutyService struct {
	cfg    PagerDutyConfig
	queue  *Queue[PagerDutyEvent]
	client *http.Client
	logger *slog.Logger
}

// NewPagerDutyService creates a PagerDuty notifier. The client is optional;
// a default with a 10s timeout is used when nil.
func NewPagerDutyService(cfg PagerDutyConfig, client *http.Client, logger *slog.Logger) *PagerDutyService {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PagerDutyService{
		cfg:    cfg,
		queue:  &Queue[PagerDutyEvent]{},
		client: client,
		logger: logger.With("component", "pagerduty"),
	}
}

// DryRun reports the service-level dry-run default.
func (s *PagerDutyService) DryRun() bool { return s.cfg.DryRun }

// Pending returns a snapshot of the queued events.
func (s *PagerDutyService) Pending() []PagerDutyEvent { return s.queue.Items() }

// DedupKey returns the deterministic incident key for an event class,
// formatted "{service_name}/{event_class}".
func (s *PagerDutyService) DedupKey(class string) string {
	return fmt.Sprintf("%s/%s", s.cfg.ServiceName, class)
}

// BuildQuotaTriggerEvent builds the TRIGGER sent when 24-hour sending volume
// breaches a quota threshold. Percentages are 0–100-scale.
func (s *PagerDutyService) BuildQuotaTriggerEvent(v model.QuotaVerdict, thresholdPercent float64, eventISO string) PagerDutyEvent {
	details := map[string]any{
		"aws_account_name": s.cfg.AccountName,
		"aws_region":       s.cfg.Region,
		"aws_environment":  s.cfg.Environment,
		"volume":           v.Volume,
		"max_volume":       v.MaxVolume,
		"utilization":      model.FormatPercent(v.UtilizationPercent),
		"threshold":        model.FormatPercent(thresholdPercent),
		"ts":               v.MetricTimestamp,
		"version":          customDetailsVersion,
	}
	return s.buildTrigger("SES account sending quota is at capacity.", ClassSendingQuota, eventISO, details)
}

// BuildQuotaResolveEvent builds the RESOLVE sent when sending volume is back
// within quota.
func (s *PagerDutyService) BuildQuotaResolveEvent() PagerDutyEvent {
	return s.buildResolve(ClassSendingQuota)
}

// BuildReputationTriggerEvent builds the TRIGGER sent when reputation metrics
// breach thresholds. A trigger must never be built with zero metrics, since
// that would mean nothing breached.
func (s *PagerDutyService) BuildReputationTriggerEvent(metrics []model.MetricPoint, action model.Action, eventISO string, eventUnix int64) (PagerDutyEvent, error) {
	if len(metrics) == 0 {
		return PagerDutyEvent{}, &MissingRequiredFieldError{Builder: "reputation trigger", Field: "metrics"}
	}
	if action == "" {
		action = model.ActionAlert
	}

	details := map[string]any{
		"aws_account_name": s.cfg.AccountName,
		"aws_region":       s.cfg.Region,
		"aws_environment":  s.cfg.Environment,
		"ts":               fmt.Sprintf("%d", eventUnix),
		"version":          customDetailsVersion,
		"action":           string(action),
	}
	switch action {
	case model.ActionDisable:
		details["action_message"] = "SES account sending is disabled."
	case model.ActionAlert:
		details["action_message"] = "SES account is in danger of being suspended."
	}
	for _, m := range metrics {
		name := metricKey(m.Label)
		details[name] = model.FormatPercent2(m.Value)
		details[name+"_threshold"] = model.FormatPercent2(m.Threshold)
		details[name+"_timestamp"] = m.Timestamp
	}

	return s.buildTrigger("SES account reputation is at dangerous levels.", ClassReputation, eventISO, details), nil
}

// BuildReputationResolveEvent builds the RESOLVE sent when reputation metrics
// are back below thresholds.
func (s *PagerDutyService) BuildReputationResolveEvent() PagerDutyEvent {
	return s.buildResolve(ClassReputation)
}

// EnqueueQuotaTriggerEvent builds and queues a quota TRIGGER.
func (s *PagerDutyService) EnqueueQuotaTriggerEvent(v model.QuotaVerdict, thresholdPercent float64, eventISO string) {
	s.queue.Enqueue(s.BuildQuotaTriggerEvent(v, thresholdPercent, eventISO))
}

// EnqueueQuotaResolveEvent builds and queues a quota RESOLVE.
func (s *PagerDutyService) EnqueueQuotaResolveEvent() {
	s.queue.Enqueue(s.BuildQuotaResolveEvent())
}

// EnqueueReputationTriggerEvent builds and queues a reputation TRIGGER.
func (s *PagerDutyService) EnqueueReputationTriggerEvent(metrics []model.MetricPoint, action model.Action, eventISO string, eventUnix int64) error {
	event, err := s.BuildReputationTriggerEvent(metrics, action, eventISO, eventUnix)
	if err != nil {
		return err
	}
	s.queue.Enqueue(event)
	return nil
}

// EnqueueReputationResolveEvent builds and queues a reputation RESOLVE.
func (s *PagerDutyService) EnqueueReputationResolveEvent() {
	s.queue.Enqueue(s.BuildReputationResolveEvent())
}

// Send drains the queue. Under dry run (explicit flag or service default) no
// network call is made and every event is echoed back with a debug
// identifier. Live delivery makes exactly one call per event, removing the
// event from the queue first; there is no retry here.
func (s *PagerDutyService) Send(ctx context.Context, dryRun bool) (bool, []Outcome) {
	dry := dryRun || s.cfg.DryRun
	events := s.queue.Drain()
	outcomes := make([]Outcome, 0, len(events))

	s.logger.Debug("sending events to PagerDuty", "count", len(events), "dry_run", dry)

	for _, event := range events {
		id := fmt.Sprintf("%s::%s", event.EventAction, event.DedupKey)
		if dry {
			o := Outcome{Identifier: "debug::" + id, DryRun: true, Payload: event}
			logOutcome(s.logger, "pager_duty", o)
			outcomes = append(outcomes, o)
			continue
		}

		status, body, err := postJSON(ctx, s.client, s.cfg.EventsURL, event)
		o := Outcome{Identifier: id, StatusCode: status, Body: body, Err: err}
		logOutcome(s.logger, "pager_duty", o)
		outcomes = append(outcomes, o)
	}

	return !dry, outcomes
}

func (s *PagerDutyService) buildTrigger(summary, class, eventISO string, details map[string]any) PagerDutyEvent {
	return PagerDutyEvent{
		RoutingKey:  s.cfg.RoutingKey,
		DedupKey:    s.DedupKey(class),
		EventAction: "trigger",
		Payload: &PagerDutyDetails{
			Summary:       summary,
			Timestamp:     eventISO,
			Source:        s.cfg.ServiceName,
			Severity:      "critical",
			Component:     "ses",
			Group:         "aws-" + s.cfg.AccountName,
			Class:         class,
			CustomDetails: details,
		},
		Client:    "AWS Console",
		ClientURL: s.cfg.ConsoleURL,
	}
}

func (s *PagerDutyService) buildResolve(class string) PagerDutyEvent {
	return PagerDutyEvent{
		RoutingKey:  s.cfg.RoutingKey,
		DedupKey:    s.DedupKey(class),
		EventAction: "resolve",
	}
}

func metricKey(label string) string {
	return strings.ToLower(strings.ReplaceAll(label, " ", "_"))
}
