package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mailops/ses-guardian/pkg/model"
	"github.com/mailops/ses-guardian/pkg/notify"
)

// SendingStats is the current 24-hour sending volume counters.
type SendingStats struct {
	Volume    float64
	MaxVolume float64
}

// MetricsSource is the read-only collaborator for sending counters and
// reputation metric series.
type MetricsSource interface {
	// SendingStats returns the current sending volume and the 24-hour cap.
	SendingStats(ctx context.Context) (SendingStats, error)

	// ReputationSeries returns the reputation metric time series for the
	// window [start, end] at the given sample period.
	ReputationSeries(ctx context.Context, start, end time.Time, period time.Duration) ([]MetricSeries, error)
}

// AccountControl toggles account sending. Both mutators are idempotent from
// the monitor's perspective; state is always read before a write.
type AccountControl interface {
	SendingEnabled(ctx context.Context) (bool, error)
	EnableSending(ctx context.Context) error
	DisableSending(ctx context.Context) error
}

// Config is the monitor's decision policy, fixed at construction.
type Config struct {
	Strategy          model.Strategy
	Notify            model.NotifyConfig
	MonitorQuota      bool
	MonitorReputation bool

	QuotaThresholds      Thresholds
	ReputationThresholds map[string]Thresholds

	// ReputationPeriod is the sample period; ReputationWindow is how far back
	// from the check time the series is fetched.
	ReputationPeriod time.Duration
	ReputationWindow time.Duration
}

// Pending is a snapshot of both notification queues after a handler ran.
type Pending struct {
	PagerDuty []notify.PagerDutyEvent `json:"pager_duty"`
	Slack     []notify.SlackMessage   `json:"slack"`
}

// QuotaCheck is the result of one sending-quota check cycle.
type QuotaCheck struct {
	Skipped bool
	Verdict *model.QuotaVerdict
	Pending Pending
}

// ReputationCheck is the result of one reputation check cycle.
type ReputationCheck struct {
	Skipped bool
	Verdict *model.ReputationVerdict
	Action  model.Action
	Pending Pending
}

// DeliveryReport aggregates the delivery outcomes of both backends.
type DeliveryReport struct {
	PagerDutySent bool             `json:"pager_duty_sent"`
	PagerDuty     []notify.Outcome `json:"pager_duty"`
	SlackSent     bool             `json:"slack_sent"`
	Slack         []notify.Outcome `json:"slack"`
}

// Monitor drives one check cycle: fetch metrics, classify, apply the
// management strategy, queue notifications. Handlers never deliver; that is
// SendNotifications' job, so callers can inspect (or dry-run) the queues
// before anything leaves the process. All collaborators are injected.
type Monitor struct {
	cfg       Config
	metrics   MetricsSource
	control   AccountControl
	pagerDuty *notify.PagerDutyService
	slack     *notify.SlackService
	logger    *slog.Logger
}

// New wires a monitor from already-constructed collaborators.
func New(cfg Config, metrics MetricsSource, control AccountControl, pagerDuty *notify.PagerDutyService, slack *notify.SlackService, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		cfg:       cfg,
		metrics:   metrics,
		control:   control,
		pagerDuty: pagerDuty,
		slack:     slack,
		logger:    logger.With("component", "monitor"),
	}
}

// HandleQuota reviews the sending quota and queues notifications when
// thresholds are crossed. It returns an empty, skipped result without
// touching any collaborator when quota monitoring is off or the strategy is
// not a recognized value.
func (m *Monitor) HandleQuota(ctx context.Context, now time.Time) (QuotaCheck, error) {
	if !m.cfg.MonitorQuota {
		m.logger.Debug("sending quota monitoring is disabled, skipping")
		return QuotaCheck{Skipped: true}, nil
	}
	if !m.cfg.Strategy.Valid() {
		m.logger.Debug("management strategy is not valid, skipping", "strategy", string(m.cfg.Strategy))
		return QuotaCheck{Skipped: true}, nil
	}

	if now.IsZero() {
		now = time.Now()
	}
	eventISO := model.ISOTimestamp(now)
	eventUnix := now.Unix()

	stats, err := m.metrics.SendingStats(ctx)
	if err != nil {
		return QuotaCheck{}, fmt.Errorf("fetch sending stats: %w", err)
	}

	warning := m.cfg.QuotaThresholds.Warning
	critical := m.cfg.QuotaThresholds.Critical

	verdict, err := EvaluateQuota(stats.Volume, stats.MaxVolume, warning, critical, eventISO)
	if err != nil {
		return QuotaCheck{}, fmt.Errorf("evaluate quota: %w", err)
	}

	m.logger.Info("sending quota evaluated",
		"utilization_percent", verdict.UtilizationPercent,
		"status", string(verdict.Status),
	)

	switch verdict.Status {
	case model.StatusCritical:
		if m.cfg.Notify.PagerDutyOnQuota {
			m.pagerDuty.EnqueueQuotaTriggerEvent(verdict, critical, eventISO)
		}
		if m.cfg.Notify.SlackOnQuota {
			m.slack.EnqueueQuotaMessage(model.StatusCritical, verdict, critical, eventUnix)
		}
	case model.StatusWarning:
		if m.cfg.Notify.PagerDutyOnQuota {
			m.pagerDuty.EnqueueQuotaResolveEvent()
		}
		if m.cfg.Notify.SlackOnQuota {
			m.slack.EnqueueQuotaMessage(model.StatusWarning, verdict, warning, eventUnix)
		}
	case model.StatusOK:
		if m.cfg.Notify.PagerDutyOnQuota {
			m.pagerDuty.EnqueueQuotaResolveEvent()
		}
	}

	return QuotaCheck{Verdict: &verdict, Pending: m.pending()}, nil
}

// HandleReputation reviews account reputation and queues notifications when
// thresholds are crossed. Under the managed strategy it also disables
// sending on CRITICAL and re-enables it on WARNING/OK recovery; account
// state is read before every write, and any side effect happens before
// notifications are queued.
func (m *Monitor) HandleReputation(ctx context.Context, now time.Time) (ReputationCheck, error) {
	if !m.cfg.MonitorReputation {
		m.logger.Debug("reputation monitoring is disabled, skipping")
		return ReputationCheck{Skipped: true}, nil
	}
	if !m.cfg.Strategy.Valid() {
		m.logger.Debug("management strategy is not valid, skipping", "strategy", string(m.cfg.Strategy))
		return ReputationCheck{Skipped: true}, nil
	}

	if now.IsZero() {
		now = time.Now()
	}
	eventISO := model.ISOTimestamp(now)
	eventUnix := now.Unix()

	series, err := m.metrics.ReputationSeries(ctx, now.Add(-m.cfg.ReputationWindow), now, m.cfg.ReputationPeriod)
	if err != nil {
		return ReputationCheck{}, fmt.Errorf("fetch reputation metrics: %w", err)
	}

	verdict := Classify(series, m.cfg.ReputationThresholds)
	managed := m.cfg.Strategy == model.StrategyManaged
	action := model.ActionAlert

	m.logger.Info("reputation classified",
		"critical", len(verdict.Critical),
		"warning", len(verdict.Warning),
		"ok", len(verdict.OK),
		"status", string(verdict.Status()),
	)

	switch {
	case len(verdict.Critical) > 0:
		if managed {
			enabled, err := m.control.SendingEnabled(ctx)
			if err != nil {
				return ReputationCheck{}, fmt.Errorf("read sending state: %w", err)
			}
			if enabled {
				m.logger.Info("reputation is critical under managed strategy, disabling sending")
				if err := m.control.DisableSending(ctx); err != nil {
					return ReputationCheck{}, fmt.Errorf("disable sending: %w", err)
				}
			}
			action = model.ActionDisable
		}

		danger := verdict.Danger()
		if m.cfg.Notify.PagerDutyOnReputation {
			if err := m.pagerDuty.EnqueueReputationTriggerEvent(danger, action, eventISO, eventUnix); err != nil {
				return ReputationCheck{}, fmt.Errorf("queue reputation trigger: %w", err)
			}
		}
		if m.cfg.Notify.SlackOnReputation {
			m.slack.EnqueueReputationMessage(model.StatusCritical, danger, action, eventUnix)
		}

	case len(verdict.Warning) > 0:
		if managed {
			enabled, err := m.control.SendingEnabled(ctx)
			if err != nil {
				return ReputationCheck{}, fmt.Errorf("read sending state: %w", err)
			}
			if !enabled {
				m.logger.Info("reputation recovered to warning, re-enabling sending")
				if err := m.control.EnableSending(ctx); err != nil {
					return ReputationCheck{}, fmt.Errorf("enable sending: %w", err)
				}
				action = model.ActionEnable
			}
		}

		if m.cfg.Notify.SlackOnReputation {
			m.slack.EnqueueReputationMessage(model.StatusWarning, verdict.Warning, action, eventUnix)
		}

	case len(verdict.OK) > 0:
		if managed {
			enabled, err := m.control.SendingEnabled(ctx)
			if err != nil {
				return ReputationCheck{}, fmt.Errorf("read sending state: %w", err)
			}
			if !enabled {
				m.logger.Info("reputation recovered, re-enabling sending")
				if err := m.control.EnableSending(ctx); err != nil {
					return ReputationCheck{}, fmt.Errorf("enable sending: %w", err)
				}
				action = model.ActionEnable

				// Recovery is only announced when an enable actually happened.
				if m.cfg.Notify.SlackOnReputation {
					m.slack.EnqueueReputationMessage(model.StatusWarning, verdict.Warning, action, eventUnix)
				}
			}
		}
	}

	return ReputationCheck{Verdict: &verdict, Action: action, Pending: m.pending()}, nil
}

// SendNotifications drains and delivers both queues. The report always
// carries every outcome; when raiseOnErrors is set, the first outcome from a
// non-dry-run backend whose status falls in the 400–500 range (inclusive) is
// additionally surfaced as a NotificationFailureError, PagerDuty first.
func (m *Monitor) SendNotifications(ctx context.Context, raiseOnErrors bool) (DeliveryReport, error) {
	m.logger.Debug("sending notifications")

	report := DeliveryReport{}
	report.PagerDutySent, report.PagerDuty = m.pagerDuty.Send(ctx, false)
	report.SlackSent, report.Slack = m.slack.Send(ctx, false)

	if !raiseOnErrors {
		return report, nil
	}

	if m.pagerDuty.DryRun() {
		m.logger.Debug("PagerDuty dry run enabled, skipping response checks")
	} else {
		for _, o := range report.PagerDuty {
			if o.Err == nil && notify.IsFailureStatus(o.StatusCode) {
				return report, &notify.NotificationFailureError{Backend: "pager_duty", Identifier: o.Identifier, StatusCode: o.StatusCode}
			}
		}
	}

	if m.slack.DryRun() {
		m.logger.Debug("Slack dry run enabled, skipping response checks")
	} else {
		for _, o := range report.Slack {
			if o.Err == nil && notify.IsFailureStatus(o.StatusCode) {
				return report, &notify.NotificationFailureError{Backend: "slack", Identifier: o.Identifier, StatusCode: o.StatusCode}
			}
		}
	}

	return report, nil
}

// pending snapshots both queues without consuming them.
func (m *Monitor) pending() Pending {
	return Pending{
		PagerDuty: m.pagerDuty.Pending(),
		Slack:     m.slack.Pending(),
	}
}
