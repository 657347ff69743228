package model

import (
	"fmt"
	"strconv"
	"time"
)

// Status is the tri-state severity of a check signal.
type Status string

const (
	StatusOK       Status = "OK"
	StatusWarning  Status = "WARNING"
	StatusCritical Status = "CRITICAL"
)

// Strategy controls whether the monitor only alerts or also manages
// account sending (disable on critical reputation, re-enable on recovery).
type Strategy string

const (
	StrategyAlert   Strategy = "alert"
	StrategyManaged Strategy = "managed"
)

// Valid reports whether the strategy is one of the two recognized values.
// Any other value fails closed: the monitor skips the check entirely.
func (s Strategy) Valid() bool {
	return s == StrategyAlert || s == StrategyManaged
}

// Action is the side effect the monitor took (or declined to take) in
// response to a reputation state.
type Action string

const (
	ActionAlert   Action = "alert"
	ActionEnable  Action = "enable"
	ActionDisable Action = "disable"
)

// Signal names the two monitored check signals.
type Signal string

const (
	SignalQuota      Signal = "sending_quota"
	SignalReputation Signal = "reputation"
)

// MetricPoint is one reputation measurement, already compared to its
// threshold and tagged with the winning threshold. Immutable once produced
// by the classifier.
type MetricPoint struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Timestamp string  `json:"timestamp"`
}

// ReputationVerdict partitions all reputation metrics for one evaluation
// cycle. Every classified metric appears in exactly one bucket.
type ReputationVerdict struct {
	Critical []MetricPoint `json:"critical"`
	Warning  []MetricPoint `json:"warning"`
	OK       []MetricPoint `json:"ok"`
}

// Status derives the overall severity: any critical metric makes the cycle
// CRITICAL, else any warning metric makes it WARNING.
func (v ReputationVerdict) Status() Status {
	switch {
	case len(v.Critical) > 0:
		return StatusCritical
	case len(v.Warning) > 0:
		return StatusWarning
	default:
		return StatusOK
	}
}

// Danger returns the metrics worth paging about: critical followed by warning.
func (v ReputationVerdict) Danger() []MetricPoint {
	danger := make([]MetricPoint, 0, len(v.Critical)+len(v.Warning))
	danger = append(danger, v.Critical...)
	danger = append(danger, v.Warning...)
	return danger
}

// Empty reports whether no metric had any sample this cycle.
func (v ReputationVerdict) Empty() bool {
	return len(v.Critical) == 0 && len(v.Warning) == 0 && len(v.OK) == 0
}

// QuotaVerdict is the result of one sending-quota evaluation.
// UtilizationPercent is on the 0–100 scale and may exceed 100 when the
// account is over quota.
type QuotaVerdict struct {
	Volume             float64 `json:"volume"`
	MaxVolume          float64 `json:"max_volume"`
	UtilizationPercent float64 `json:"utilization_percent"`
	Status             Status  `json:"status"`
	MetricTimestamp    string  `json:"metric_timestamp"`
}

// NotifyConfig holds the four notification enable flags. Immutable,
// supplied at monitor construction.
type NotifyConfig struct {
	PagerDutyOnReputation bool
	PagerDutyOnQuota      bool
	SlackOnReputation     bool
	SlackOnQuota          bool
}

// FormatPercent renders a 0–100-scale value as "NN%" with no decimals,
// e.g. 150 -> "150%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.0f%%", v)
}

// FormatPercent2 renders a 0–100-scale value as "NN.NN%" with exactly two
// decimals, e.g. 5 -> "5.00%". The two-decimal form is a presentation
// contract relied on by downstream alert consumers.
func FormatPercent2(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// FormatVolume renders an email volume without trailing zeros.
func FormatVolume(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ISOTimestamp formats t as an ISO 8601 / RFC 3339 UTC timestamp.
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
