// Package monitor holds the decision core: threshold classification of
// reputation metrics, sending-quota evaluation, and the orchestrator that
// turns verdicts into account-control side effects and queued notifications.
package monitor

import (
	"time"

	"github.com/mailops/ses-guardian/pkg/model"
)

// Thresholds is a warning/critical threshold pair on the 0–100 percent scale.
type Thresholds struct {
	Warning  float64 `yaml:"warning"`
	Critical float64 `yaml:"critical"`
}

// SeriesPoint is one raw sample in a metric time series.
type SeriesPoint struct {
	Timestamp time.Time
	Value     float64
}

// MetricSeries is the raw time series for one reputation metric over the
// lookback window, as returned by the metrics source. Values are on the
// 0–100 percent scale.
type MetricSeries struct {
	ID     string
	Label  string
	Points []SeriesPoint
}

// Classify partitions reputation metrics into a tri-state verdict. For each
// series the most recent sample is compared against that metric's
// thresholds: >= critical wins, else >= warning, else ok. Warning and ok
// points are tagged with the warning threshold, critical points with the
// critical threshold. Series with no samples, and series with no configured
// thresholds, are silently excluded. Pure function; no clock, no side
// effects.
func Classify(series []MetricSeries, thresholds map[string]Thresholds) model.ReputationVerdict {
	var verdict model.ReputationVerdict

	for _, s := range series {
		th, ok := thresholds[s.ID]
		if !ok || len(s.Points) == 0 {
			continue
		}

		last := latestPoint(s.Points)
		point := model.MetricPoint{
			Label:     s.Label,
			Value:     last.Value,
			Timestamp: model.ISOTimestamp(last.Timestamp),
		}

		switch {
		case last.Value >= th.Critical:
			point.Threshold = th.Critical
			verdict.Critical = append(verdict.Critical, point)
		case last.Value >= th.Warning:
			point.Threshold = th.Warning
			verdict.Warning = append(verdict.Warning, point)
		default:
			point.Threshold = th.Warning
			verdict.OK = append(verdict.OK, point)
		}
	}

	return verdict
}

func latestPoint(points []SeriesPoint) SeriesPoint {
	last := points[0]
	for _, p := range points[1:] {
		if p.Timestamp.After(last.Timestamp) {
			last = p
		}
	}
	return last
}
