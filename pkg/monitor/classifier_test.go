package monitor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mailops/ses-guardian/pkg/model"
	"github.com/mailops/ses-guardian/pkg/monitor"
)

var testThresholds = map[string]monitor.Thresholds{
	"bounce_rate":    {Warning: 5, Critical: 8},
	"complaint_rate": {Warning: 0.01, Critical: 0.04},
}

func series(id, label string, values ...monitor.SeriesPoint) monitor.MetricSeries {
	return monitor.MetricSeries{ID: id, Label: label, Points: values}
}

func point(value float64, at time.Time) monitor.SeriesPoint {
	return monitor.SeriesPoint{Timestamp: at, Value: value}
}

func TestClassify_Partition(t *testing.T) {
	now := time.Now()
	verdict := monitor.Classify([]monitor.MetricSeries{
		series("bounce_rate", "Bounce Rate", point(9, now)),
		series("complaint_rate", "Complaint Rate", point(0.005, now)),
	}, testThresholds)

	// Every classified metric lands in exactly one bucket.
	assert.Len(t, verdict.Critical, 1)
	assert.Empty(t, verdict.Warning)
	assert.Len(t, verdict.OK, 1)
	assert.Equal(t, "Bounce Rate", verdict.Critical[0].Label)
	assert.Equal(t, "Complaint Rate", verdict.OK[0].Label)
}

func TestClassify_InclusiveBoundaries(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		value float64
		want  model.Status
	}{
		{"below warning", 4.99, model.StatusOK},
		{"exactly warning", 5, model.StatusWarning},
		{"between", 6, model.StatusWarning},
		{"exactly critical", 8, model.StatusCritical},
		{"above critical", 10, model.StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := monitor.Classify([]monitor.MetricSeries{
				series("bounce_rate", "Bounce Rate", point(tt.value, now)),
			}, testThresholds)
			assert.Equal(t, tt.want, verdict.Status())
		})
	}
}

func TestClassify_ThresholdTagging(t *testing.T) {
	now := time.Now()

	critical := monitor.Classify([]monitor.MetricSeries{
		series("bounce_rate", "Bounce Rate", point(9, now)),
	}, testThresholds)
	assert.Equal(t, 8.0, critical.Critical[0].Threshold)

	warning := monitor.Classify([]monitor.MetricSeries{
		series("bounce_rate", "Bounce Rate", point(6, now)),
	}, testThresholds)
	assert.Equal(t, 5.0, warning.Warning[0].Threshold)

	ok := monitor.Classify([]monitor.MetricSeries{
		series("bounce_rate", "Bounce Rate", point(1, now)),
	}, testThresholds)
	assert.Equal(t, 5.0, ok.OK[0].Threshold)
}

func TestClassify_LatestPointWins(t *testing.T) {
	now := time.Now()
	verdict := monitor.Classify([]monitor.MetricSeries{
		// Newest sample arrives first; classification must still use it.
		series("bounce_rate", "Bounce Rate",
			point(9, now),
			point(1, now.Add(-15*time.Minute)),
			point(2, now.Add(-30*time.Minute)),
		),
	}, testThresholds)

	assert.Len(t, verdict.Critical, 1)
	assert.InDelta(t, 9.0, verdict.Critical[0].Value, 0.001)
	assert.Equal(t, model.ISOTimestamp(now), verdict.Critical[0].Timestamp)
}

func TestClassify_ExcludesEmptyAndUnconfigured(t *testing.T) {
	now := time.Now()
	verdict := monitor.Classify([]monitor.MetricSeries{
		series("bounce_rate", "Bounce Rate"),
		series("delivery_rate", "Delivery Rate", point(99, now)),
	}, testThresholds)

	assert.True(t, verdict.Empty())
	assert.Equal(t, model.StatusOK, verdict.Status())
}

func TestClassify_DangerOrder(t *testing.T) {
	now := time.Now()
	verdict := monitor.Classify([]monitor.MetricSeries{
		series("complaint_rate", "Complaint Rate", point(0.02, now)),
		series("bounce_rate", "Bounce Rate", point(9, now)),
	}, testThresholds)

	danger := verdict.Danger()
	assert.Len(t, danger, 2)
	assert.Equal(t, "Bounce Rate", danger[0].Label)
	assert.Equal(t, "Complaint Rate", danger[1].Label)
}
