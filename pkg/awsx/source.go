package awsx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/ses"

	"github.com/mailops/ses-guardian/pkg/monitor"
)

// The two reputation metrics tracked for an SES account.
const (
	MetricBounceRate    = "bounce_rate"
	MetricComplaintRate = "complaint_rate"
)

// Source implements monitor.MetricsSource over SES (sending counters) and
// CloudWatch (reputation series).
type Source struct {
	ses    SESAPI
	cw     CloudWatchAPI
	logger *slog.Logger
}

// NewSource creates a metrics source from the two AWS clients.
func NewSource(sesClient SESAPI, cwClient CloudWatchAPI, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{ses: sesClient, cw: cwClient, logger: logger.With("component", "aws_metrics")}
}

// SendingStats fetches the account's 24-hour sending counters.
func (s *Source) SendingStats(ctx context.Context) (monitor.SendingStats, error) {
	s.logger.Debug("fetching SES send quota")

	out, err := s.ses.GetSendQuota(ctx, &ses.GetSendQuotaInput{})
	if err != nil {
		return monitor.SendingStats{}, fmt.Errorf("get send quota: %w", err)
	}

	return monitor.SendingStats{
		Volume:    out.SentLast24Hours,
		MaxVolume: out.Max24HourSend,
	}, nil
}

// ReputationSeries fetches the bounce-rate and complaint-rate series for the
// window. CloudWatch reports the rates as 0–1 fractions; they are converted
// to the 0–100 percent scale here so the core sees a single convention.
func (s *Source) ReputationSeries(ctx context.Context, start, end time.Time, period time.Duration) ([]monitor.MetricSeries, error) {
	s.logger.Debug("fetching SES reputation metric data", "start", start, "end", end)

	out, err := s.cw.GetMetricData(ctx, reputationMetricInput(start, end, period))
	if err != nil {
		return nil, fmt.Errorf("get metric data: %w", err)
	}

	return convertMetricData(out.MetricDataResults), nil
}

// reputationMetricInput builds the GetMetricData request for the two fixed
// reputation metrics.
func reputationMetricInput(start, end time.Time, period time.Duration) *cloudwatch.GetMetricDataInput {
	periodSec := int32(period / time.Second)

	query := func(id, label, metricName string) cwtypes.MetricDataQuery {
		return cwtypes.MetricDataQuery{
			Id:    aws.String(id),
			Label: aws.String(label),
			MetricStat: &cwtypes.MetricStat{
				Metric: &cwtypes.Metric{
					Namespace:  aws.String("AWS/SES"),
					MetricName: aws.String(metricName),
				},
				Period: aws.Int32(periodSec),
				Stat:   aws.String("Average"),
			},
			ReturnData: aws.Bool(true),
		}
	}

	return &cloudwatch.GetMetricDataInput{
		StartTime: aws.Time(start),
		EndTime:   aws.Time(end),
		MetricDataQueries: []cwtypes.MetricDataQuery{
			query(MetricBounceRate, "Bounce Rate", "Reputation.BounceRate"),
			query(MetricComplaintRate, "Complaint Rate", "Reputation.ComplaintRate"),
		},
	}
}

// convertMetricData maps CloudWatch results onto the monitor's series type,
// scaling fraction rates to percentages.
func convertMetricData(results []cwtypes.MetricDataResult) []monitor.MetricSeries {
	series := make([]monitor.MetricSeries, 0, len(results))
	for _, r := range results {
		s := monitor.MetricSeries{
			ID:    aws.ToString(r.Id),
			Label: aws.ToString(r.Label),
		}
		for i, ts := range r.Timestamps {
			if i >= len(r.Values) {
				break
			}
			s.Points = append(s.Points, monitor.SeriesPoint{
				Timestamp: ts,
				Value:     r.Values[i] * 100,
			})
		}
		series = append(series, s)
	}
	return series
}
