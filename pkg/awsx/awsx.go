// Package awsx wraps the AWS collaborators: SES for sending counters and
// the account-sending toggle, CloudWatch for reputation metric series. The
// wrappers are deliberately thin; all decision logic lives in pkg/monitor.
package awsx

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// SESAPI is the subset of the SES client used by this package.
type SESAPI interface {
	GetSendQuota(ctx context.Context, params *ses.GetSendQuotaInput, optFns ...func(*ses.Options)) (*ses.GetSendQuotaOutput, error)
	GetAccountSendingEnabled(ctx context.Context, params *ses.GetAccountSendingEnabledInput, optFns ...func(*ses.Options)) (*ses.GetAccountSendingEnabledOutput, error)
	UpdateAccountSendingEnabled(ctx context.Context, params *ses.UpdateAccountSendingEnabledInput, optFns ...func(*ses.Options)) (*ses.UpdateAccountSendingEnabledOutput, error)
}

// CloudWatchAPI is the subset of the CloudWatch client used by this package.
type CloudWatchAPI interface {
	GetMetricData(ctx context.Context, params *cloudwatch.GetMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error)
}

// NewClients builds SES and CloudWatch clients from the default AWS
// credential chain (environment, shared config, IAM role).
func NewClients(ctx context.Context, region string) (*ses.Client, *cloudwatch.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("load AWS config: %w", err)
	}

	return ses.NewFromConfig(cfg), cloudwatch.NewFromConfig(cfg), nil
}
