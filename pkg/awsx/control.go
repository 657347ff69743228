package awsx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// Control implements monitor.AccountControl over the SES account-level
// sending switch.
type Control struct {
	ses    SESAPI
	logger *slog.Logger
}

// NewControl creates an account control from an SES client.
func NewControl(sesClient SESAPI, logger *slog.Logger) *Control {
	if logger == nil {
		logger = slog.Default()
	}
	return &Control{ses: sesClient, logger: logger.With("component", "aws_control")}
}

// SendingEnabled reports whether account sending is currently enabled.
func (c *Control) SendingEnabled(ctx context.Context) (bool, error) {
	out, err := c.ses.GetAccountSendingEnabled(ctx, &ses.GetAccountSendingEnabledInput{})
	if err != nil {
		return false, fmt.Errorf("get account sending state: %w", err)
	}
	return out.Enabled, nil
}

// EnableSending turns account sending on.
func (c *Control) EnableSending(ctx context.Context) error {
	c.logger.Info("enabling SES account sending")
	if _, err := c.ses.UpdateAccountSendingEnabled(ctx, &ses.UpdateAccountSendingEnabledInput{Enabled: true}); err != nil {
		return fmt.Errorf("enable account sending: %w", err)
	}
	return nil
}

// DisableSending turns account sending off.
func (c *Control) DisableSending(ctx context.Context) error {
	c.logger.Info("disabling SES account sending")
	if _, err := c.ses.UpdateAccountSendingEnabled(ctx, &ses.UpdateAccountSendingEnabledInput{Enabled: false}); err != nil {
		return fmt.Errorf("disable account sending: %w", err)
	}
	return nil
}
