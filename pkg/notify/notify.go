// Package notify holds the outbound notification layer: per-backend payload
// builders, FIFO queues of pending events, and the delivery engine that
// drains them against PagerDuty and Slack.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Outcome pairs one delivered (or echoed, under dry run) payload with the
// raw transport result. Partial failure is data, not an exception: Send
// always returns every outcome and leaves success classification to the
// caller.
type Outcome struct {
	// Identifier names the item: event-class + action for PagerDuty,
	// channel name for Slack.
	Identifier string `json:"identifier"`

	// StatusCode and Body hold the transport response when a live call was
	// made and reached the backend.
	StatusCode int    `json:"status_code,omitempty"`
	Body       string `json:"body,omitempty"`

	// Err holds a transport-level failure (connection refused, timeout).
	Err error `json:"-"`

	// DryRun marks an echoed outcome; Payload carries the request that
	// would have been sent.
	DryRun  bool `json:"dry_run,omitempty"`
	Payload any  `json:"payload,omitempty"`
}

const defaultHTTPTimeout = 10 * time.Second

// postJSON performs one outbound call and captures the response as data.
func postJSON(ctx context.Context, client *http.Client, url string, payload any) (int, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("post payload: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, string(respBody), nil
}

func logOutcome(logger *slog.Logger, backend string, o Outcome) {
	if o.Err != nil {
		logger.Error("notification failed", "backend", backend, "identifier", o.Identifier, "error", o.Err)
		return
	}
	logger.Debug("notification sent", "backend", backend, "identifier", o.Identifier, "status", o.StatusCode, "dry_run", o.DryRun)
}
