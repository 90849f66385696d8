// Package messenger delivers rendered article messages to the configured
// chat endpoint.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Channel is the delivery collaborator the dispatcher talks to.
type Channel interface {
	Deliver(ctx context.Context, text string) error
}

// StatusError reports a non-2xx response from the webhook endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.Code)
}

// IsRetryable reports whether a delivery error is worth retrying. Client
// errors other than 429 are permanent (bad payload, revoked webhook);
// everything else (network failures, 5xx, rate limiting) is assumed
// transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Code == http.StatusTooManyRequests {
			return true
		}
		return statusErr.Code < 400 || statusErr.Code >= 500
	}
	return true
}

// Webhook posts messages as JSON to a single incoming-webhook URL.
type Webhook struct {
	url    string
	client *http.Client
	dryRun bool
	log    zerolog.Logger
}

var _ Channel = (*Webhook)(nil)

// NewWebhook builds a webhook channel. The http.Client is shared across
// every dispatcher in the process; pass nil for a default with a timeout.
func NewWebhook(url string, client *http.Client, log zerolog.Logger) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Webhook{url: url, client: client, log: log}
}

// NewDryRun builds a channel that logs each message and reports success
// without any network call.
func NewDryRun(log zerolog.Logger) *Webhook {
	return &Webhook{dryRun: true, log: log}
}

// Deliver implements Channel.
func (w *Webhook) Deliver(ctx context.Context, text string) error {
	if w.dryRun {
		w.log.Info().Str("text", text).Msg("dry-run: message not sent")
		return nil
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}
