// Package webhook notifies an HTTP endpoint when a billing run completes.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/schema"
)

// Format selects the webhook payload format.
type Format string

const (
	// FormatGeneric posts the run summary document as is.
	FormatGeneric Format = "generic"
	// FormatChat posts a {"text": ...} message for chat incoming webhooks.
	FormatChat Format = "chat"
)

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-Webhook-Signature"

// Exporter delivers run summaries to an HTTP webhook endpoint.
type Exporter struct {
	URL       string
	Secret    string
	Format    Format
	TimeoutMS int
	MaxRetry  int
	// Backoff is the delay before the first retry; it doubles per attempt.
	Backoff time.Duration
	client  *http.Client
}

// New creates a webhook exporter with sensible defaults.
func New(url, secret string, format Format, timeoutMS int) *Exporter {
	if timeoutMS <= 0 {
		timeoutMS = 5000
	}
	if format == "" {
		format = FormatGeneric
	}
	return &Exporter{
		URL:       url,
		Secret:    secret,
		Format:    format,
		TimeoutMS: timeoutMS,
		MaxRetry:  3,
		Backoff:   time.Second,
		client: &http.Client{
			Timeout: time.Duration(timeoutMS) * time.Millisecond,
		},
	}
}

// ParseFormat maps a flag value to a Format.
func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case "", FormatGeneric:
		return FormatGeneric, nil
	case FormatChat:
		return FormatChat, nil
	default:
		return "", fmt.Errorf("unsupported webhook format %q (expected generic or chat)", value)
	}
}

// nonRetryableError wraps errors that should not be retried (e.g., 4xx).
type nonRetryableError struct{ err error }

func (e *nonRetryableError) Error() string { return e.err.Error() }
func (e *nonRetryableError) Unwrap() error { return e.err }

// Send delivers one run summary to the webhook endpoint.
func (e *Exporter) Send(ctx context.Context, summary schema.RunSummary) error {
	payload, contentType, err := e.buildPayload(summary)
	if err != nil {
		return fmt.Errorf("build webhook payload: %w", err)
	}

	attempts := e.MaxRetry
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := e.Backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return fmt.Errorf("webhook delivery cancelled: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		lastErr = e.doPost(ctx, payload, contentType)
		if lastErr == nil {
			return nil
		}
		var permanent *nonRetryableError
		if errors.As(lastErr, &permanent) {
			return lastErr
		}
	}
	return fmt.Errorf("webhook delivery failed after %d attempts: %w", attempts, lastErr)
}

func (e *Exporter) buildPayload(summary schema.RunSummary) ([]byte, string, error) {
	switch e.Format {
	case FormatChat:
		return BuildChatPayload(summary)
	default:
		data, err := json.Marshal(summary)
		return data, "application/json", err
	}
}

func (e *Exporter) doPost(ctx context.Context, payload []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(payload))
	if err != nil {
		return &nonRetryableError{err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", "sla-bill-toolkit/webhook")

	if e.Secret != "" {
		req.Header.Set(SignatureHeader, computeHMAC(payload, e.Secret))
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("drain response body: %w", err)
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error: HTTP %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return &nonRetryableError{err: fmt.Errorf("client error: HTTP %d", resp.StatusCode)}
	}
	return nil
}

func computeHMAC(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC checks an HMAC-SHA256 signature against a payload and secret.
func VerifyHMAC(payload []byte, secret, signature string) bool {
	expected := computeHMAC(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
