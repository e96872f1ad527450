// Package webhook publishes transfer completion events as JSON HTTP POSTs.
// 5xx responses and network errors are retried with exponential backoff.
//
// With a Secret configured, each request carries
//
//	X-Sigbench-Signature: sha256=<hex HMAC-SHA256 of the body>
//
// so receivers can authenticate the event.
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

	"github.com/pithecene-io/sigbench/adapter"
	"github.com/pithecene-io/sigbench/iox"
)

// Webhook defaults and header names.
const (
	DefaultTimeout = 10 * time.Second
	DefaultRetries = 3

	// EventHeader names the event type of the request body.
	EventHeader = "X-Sigbench-Event"
	// SignatureHeader carries the HMAC of the request body.
	SignatureHeader = "X-Sigbench-Signature"
)

// Config configures the webhook adapter.
type Config struct {
	// URL is the HTTP endpoint to POST to (required).
	URL string
	// Headers are custom HTTP headers added to each request.
	Headers map[string]string
	// Timeout is the per-request timeout (default 10s).
	Timeout time.Duration
	// Retries is the number of retry attempts on failure.
	Retries int
	// Backoff is the initial retry delay (default adapter.DefaultBackoff).
	Backoff time.Duration
	// Secret keys the body signature header. Empty sends no signature.
	Secret string
}

// Sign returns the SignatureHeader value for body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Adapter publishes events via HTTP POST.
type Adapter struct {
	config Config
	client *http.Client
}

// New creates a webhook adapter from the given config.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook adapter requires a URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}

	return &Adapter{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Publish sends the event as a JSON POST request. 4xx responses fail
// immediately.
func (a *Adapter) Publish(ctx context.Context, event *adapter.TransferCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	policy := adapter.RetryPolicy{
		Retries:   a.config.Retries,
		Backoff:   a.config.Backoff,
		Permanent: isClientError,
	}
	return adapter.Retry(ctx, "webhook", policy, func(ctx context.Context) error {
		return a.doRequest(ctx, body)
	})
}

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

func isClientError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code >= 400 && statusErr.Code < 500
}

func (a *Adapter) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	h := req.Header
	h.Set("Content-Type", "application/json")
	h.Set(EventHeader, adapter.EventTypeTransferCompleted)
	for k, v := range a.config.Headers {
		h.Set(k, v)
	}
	if a.config.Secret != "" {
		h.Set(SignatureHeader, Sign(a.config.Secret, body))
	}
	return req, nil
}

// doRequest posts body once. Any non-2xx status is a *StatusError.
func (a *Adapter) doRequest(ctx context.Context, body []byte) error {
	req, err := a.newRequest(ctx, body)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer iox.DiscardClose(resp.Body)
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// Close releases adapter resources.
func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

var _ adapter.Adapter = (*Adapter)(nil)
