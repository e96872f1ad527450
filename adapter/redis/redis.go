// Package redis publishes transfer completion events as JSON to a Redis
// pub/sub channel, retrying with exponential backoff. Optionally the most
// recent events are also kept in a capped list for late subscribers.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pithecene-io/sigbench/adapter"
)

// Adapter defaults.
const (
	DefaultChannel    = "sigbench:transfer_completed"
	DefaultTimeout    = 5 * time.Second
	DefaultRetries    = 3
	DefaultHistoryLen = 1000
)

// Config configures the Redis pub/sub adapter.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// Channel is the pub/sub channel name (default: sigbench:transfer_completed).
	Channel string
	// Timeout is the per-publish timeout (default 5s).
	Timeout time.Duration
	// Retries is the number of retry attempts on failure.
	Retries int
	// Backoff is the initial retry delay (default adapter.DefaultBackoff).
	Backoff time.Duration
	// HistoryKey is a list that receives every event, newest first. Empty
	// disables history.
	HistoryKey string
	// HistoryLen caps the history list (default DefaultHistoryLen).
	HistoryLen int64
}

// Adapter publishes events via Redis PUBLISH.
type Adapter struct {
	config Config
	client *goredis.Client
}

// New creates a Redis pub/sub adapter from the given config.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis adapter requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis adapter: invalid URL: %w", err)
	}

	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	if cfg.HistoryLen <= 0 {
		cfg.HistoryLen = DefaultHistoryLen
	}

	return &Adapter{
		config: cfg,
		client: goredis.NewClient(opts),
	}, nil
}

// Publish sends the event as JSON to the configured channel.
func (a *Adapter) Publish(ctx context.Context, event *adapter.TransferCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}

	policy := adapter.RetryPolicy{Retries: a.config.Retries, Backoff: a.config.Backoff}
	return adapter.Retry(ctx, "redis", policy, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
		return a.send(ctx, body)
	})
}

// send publishes body once. With history enabled the list push, trim and
// publish go out in one pipeline.
func (a *Adapter) send(ctx context.Context, body []byte) error {
	cfg := a.config
	if cfg.HistoryKey == "" {
		return a.client.Publish(ctx, cfg.Channel, body).Err()
	}
	_, err := a.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.LPush(ctx, cfg.HistoryKey, body)
		pipe.LTrim(ctx, cfg.HistoryKey, 0, cfg.HistoryLen-1)
		pipe.Publish(ctx, cfg.Channel, body)
		return nil
	})
	return err
}

// Close releases adapter resources.
func (a *Adapter) Close() error {
	return a.client.Close()
}

var _ adapter.Adapter = (*Adapter)(nil)
