package adapter

import (
	"context"
	"fmt"
	"time"
)

// DefaultBackoff is the delay before the first retry. Each later retry
// doubles it.
const DefaultBackoff = 500 * time.Millisecond

// RetryPolicy controls Retry.
type RetryPolicy struct {
	// Retries is the number of attempts after the first.
	Retries int
	// Backoff is the initial delay; zero means DefaultBackoff.
	Backoff time.Duration
	// Permanent reports errors that must not be retried. Optional.
	Permanent func(error) bool
}

// Retry calls fn until it succeeds, the attempts are exhausted, fn fails
// permanently or ctx is done. name prefixes returned errors.
func Retry(ctx context.Context, name string, policy RetryPolicy, fn func(context.Context) error) error {
	backoff := policy.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	attempts := 1 + policy.Retries

	var lastErr error
	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: context canceled: %w", name, err)
		}

		// Exponential backoff before retries (not before first attempt)
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: context canceled during backoff: %w", name, ctx.Err())
			case <-time.After(backoff << uint(i-1)):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if policy.Permanent != nil && policy.Permanent(lastErr) {
			return fmt.Errorf("%s: non-retriable error: %w", name, lastErr)
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", name, attempts, lastErr)
}
