package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy bounds a retried operation. Attempts is the total attempt budget
// (not the number of re-tries): Attempts=3 means the operation runs at most
// three times. Zero-valued fields fall back to defaults in Do.
type Policy struct {
	Attempts  int
	Backoff   func(attempt int) time.Duration
	Retryable func(error) bool
	Sleep     func(ctx context.Context, d time.Duration) error
}

// Exponential returns a backoff of unit*2^attempt: with a one-second unit the
// waits after attempts 1, 2, 3 are 2s, 4s, 8s.
func Exponential(unit time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt > 16 {
			attempt = 16
		}
		return unit << uint(attempt)
	}
}

// Sleep waits for d unless the context ends first. It is the default Policy
// sleeper and is shared by other rate-limited loops.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs fn until it succeeds, the attempt budget is spent, the error is not
// retryable, or the context ends. The last error is returned wrapped with the
// attempt count; unwrapping reaches the original.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.Backoff == nil {
		p.Backoff = Exponential(time.Second)
	}
	if p.Retryable == nil {
		p.Retryable = func(error) bool { return true }
	}
	if p.Sleep == nil {
		p.Sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.Attempts {
			break
		}
		if err := p.Sleep(ctx, p.Backoff(attempt)); err != nil {
			return err
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", p.Attempts, lastErr)
}
