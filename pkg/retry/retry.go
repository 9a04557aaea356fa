package retry

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"
)

// BackoffFunc returns how long to sleep after a failed attempt.
// attempt starts at 1.
type BackoffFunc func(attempt int) time.Duration

// Linear grows the delay by step with every attempt: step, 2*step, 3*step.
func Linear(step time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// None disables sleeping between attempts. Used in tests.
func None() BackoffFunc {
	return func(int) time.Duration { return 0 }
}

// Do runs fn up to maxAttempts times. A failed attempt is retried only when
// retriable reports the error as transient; otherwise the error is returned
// as-is. The last error is returned when all attempts are exhausted.
func Do(ctx context.Context, maxAttempts int, backoff BackoffFunc, retriable func(error) bool, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retriable(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}

		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// IsNetworkError reports whether err is a network-level failure (timeout,
// connection refused/reset, DNS) as opposed to a response the remote side
// actually produced. Remote-reported statuses are never retriable: repeating
// an identical rejected request wastes quota without changing the outcome.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}
