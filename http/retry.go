package http

import (
	"context"
	"errors"
	"time"

	"github.com/fwojciec/dockb"
)

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// retry runs fn until it succeeds, fails permanently, or delays run out.
// Only transient *dockb.FetchError failures are retried. hook is called
// with the upcoming attempt number (starting at 2) before each wait.
func retry(ctx context.Context, delays []time.Duration, hook func(attempt int, err error), fn func() error) error {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var fetchErr *dockb.FetchError
		if !errors.As(err, &fetchErr) || !fetchErr.Transient() {
			return err
		}

		// Don't retry after the last attempt
		if attempt >= maxAttempts-1 {
			break
		}

		// A spent deadline makes further attempts pointless.
		if ctx.Err() != nil {
			return lastErr
		}

		hook(attempt+2, err)

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delays[attempt]):
		}
	}

	return lastErr
}
