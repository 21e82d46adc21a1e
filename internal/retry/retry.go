// Package retry provides a bounded retry executor with exponential backoff.
package retry

import (
	"context"
	"time"
)

// Default retry budget shared by the audio acquisition paths.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// Options configures a retry run.
//
// Every error is currently treated as retryable. Callers that need to bail
// out early on permanent failures can wrap their operation and return the
// error through a sentinel they check after Do returns.
type Options struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int

	// BaseDelay is the wait after the first failure. The wait doubles on
	// each subsequent failure: base, 2*base, 4*base, ...
	BaseDelay time.Duration

	// OnRetry, if set, is invoked after attempt k fails (k < MaxAttempts)
	// and before the backoff wait. Attempts are numbered from 1.
	OnRetry func(attempt int, err error)

	// Sleep overrides the backoff wait. Tests use this to observe delays
	// without actually sleeping.
	Sleep func(d time.Duration)
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	return o
}

// Do invokes op up to MaxAttempts times, backing off exponentially between
// failures. On success the result is returned immediately. When the final
// attempt fails its error is returned unchanged, with no trailing wait.
// A cancelled context aborts the backoff wait and returns the context error.
func Do[T any](ctx context.Context, op func() (T, error), opts Options) (T, error) {
	opts = opts.withDefaults()

	var zero T
	var lastErr error

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == opts.MaxAttempts {
			break
		}

		if opts.OnRetry != nil {
			opts.OnRetry(attempt, err)
		}

		delay := opts.BaseDelay << (attempt - 1)
		if opts.Sleep != nil {
			opts.Sleep(delay)
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, lastErr
}
