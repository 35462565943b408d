package retry

import (
	"context"
	stderrors "errors"
	"time"

	derrors "git.home.luguber.info/inful/tailzen/internal/foundation/errors"
)

// Outcome describes how a Do loop finished.
type Outcome struct {
	Attempts int
	Err      error
}

// Notify is called before each backoff wait with the attempt that just failed.
type Notify func(attempt int, delay time.Duration, err error)

// Retryable reports whether err may succeed on a later attempt. Classified
// errors decide through their retry strategy; rate limits, not-found and
// validation failures are permanent. Context errors are never retried and
// unclassified errors are assumed transient.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if ce, ok := derrors.AsClassified(err); ok {
		return ce.IsTransient()
	}
	return true
}

// Do calls fn until it succeeds, returns a non-retryable error, or the policy's
// attempts are spent. The context is checked before every attempt and during
// each wait; on cancellation the returned error is the context error.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error), notify Notify) (T, Outcome) {
	var zero T
	out := Outcome{}
	for attempt := 1; attempt <= p.Attempts(); attempt++ {
		if err := ctx.Err(); err != nil {
			out.Err = err
			return zero, out
		}
		out.Attempts = attempt
		v, err := fn(ctx, attempt)
		if err == nil {
			out.Err = nil
			return v, out
		}
		out.Err = err
		if !Retryable(err) || attempt == p.Attempts() {
			return zero, out
		}
		delay := p.Delay(attempt)
		if notify != nil {
			notify(attempt, delay, err)
		}
		if werr := wait(ctx, delay); werr != nil {
			out.Err = werr
			return zero, out
		}
	}
	return zero, out
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
