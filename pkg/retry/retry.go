package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrExhausted is wrapped by the error returned when every attempt failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Operation is one attempt. attempt starts at 1.
type Operation func(ctx context.Context, attempt int) error

// Notify is called after a failed attempt that will be retried after next.
type Notify func(attempt int, err error, next time.Duration)

// Result reports how an operation ended.
type Result struct {
	Attempts int
	Err      error
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, returns a permanent error, or MaxAttempts is
// reached. Attempts never overlap. Cancelling ctx stops further attempts but
// never interrupts one in flight.
func Do(ctx context.Context, p Policy, op Operation, notify Notify) Result {
	p = p.withDefaults()
	b := p.NewBackOff()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := op(ctx, attempt)
		if err == nil {
			return Result{Attempts: attempt}
		}

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return Result{Attempts: attempt, Err: permanent.Unwrap()}
		}

		lastErr = err
		if attempt == p.MaxAttempts {
			break
		}

		next := b.NextBackOff()
		if notify != nil {
			notify(attempt, err, next)
		}

		if waitErr := sleep(ctx, next); waitErr != nil {
			return Result{
				Attempts: attempt,
				Err:      fmt.Errorf("retry aborted after attempt %d: %w (last error: %w)", attempt, waitErr, lastErr),
			}
		}
	}

	return Result{
		Attempts: p.MaxAttempts,
		Err:      fmt.Errorf("%w after %d attempts: %w", ErrExhausted, p.MaxAttempts, lastErr),
	}
}

func sleep(ctx context.Context, d time.Duration) error {
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
