package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marmos91/lakecleaner/internal/logger"
	"github.com/marmos91/lakecleaner/internal/telemetry"
	"github.com/marmos91/lakecleaner/pkg/retry"
	"github.com/marmos91/lakecleaner/pkg/storage"
)

// deletePath removes one path with bounded retries.
//
// Each attempt re-checks existence first, so a path removed concurrently
// (or by a previous attempt whose response was lost) ends the unit
// successfully without another delete. An existence check error consumes
// a retry but is not a delete attempt. Errors that no retry can fix, such
// as storage.ErrInvalidPath, end the unit immediately.
func deletePath(ctx context.Context, fio storage.FileIO, path string, policy retry.Policy, metrics Metrics) Outcome {
	start := time.Now()
	ctx, span := telemetry.StartDeleteSpan(ctx, path, policy.MaxAttempts)
	defer span.End()

	deletes := 0

	op := func(ctx context.Context, attempt int) error {
		exists, err := fio.Exists(ctx, path)
		if err != nil {
			observeAttempt(metrics, err)
			err = fmt.Errorf("check existence: %w", err)
			if permanent(err) {
				return retry.Permanent(err)
			}
			return err
		}
		if !exists {
			if deletes == 0 {
				logger.DebugCtx(ctx, "Path already absent",
					logger.KeyPath, path,
					logger.KeyAttempt, attempt)
			} else {
				logger.InfoCtx(ctx, "Path gone before retry",
					logger.KeyPath, path,
					logger.KeyAttempt, attempt)
			}
			return nil
		}

		deletes++
		logger.DebugCtx(ctx, "Deleting path",
			logger.KeyPath, path,
			logger.KeyAttempt, deletes,
			logger.KeyMaxAttempts, policy.MaxAttempts)

		err = fio.Delete(ctx, path)
		observeAttempt(metrics, err)
		if err != nil {
			logger.WarnCtx(ctx, "Delete attempt failed",
				logger.KeyPath, path,
				logger.KeyAttempt, deletes,
				logger.KeyMaxAttempts, policy.MaxAttempts,
				logger.KeyError, err)
			if permanent(err) {
				return retry.Permanent(err)
			}
			return err
		}
		return nil
	}

	notify := func(attempt int, err error, next time.Duration) {
		telemetry.AddEvent(ctx, "retry", telemetry.Attempts(attempt))
		logger.InfoCtx(ctx, "Retrying delete",
			logger.KeyPath, path,
			logger.KeyAttempt, attempt+1,
			logger.KeyMaxAttempts, policy.MaxAttempts,
			logger.KeyBackoff, next)
	}

	res := retry.Do(ctx, policy, op, notify)

	out := Outcome{
		Path:      path,
		Attempts:  deletes,
		Succeeded: res.Err == nil,
		Absent:    res.Err == nil && deletes == 0,
		Err:       res.Err,
		Duration:  time.Since(start),
	}
	// An exhausted unit reports the full budget, even when some of it went
	// to failed existence checks.
	if errors.Is(res.Err, retry.ErrExhausted) {
		out.Attempts = res.Attempts
	}

	span.SetAttributes(telemetry.Attempts(out.Attempts), telemetry.Succeeded(out.Succeeded))
	if !out.Succeeded {
		telemetry.RecordError(ctx, out.Err)
		logger.ErrorCtx(ctx, "Giving up on path",
			logger.KeyPath, path,
			logger.KeyAttempt, out.Attempts,
			logger.KeyMaxAttempts, policy.MaxAttempts,
			logger.KeyError, out.Err)
	}

	return out
}

func permanent(err error) bool {
	return errors.Is(err, storage.ErrInvalidPath)
}
