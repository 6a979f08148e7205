// Package cleanup implements the TABLE_CONTENT_CLEANUP task handler, which
// deletes obsolete table files with bounded retries on a shared worker pool.
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
	"github.com/marmos91/lakecleaner/pkg/task"
)

// ErrResolveFailed wraps errors from the storage resolver. It is the only
// failure Handle returns as an error.
var ErrResolveFailed = errors.New("failed to resolve file capability")

// Handler deletes the files listed in content cleanup tasks.
type Handler struct {
	resolver storage.Resolver
	batch    *Batch
	policy   retry.Policy
	metrics  Metrics

	// onResult, if set, receives every task's outcomes after aggregation.
	onResult func(t *task.Task, outcomes []Outcome, summary Summary)
}

// Option configures a Handler.
type Option func(*Handler)

// WithRetryPolicy overrides retry.DefaultPolicy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(h *Handler) { h.policy = p }
}

// WithMetrics enables metric collection.
func WithMetrics(m Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithResultHook registers fn to receive outcomes of each handled task.
func WithResultHook(fn func(t *task.Task, outcomes []Outcome, summary Summary)) Option {
	return func(h *Handler) { h.onResult = fn }
}

// NewHandler creates a handler resolving capabilities with resolver and
// running deletions on pool. pool is shared and never stopped by the handler.
func NewHandler(resolver storage.Resolver, pool Executor, opts ...Option) *Handler {
	h := &Handler{
		resolver: resolver,
		policy:   retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.batch = NewBatch(pool, h.policy, h.metrics)
	return h
}

// Name implements task.Named.
func (h *Handler) Name() string {
	return "table-content-cleanup"
}

// Policy returns the retry policy in use.
func (h *Handler) Policy() retry.Policy {
	return h.policy
}

// CanHandle reports whether t is a well-formed content cleanup task.
func (h *Handler) CanHandle(t *task.Task) bool {
	_, err := DecodeTask(t)
	return err == nil
}

// Handle deletes every path of t. It returns true when each path is absent
// or was deleted; partial failures return false so the task is rescheduled.
// The resolved capability is borrowed and never closed here.
func (h *Handler) Handle(ctx context.Context, t *task.Task) (bool, error) {
	start := time.Now()

	payload, err := DecodeTask(t)
	if err != nil {
		logger.WarnCtx(ctx, "Rejecting malformed cleanup task", logger.KeyError, err)
		return false, nil
	}

	table := payload.TableIdentifier.String()
	ctx, span := telemetry.StartTaskSpan(ctx, t.ID, table, len(payload.Paths))
	defer span.End()

	lc := logger.FromContext(ctx)
	if lc == nil {
		lc = logger.NewLogContext(t.ID, t.Kind.String())
	}
	ctx = logger.WithContext(ctx, lc.WithTable(table))

	fio, err := h.resolver.Resolve(ctx, t)
	if err == nil && fio == nil {
		err = errors.New("resolver returned no capability")
	}
	if err != nil {
		err = fmt.Errorf("%w for table %s: %w", ErrResolveFailed, table, err)
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "Cannot resolve file capability", logger.KeyError, err)
		observeTask(h.metrics, false, time.Since(start))
		return false, err
	}

	logger.InfoCtx(ctx, "Cleaning up table content",
		logger.KeyPaths, len(payload.Paths),
		logger.KeyStoreType, storage.TypeOf(fio))

	var outcomes []Outcome
	telemetry.ProfileTask(ctx, t.Kind.String(), func(ctx context.Context) {
		outcomes = h.batch.Run(ctx, fio, payload.Paths)
	})
	summary := Summarize(outcomes)

	for _, o := range Failures(outcomes) {
		logger.ErrorCtx(ctx, "Path not deleted",
			logger.KeyPath, o.Path,
			logger.KeyAttempt, o.Attempts,
			logger.KeyError, o.Err)
	}

	handled := summary.Handled()
	logArgs := []any{
		logger.KeyDeleted, summary.Deleted,
		logger.KeyAbsent, summary.Absent,
		logger.KeyFailed, summary.Failed,
		"attempts", summary.Attempts,
		logger.KeyHandled, handled,
		logger.KeyDurationMs, logger.Duration(start),
	}
	if handled {
		logger.InfoCtx(ctx, "Table content cleanup complete", logArgs...)
	} else {
		logger.WarnCtx(ctx, "Table content cleanup incomplete", logArgs...)
	}

	span.SetAttributes(telemetry.Succeeded(handled))
	observeTask(h.metrics, handled, time.Since(start))

	if h.onResult != nil {
		h.onResult(t, outcomes, summary)
	}
	if sink := resultSink(ctx); sink != nil {
		sink(NewResult(t, outcomes, summary))
	}
	return handled, nil
}

var _ task.Handler = (*Handler)(nil)
var _ task.Named = (*Handler)(nil)
