package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/lakecleaner/internal/logger"
	"github.com/marmos91/lakecleaner/internal/telemetry"
)

var (
	// ErrNoHandler is returned when no registered handler accepts a task.
	ErrNoHandler = errors.New("no handler accepts task")

	// ErrHandlerPanic wraps a panic raised inside a handler.
	ErrHandlerPanic = errors.New("task handler panicked")
)

// Dispatcher routes tasks to the first registered handler that accepts them.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewDispatcher creates a dispatcher with the given handlers, tried in order.
func NewDispatcher(handlers ...Handler) *Dispatcher {
	return &Dispatcher{handlers: append([]Handler(nil), handlers...)}
}

// Register appends a handler.
func (d *Dispatcher) Register(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Lookup returns the first handler whose CanHandle accepts t.
func (d *Dispatcher) Lookup(t *Task) (Handler, bool) {
	if t == nil {
		return nil, false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, h := range d.handlers {
		if safeCanHandle(h, t) {
			return h, true
		}
	}
	return nil, false
}

// Dispatch hands t to the accepting handler and returns its verdict.
func (d *Dispatcher) Dispatch(ctx context.Context, t *Task) (handled bool, err error) {
	h, ok := d.Lookup(t)
	if !ok {
		kind := Kind("")
		if t != nil {
			kind = t.Kind
		}
		logger.Warn("No handler for task", logger.KeyTaskKind, kind)
		return false, fmt.Errorf("%w: kind %q", ErrNoHandler, kind)
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanTaskDispatch)
	span.SetAttributes(telemetry.TaskID(t.ID), telemetry.TaskKind(t.Kind.String()))
	defer span.End()

	lc := logger.NewLogContext(t.ID, t.Kind.String()).
		WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	ctx = logger.WithContext(ctx, lc)

	name := handlerName(h)
	logger.DebugCtx(ctx, "Dispatching task", logger.KeyHandler, name)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			handled = false
			err = fmt.Errorf("%w: %s: %v", ErrHandlerPanic, name, r)
			telemetry.RecordError(ctx, err)
			logger.ErrorCtx(ctx, "Task handler panicked", logger.KeyHandler, name, logger.KeyError, r)
		}
	}()

	handled, err = h.Handle(ctx, t)
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "Task failed",
			logger.KeyHandler, name,
			logger.KeyError, err,
			logger.KeyDurationMs, logger.Duration(start))
		return false, err
	}

	logger.InfoCtx(ctx, "Task finished",
		logger.KeyHandler, name,
		logger.KeyHandled, handled,
		logger.KeyDurationMs, logger.Duration(start))
	return handled, nil
}

func safeCanHandle(h Handler, t *Task) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return h.CanHandle(t)
}
