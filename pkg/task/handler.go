package task

import "context"

// Handler processes tasks of the kinds it recognises.
//
// CanHandle must never panic and must not perform I/O. Handle returns true
// when the task was fully handled and can be retired; false asks the framework
// to reschedule it. A non-nil error reports a fatal condition the handler
// could not absorb.
type Handler interface {
	CanHandle(t *Task) bool
	Handle(ctx context.Context, t *Task) (bool, error)
}

// Named is implemented by handlers that want a stable name in logs.
type Named interface {
	Name() string
}

func handlerName(h Handler) string {
	if n, ok := h.(Named); ok {
		return n.Name()
	}
	return "unnamed"
}
