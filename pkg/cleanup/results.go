package cleanup

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/lakecleaner/pkg/task"
)

// DefaultResultCapacity bounds a ResultLog created with a non-positive size.
const DefaultResultCapacity = 1024

// Result is what a handled task left behind.
type Result struct {
	TaskID     string
	Table      string
	Outcomes   []Outcome
	Summary    Summary
	FinishedAt time.Time
}

// ResultLog keeps the most recent task results in memory, evicting the
// oldest once full. Pass its Record method to WithResultHook.
type ResultLog struct {
	mu       sync.Mutex
	capacity int
	order    []string
	results  map[string]Result
}

// NewResultLog creates a log holding at most capacity results.
func NewResultLog(capacity int) *ResultLog {
	if capacity <= 0 {
		capacity = DefaultResultCapacity
	}
	return &ResultLog{
		capacity: capacity,
		results:  make(map[string]Result, capacity),
	}
}

// NewResult builds the Result of one run of t.
func NewResult(t *task.Task, outcomes []Outcome, summary Summary) Result {
	res := Result{
		TaskID:     t.ID,
		Outcomes:   append([]Outcome(nil), outcomes...),
		Summary:    summary,
		FinishedAt: time.Now().UTC(),
	}
	if payload, err := DecodeTask(t); err == nil {
		res.Table = payload.TableIdentifier.String()
	}
	return res
}

// Record stores the result of t, replacing an earlier run of the same task.
func (l *ResultLog) Record(t *task.Task, outcomes []Outcome, summary Summary) {
	if t == nil {
		return
	}
	l.put(NewResult(t, outcomes, summary))
}

func (l *ResultLog) put(res Result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.results[res.TaskID]; !ok {
		if len(l.order) == l.capacity {
			delete(l.results, l.order[0])
			l.order = l.order[1:]
		}
		l.order = append(l.order, res.TaskID)
	}
	l.results[res.TaskID] = res
}

// Get returns the latest result recorded for taskID.
func (l *ResultLog) Get(taskID string) (Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, ok := l.results[taskID]
	return res, ok
}

// Len returns the number of results held.
func (l *ResultLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.results)
}

type resultSinkKey struct{}

// WithResultSink returns a context under which Handle passes the result of
// the run to fn before returning. fn runs on the caller's goroutine, so a
// caller can read what it captured once Handle returns.
func WithResultSink(ctx context.Context, fn func(Result)) context.Context {
	return context.WithValue(ctx, resultSinkKey{}, fn)
}

func resultSink(ctx context.Context) func(Result) {
	fn, _ := ctx.Value(resultSinkKey{}).(func(Result))
	return fn
}
