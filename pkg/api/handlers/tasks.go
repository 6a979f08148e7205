package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/lakecleaner/internal/logger"
	"github.com/marmos91/lakecleaner/pkg/cleanup"
	"github.com/marmos91/lakecleaner/pkg/task"
)

// maxTaskBody bounds the size of a submitted task record.
const maxTaskBody = 16 << 20

// TaskHandler accepts task records and runs them through the dispatcher.
type TaskHandler struct {
	dispatcher *task.Dispatcher
	results    *cleanup.ResultLog
}

// NewTaskHandler creates a task handler. results may be nil.
func NewTaskHandler(dispatcher *task.Dispatcher, results *cleanup.ResultLog) *TaskHandler {
	return &TaskHandler{dispatcher: dispatcher, results: results}
}

// OutcomeView is the JSON form of a cleanup.Outcome.
type OutcomeView struct {
	Path       string `json:"path"`
	Attempts   int    `json:"attempts"`
	Succeeded  bool   `json:"succeeded"`
	Absent     bool   `json:"absent,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// TaskResponse is the payload returned for a dispatched task.
type TaskResponse struct {
	TaskID     string           `json:"task_id"`
	Kind       string           `json:"kind,omitempty"`
	Handled    bool             `json:"handled"`
	Table      string           `json:"table,omitempty"`
	Summary    *cleanup.Summary `json:"summary,omitempty"`
	Outcomes   []OutcomeView    `json:"outcomes,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

// Submit handles POST /api/v1/tasks.
//
// The task runs synchronously. Responses:
//   - 200 when every path is gone
//   - 409 when some paths remain and the task should be retried
//   - 400 when the body is not a task record
//   - 422 when no handler accepts the task
//   - 500 when the task failed fatally (e.g. storage could not be resolved)
func (h *TaskHandler) Submit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTaskBody))
	if err != nil {
		BadRequest(w, "Failed to read request body")
		return
	}

	t, err := task.Parse(body)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	// The shared log may already hold a later run of the same task ID, so
	// the response is built from this run's own result.
	var run *cleanup.Result
	ctx := cleanup.WithResultSink(r.Context(), func(res cleanup.Result) { run = &res })

	handled, err := h.dispatcher.Dispatch(ctx, t)
	if err != nil {
		if errors.Is(err, task.ErrNoHandler) {
			UnprocessableEntity(w, err.Error())
			return
		}
		logger.ErrorCtx(r.Context(), "Task dispatch failed", logger.TaskID(t.ID), logger.Err(err))
		InternalServerError(w, err.Error())
		return
	}

	resp := TaskResponse{TaskID: t.ID, Kind: t.Kind.String(), Handled: handled}
	if run != nil {
		resp = view(*run, resp)
	}

	if handled {
		writeJSON(w, http.StatusOK, newResponse("ok", resp))
		return
	}
	writeJSON(w, http.StatusConflict, newResponse("incomplete", resp))
}

// Get handles GET /api/v1/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.results == nil {
		NotFound(w, "Task results are not recorded")
		return
	}

	res, ok := h.results.Get(id)
	if !ok {
		NotFound(w, "No result recorded for task "+id)
		return
	}

	resp := TaskResponse{TaskID: id, Handled: res.Summary.Handled()}
	writeJSON(w, http.StatusOK, newResponse("ok", view(res, resp)))
}

// view fills resp with the table, summary and outcomes of res.
func view(res cleanup.Result, resp TaskResponse) TaskResponse {
	summary := res.Summary
	finished := res.FinishedAt
	resp.Table = res.Table
	resp.Summary = &summary
	resp.FinishedAt = &finished
	resp.Outcomes = make([]OutcomeView, 0, len(res.Outcomes))
	for _, o := range res.Outcomes {
		v := OutcomeView{
			Path:       o.Path,
			Attempts:   o.Attempts,
			Succeeded:  o.Succeeded,
			Absent:     o.Absent,
			DurationMs: o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			v.Error = o.Err.Error()
		}
		resp.Outcomes = append(resp.Outcomes, v)
	}
	return resp
}
