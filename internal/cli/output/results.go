package output

import (
	"fmt"
	"strconv"
	"time"

	"github.com/marmos91/lakecleaner/pkg/api/handlers"
	"github.com/marmos91/lakecleaner/pkg/cleanup"
)

// PathResult is the printable form of one cleanup.Outcome.
type PathResult struct {
	Path       string `json:"path" yaml:"path"`
	Status     string `json:"status" yaml:"status"`
	Attempts   int    `json:"attempts" yaml:"attempts"`
	DurationMs int64  `json:"duration_ms" yaml:"duration_ms"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// TaskResult is the printable form of a dispatched task.
type TaskResult struct {
	TaskID  string          `json:"task_id" yaml:"task_id"`
	Table   string          `json:"table,omitempty" yaml:"table,omitempty"`
	Handled bool            `json:"handled" yaml:"handled"`
	Error   string          `json:"error,omitempty" yaml:"error,omitempty"`
	Summary cleanup.Summary `json:"summary" yaml:"summary"`
	Paths   []PathResult    `json:"paths" yaml:"paths"`
}

// NewTaskResult converts a recorded result.
func NewTaskResult(res cleanup.Result) TaskResult {
	tr := TaskResult{
		TaskID:  res.TaskID,
		Table:   res.Table,
		Handled: res.Summary.Handled(),
		Summary: res.Summary,
		Paths:   make([]PathResult, 0, len(res.Outcomes)),
	}

	for _, o := range res.Outcomes {
		pr := PathResult{
			Path:       o.Path,
			Status:     outcomeStatus(o),
			Attempts:   o.Attempts,
			DurationMs: o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			pr.Error = o.Err.Error()
		}
		tr.Paths = append(tr.Paths, pr)
	}
	return tr
}

// FromResponse converts a task response returned by a remote server.
func FromResponse(resp handlers.TaskResponse) TaskResult {
	tr := TaskResult{
		TaskID:  resp.TaskID,
		Table:   resp.Table,
		Handled: resp.Handled,
		Paths:   make([]PathResult, 0, len(resp.Outcomes)),
	}
	if resp.Summary != nil {
		tr.Summary = *resp.Summary
	}

	for _, o := range resp.Outcomes {
		tr.Paths = append(tr.Paths, PathResult{
			Path:       o.Path,
			Status:     status(o.Succeeded, o.Absent),
			Attempts:   o.Attempts,
			DurationMs: o.DurationMs,
			Error:      o.Error,
		})
	}
	return tr
}

func outcomeStatus(o cleanup.Outcome) string {
	return status(o.Succeeded, o.Absent)
}

func status(succeeded, absent bool) string {
	switch {
	case !succeeded:
		return "failed"
	case absent:
		return "absent"
	default:
		return "deleted"
	}
}

// TaskResults renders one row per path across several tasks.
type TaskResults []TaskResult

// Headers implements TableRenderer.
func (r TaskResults) Headers() []string {
	return []string{"Task", "Table", "Path", "Status", "Attempts", "Duration", "Error"}
}

// Rows implements TableRenderer.
func (r TaskResults) Rows() [][]string {
	var rows [][]string
	for _, tr := range r {
		if len(tr.Paths) == 0 {
			status := "empty"
			if tr.Error != "" {
				status = "error"
			}
			rows = append(rows, []string{tr.TaskID, tr.Table, "-", status, "0", "-", tr.Error})
			continue
		}
		for _, p := range tr.Paths {
			rows = append(rows, []string{
				tr.TaskID,
				tr.Table,
				p.Path,
				p.Status,
				strconv.Itoa(p.Attempts),
				(time.Duration(p.DurationMs) * time.Millisecond).String(),
				p.Error,
			})
		}
	}
	return rows
}

// Alignments implements TableLayout. Attempts and durations are right aligned.
func (r TaskResults) Alignments() []int {
	return []int{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignLeft}
}

// MergedColumns implements TableLayout so each task and table prints once.
func (r TaskResults) MergedColumns() []int {
	return []int{0, 1}
}

// Footer implements TableFooter with totals across all tasks.
func (r TaskResults) Footer() []string {
	var total cleanup.Summary
	incomplete := 0
	for _, tr := range r {
		total.Total += tr.Summary.Total
		total.Deleted += tr.Summary.Deleted
		total.Absent += tr.Summary.Absent
		total.Failed += tr.Summary.Failed
		total.Attempts += tr.Summary.Attempts
		if !tr.Handled {
			incomplete++
		}
	}
	return []string{
		fmt.Sprintf("%d tasks", len(r)),
		fmt.Sprintf("%d incomplete", incomplete),
		fmt.Sprintf("%d paths", total.Total),
		fmt.Sprintf("%d deleted, %d absent, %d failed", total.Deleted, total.Absent, total.Failed),
		strconv.Itoa(total.Attempts),
		"",
		"",
	}
}
