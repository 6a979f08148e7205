package cleanup

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotSubmitted marks paths the worker pool refused to run.
	ErrNotSubmitted = errors.New("deletion not submitted to worker pool")

	// ErrUnitPanicked marks paths whose deletion unit panicked.
	ErrUnitPanicked = errors.New("deletion unit panicked")
)

// Outcome is the terminal result of deleting one path.
type Outcome struct {
	Path string

	// Attempts counts delete calls. It is 0 when the path was already
	// absent on the first check.
	Attempts int

	Succeeded bool

	// Absent is set when the path was gone before any delete call.
	Absent bool

	Err      error
	Duration time.Duration
}

// Summary aggregates the outcomes of one task.
type Summary struct {
	Total    int `json:"total"`
	Deleted  int `json:"deleted"`
	Absent   int `json:"absent"`
	Failed   int `json:"failed"`
	Attempts int `json:"attempts"`
}

// Summarize reduces outcomes into a Summary.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		s.Attempts += o.Attempts
		switch {
		case !o.Succeeded:
			s.Failed++
		case o.Absent:
			s.Absent++
		default:
			s.Deleted++
		}
	}
	return s
}

// Handled reports whether every path is gone.
func (s Summary) Handled() bool {
	return s.Failed == 0
}

func (s Summary) String() string {
	return fmt.Sprintf("total=%d deleted=%d absent=%d failed=%d attempts=%d",
		s.Total, s.Deleted, s.Absent, s.Failed, s.Attempts)
}

// Failures returns the outcomes that did not succeed.
func Failures(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if !o.Succeeded {
			failed = append(failed, o)
		}
	}
	return failed
}
