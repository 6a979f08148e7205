package cleanup

import "time"

// Metrics receives cleanup observations. Pass nil to disable collection.
type Metrics interface {
	// ObserveAttempt records one storage call made by a deletion unit.
	ObserveAttempt(err error)

	// ObserveOutcome records the terminal result of one path.
	ObserveOutcome(o Outcome)

	// ObserveTask records a finished task.
	ObserveTask(handled bool, duration time.Duration)
}

func observeAttempt(m Metrics, err error) {
	if m != nil {
		m.ObserveAttempt(err)
	}
}

func observeOutcome(m Metrics, o Outcome) {
	if m != nil {
		m.ObserveOutcome(o)
	}
}

func observeTask(m Metrics, handled bool, d time.Duration) {
	if m != nil {
		m.ObserveTask(handled, d)
	}
}
