package prometheus

import (
	"time"

	"github.com/marmos91/lakecleaner/pkg/cleanup"
	"github.com/marmos91/lakecleaner/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// cleanupMetrics is the Prometheus implementation of cleanup.Metrics.
type cleanupMetrics struct {
	attemptsTotal *prometheus.CounterVec
	pathsTotal    *prometheus.CounterVec
	pathAttempts  prometheus.Histogram
	pathDuration  prometheus.Histogram
	tasksTotal    *prometheus.CounterVec
	taskDuration  prometheus.Histogram
}

// NewCleanupMetrics creates a Prometheus-backed cleanup.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewCleanupMetrics() cleanup.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &cleanupMetrics{
		attemptsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Name:      "storage_attempts_total",
				Help:      "Storage calls made by deletion units, by status",
			},
			[]string{"status"},
		),
		pathsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Name:      "paths_total",
				Help:      "Paths processed by terminal result (deleted, absent, failed)",
			},
			[]string{"result"},
		),
		pathAttempts: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metrics.Namespace,
				Name:      "path_attempts",
				Help:      "Delete attempts needed per path",
				Buckets:   []float64{0, 1, 2, 3, 5, 10},
			},
		),
		pathDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metrics.Namespace,
				Name:      "path_duration_milliseconds",
				Help:      "Time to reach a terminal result for one path, including backoff",
				Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000, 30000},
			},
		),
		tasksTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Name:      "tasks_total",
				Help:      "Cleanup tasks by verdict",
			},
			[]string{"handled"},
		),
		taskDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metrics.Namespace,
				Name:      "task_duration_milliseconds",
				Help:      "Duration of cleanup tasks",
				Buckets:   []float64{10, 100, 500, 1000, 5000, 30000, 120000},
			},
		),
	}
}

func (m *cleanupMetrics) ObserveAttempt(err error) {
	if m == nil {
		return
	}
	m.attemptsTotal.WithLabelValues(status(err)).Inc()
}

func (m *cleanupMetrics) ObserveOutcome(o cleanup.Outcome) {
	if m == nil {
		return
	}

	result := "deleted"
	switch {
	case !o.Succeeded:
		result = "failed"
	case o.Absent:
		result = "absent"
	}

	m.pathsTotal.WithLabelValues(result).Inc()
	m.pathAttempts.Observe(float64(o.Attempts))
	m.pathDuration.Observe(o.Duration.Seconds() * 1000)
}

func (m *cleanupMetrics) ObserveTask(handled bool, duration time.Duration) {
	if m == nil {
		return
	}

	label := "false"
	if handled {
		label = "true"
	}
	m.tasksTotal.WithLabelValues(label).Inc()
	m.taskDuration.Observe(duration.Seconds() * 1000)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
