package prometheus

import (
	"github.com/marmos91/lakecleaner/pkg/metrics"
	"github.com/marmos91/lakecleaner/pkg/workerpool"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterPoolCollector exports worker pool occupancy as gauges read on
// scrape. It is a no-op when metrics are disabled.
func RegisterPoolCollector(pool *workerpool.Pool) {
	if !metrics.IsEnabled() || pool == nil {
		return
	}

	reg := metrics.GetRegistry()
	gauge := func(name, help string, read func(workerpool.Stats) int) prometheus.Collector {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: metrics.Namespace,
				Subsystem: "pool",
				Name:      name,
				Help:      help,
			},
			func() float64 { return float64(read(pool.Stats())) },
		)
	}

	reg.MustRegister(
		gauge("workers", "Configured worker goroutines", func(s workerpool.Stats) int { return s.Workers }),
		gauge("queued_jobs", "Jobs waiting for a worker", func(s workerpool.Stats) int { return s.Queued }),
		gauge("running_jobs", "Jobs currently executing", func(s workerpool.Stats) int { return s.Running }),
		gauge("completed_jobs", "Jobs finished since start", func(s workerpool.Stats) int { return s.Completed }),
		gauge("panicked_jobs", "Jobs that panicked since start", func(s workerpool.Stats) int { return s.Panicked }),
	)
}
