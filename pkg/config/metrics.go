package config

import (
	"github.com/marmos91/lakecleaner/pkg/cleanup"
	"github.com/marmos91/lakecleaner/pkg/metrics"
	"github.com/marmos91/lakecleaner/pkg/metrics/prometheus"
	"github.com/marmos91/lakecleaner/pkg/storage/s3"
)

// MetricsResult bundles the collectors created from configuration. Every
// field is nil when metrics are disabled.
type MetricsResult struct {
	Server  *metrics.Server
	Cleanup cleanup.Metrics
	S3      s3.Metrics
}

// InitializeMetrics sets up the registry and collectors when enabled. It must
// run before stores and handlers are created so they pick up the collectors.
func InitializeMetrics(cfg *Config) MetricsResult {
	if !cfg.Metrics.Enabled {
		return MetricsResult{}
	}

	metrics.InitRegistry()

	return MetricsResult{
		Server:  metrics.NewServer(cfg.Metrics.Port),
		Cleanup: prometheus.NewCleanupMetrics(),
		S3:      prometheus.NewS3Metrics(),
	}
}
