package config

import (
	"strings"
	"time"

	"github.com/marmos91/lakecleaner/internal/telemetry"
	"github.com/marmos91/lakecleaner/pkg/api"
	"github.com/marmos91/lakecleaner/pkg/retry"
	"github.com/marmos91/lakecleaner/pkg/workerpool"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values (0, "", false, nil) are replaced with defaults; explicit values
// are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyMetricsDefaults(&cfg.Metrics)
	applyServerDefaults(&cfg.Server)
	applyCleanupDefaults(&cfg.Cleanup)
	applyStorageDefaults(&cfg.Storage)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	// Commands print results on stdout.
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = append([]string(nil), telemetry.DefaultProfileTypes...)
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyMetricsDefaults sets the metrics port only when metrics are enabled.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyServerDefaults(cfg *api.APIConfig) {
	cfg.ApplyDefaults()
}

// applyCleanupDefaults fills each unset retry field individually so a config
// that only overrides max_attempts keeps the default backoff schedule.
//
// initial_backoff 0 and jitter 0 are legitimate choices and are left alone.
// Load supplies the default initial_backoff through viper when the key is
// absent, see setViperDefaults.
func applyCleanupDefaults(cfg *CleanupConfig) {
	def := retry.DefaultPolicy()
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = def.MaxAttempts
	}
	if cfg.Retry.MaxBackoff == 0 {
		cfg.Retry.MaxBackoff = def.MaxBackoff
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry.Multiplier = def.Multiplier
	}

	if cfg.Pool.Workers == 0 {
		cfg.Pool.Workers = workerpool.DefaultWorkers
	}
	if cfg.Pool.QueueSize == 0 {
		cfg.Pool.QueueSize = workerpool.DefaultQueueSize
	}
}

func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Type == "" {
		cfg.Type = StorageTypeMemory
	}
	cfg.Type = strings.ToLower(cfg.Type)
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Cleanup: CleanupConfig{
			Retry: retry.DefaultPolicy(),
		},
		Storage: StorageConfig{
			Type: StorageTypeMemory,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
