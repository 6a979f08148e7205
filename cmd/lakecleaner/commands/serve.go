package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/lakecleaner/internal/logger"
	"github.com/marmos91/lakecleaner/internal/telemetry"
	"github.com/marmos91/lakecleaner/pkg/api"
	"github.com/marmos91/lakecleaner/pkg/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept cleanup tasks over HTTP",
	Long: `Start the HTTP task endpoint and process submitted tasks until
interrupted.

Tasks are POSTed as JSON to /api/v1/tasks. Health checks live under /health and
Prometheus metrics are served when metrics are enabled.

Examples:
  # Start with the default config location
  lakecleaner serve

  # Start with a custom config file
  lakecleaner serve --config /etc/lakecleaner/config.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	// Serving needs a deliberate configuration, not bare defaults
	if configFile == "" && !config.DefaultConfigExists() {
		return fmt.Errorf("no configuration file found at default location: %s\n\n"+
			"Please initialize a configuration file first:\n"+
			"  lakecleaner init\n\n"+
			"Or specify a custom config file:\n"+
			"  lakecleaner serve --config /path/to/config.yaml",
			config.GetDefaultConfigPath())
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	deployment := telemetry.Deployment{
		StoreType:   cfg.Storage.Type,
		Workers:     cfg.Cleanup.Pool.Workers,
		MaxAttempts: cfg.Cleanup.Retry.MaxAttempts,
	}

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
		Deployment:     deployment,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.KeyError, err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
		Deployment:     deployment,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.KeyError, err)
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(configFile))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	// Metrics must exist before the runtime so stores and handlers pick them up
	metricsResult := config.InitializeMetrics(cfg)

	rt, err := newCleanupRuntime(ctx, cfg, metricsResult)
	if err != nil {
		return fmt.Errorf("failed to initialize cleanup: %w", err)
	}
	defer rt.Close(cfg.ShutdownTimeout)

	serverDone := make(chan error, 2)

	if metricsResult.Server != nil {
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
		go func() {
			serverDone <- metricsResult.Server.Start(ctx)
		}()
	} else {
		logger.Info("Metrics collection disabled")
	}

	apiServer := api.NewServer(cfg.Server, api.Dependencies{
		Dispatcher: rt.dispatcher,
		Results:    rt.results,
		Pool:       rt.pool,
		Checks:     rt.checks,
	})
	go func() {
		serverDone <- apiServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown")
	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error", logger.KeyError, err)
			cancel()
			return err
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		return err
	}
	if metricsResult.Server != nil {
		if err := metricsResult.Server.Stop(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown error", logger.KeyError, err)
		}
	}

	logger.Info("Server stopped gracefully")
	return nil
}
