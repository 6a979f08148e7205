package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/marmos91/lakecleaner/internal/cli/output"
	"github.com/marmos91/lakecleaner/internal/logger"
	"github.com/marmos91/lakecleaner/pkg/api/handlers"
	"github.com/marmos91/lakecleaner/pkg/apiclient"
	"github.com/marmos91/lakecleaner/pkg/cleanup"
	"github.com/marmos91/lakecleaner/pkg/config"
	"github.com/marmos91/lakecleaner/pkg/metrics/prometheus"
	"github.com/marmos91/lakecleaner/pkg/storage"
	"github.com/marmos91/lakecleaner/pkg/task"
	"github.com/marmos91/lakecleaner/pkg/workerpool"
)

// errIncomplete makes the process exit non-zero when a task left files behind.
var errIncomplete = errors.New("cleanup incomplete")

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Service: cfg.Logging.Service,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// loadConfig loads the configuration for one-shot commands. Unlike serve, a
// missing default config file is fine: defaults are used.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, err
	}
	if err := InitLogger(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}

// cleanupRuntime wires the handler and its shared infrastructure.
type cleanupRuntime struct {
	pool       *workerpool.Pool
	resolver   storage.Resolver
	dispatcher *task.Dispatcher
	results    *cleanup.ResultLog
	checks     map[string]handlers.Checker
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

func newCleanupRuntime(ctx context.Context, cfg *config.Config, m config.MetricsResult) (*cleanupRuntime, error) {
	rt := &cleanupRuntime{
		results: cleanup.NewResultLog(0),
		checks:  make(map[string]handlers.Checker),
	}

	if cfg.Storage.Type == config.StorageTypeIceberg {
		resolver, err := config.CreateResolver(ctx, cfg.Storage, m.S3)
		if err != nil {
			return nil, err
		}
		rt.resolver = resolver
	} else {
		fio, err := config.CreateFileIO(ctx, cfg.Storage, m.S3)
		if err != nil {
			return nil, err
		}
		if hc, ok := fio.(healthChecker); ok {
			rt.checks["storage"] = hc.HealthCheck
		}
		rt.resolver = storage.Static(fio)
	}

	rt.pool = workerpool.New(cfg.Cleanup.Pool)
	rt.pool.Start()
	prometheus.RegisterPoolCollector(rt.pool)

	handler := cleanup.NewHandler(rt.resolver, rt.pool,
		cleanup.WithRetryPolicy(cfg.Cleanup.Retry),
		cleanup.WithMetrics(m.Cleanup),
		cleanup.WithResultHook(rt.results.Record),
	)
	rt.dispatcher = task.NewDispatcher(handler)

	logger.Debug("Cleanup runtime ready",
		logger.KeyStoreType, cfg.Storage.Type,
		logger.KeyWorkers, rt.pool.Workers(),
		logger.KeyMaxAttempts, cfg.Cleanup.Retry.MaxAttempts)
	return rt, nil
}

// execute dispatches t and converts whatever it left behind.
func (rt *cleanupRuntime) execute(ctx context.Context, t *task.Task) output.TaskResult {
	handled, err := rt.dispatcher.Dispatch(ctx, t)

	tr := output.TaskResult{TaskID: t.ID, Handled: handled}
	if res, ok := rt.results.Get(t.ID); ok {
		tr = output.NewTaskResult(res)
	}
	if err != nil {
		tr.Handled = false
		tr.Error = err.Error()
	}
	return tr
}

func (rt *cleanupRuntime) Close(timeout time.Duration) {
	rt.pool.Stop(timeout)
	if c, ok := rt.resolver.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close storage", logger.KeyError, err)
		}
	}
}

// printResults prints results and reports errIncomplete when any task is not
// fully handled.
func printResults(w io.Writer, format string, results output.TaskResults) error {
	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	if err := output.Print(w, f, results); err != nil {
		return err
	}

	incomplete := 0
	for _, r := range results {
		if !r.Handled {
			incomplete++
		}
	}
	if incomplete > 0 {
		return fmt.Errorf("%w: %d of %d tasks", errIncomplete, incomplete, len(results))
	}
	return nil
}

// submitRemote sends tasks to a running server instead of executing them locally.
func submitRemote(ctx context.Context, server string, tasks []*task.Task) output.TaskResults {
	client := apiclient.New(server)

	results := make(output.TaskResults, 0, len(tasks))
	for _, t := range tasks {
		resp, err := client.SubmitTask(ctx, t)
		if err != nil {
			results = append(results, output.TaskResult{TaskID: t.ID, Error: err.Error()})
			continue
		}
		results = append(results, output.FromResponse(*resp))
	}
	return results
}

func readTaskFile(stdin io.Reader, path string) (*task.Task, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read task %s: %w", path, err)
	}

	t, err := task.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
