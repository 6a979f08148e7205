package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/marmos91/lakecleaner/internal/cli/output"
	"github.com/marmos91/lakecleaner/pkg/config"
	"github.com/marmos91/lakecleaner/pkg/task"
	"github.com/spf13/cobra"
)

var (
	runOutput string
	runServer string
)

var runCmd = &cobra.Command{
	Use:   "run <task.json>...",
	Short: "Run cleanup tasks from JSON files",
	Long: `Run one or more tasks read from JSON files. Use "-" to read a single
task from stdin.

Tasks are dispatched in order on one worker pool. The command exits non-zero
when any task leaves files behind.

Examples:
  # Run a task file
  lakecleaner run task.json

  # Read a task from stdin and print JSON results
  cat task.json | lakecleaner run - -o json

  # Send tasks to a running "lakecleaner serve"
  lakecleaner run --server http://localhost:8080 task.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "table", "Output format (table|json|yaml)")
	runCmd.Flags().StringVar(&runServer, "server", "", "Submit to a lakecleaner server instead of running locally")
}

func runRun(cmd *cobra.Command, args []string) error {
	if _, err := output.ParseFormat(runOutput); err != nil {
		return err
	}

	tasks := make([]*task.Task, 0, len(args))
	for _, path := range args {
		t, err := readTaskFile(cmd.InOrStdin(), path)
		if err != nil {
			return err
		}
		tasks = append(tasks, t)
	}

	if runServer != "" {
		results := submitRemote(commandContext(cmd), runServer, tasks)
		return printResults(cmd.OutOrStdout(), runOutput, results)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	return executeTasks(cmd, cfg, tasks, runOutput)
}

// executeTasks runs tasks sequentially on a fresh runtime and prints the results.
func executeTasks(cmd *cobra.Command, cfg *config.Config, tasks []*task.Task, format string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := newCleanupRuntime(ctx, cfg, config.InitializeMetrics(cfg))
	if err != nil {
		return fmt.Errorf("failed to initialize cleanup: %w", err)
	}
	defer rt.Close(cfg.ShutdownTimeout)

	results := make(output.TaskResults, 0, len(tasks))
	for _, t := range tasks {
		if ctx.Err() != nil {
			break
		}
		results = append(results, rt.execute(ctx, t))
	}

	return printResults(cmd.OutOrStdout(), format, results)
}

// commandContext returns the command context, falling back to Background
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
