package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/marmos91/lakecleaner/internal/cli/output"
	"github.com/marmos91/lakecleaner/pkg/cleanup"
	"github.com/marmos91/lakecleaner/pkg/task"
	"github.com/spf13/cobra"
)

var (
	submitTable       string
	submitPathsFile   string
	submitMaxAttempts int
	submitWorkers     int
	submitOutput      string
	submitServer      string
)

var submitCmd = &cobra.Command{
	Use:   "submit [path]...",
	Short: "Build and run a table content cleanup task",
	Long: `Build a TABLE_CONTENT_CLEANUP task from flags and run it immediately.

Paths come from arguments and from --paths-file (one path per line, blank
lines and lines starting with # are ignored).

Examples:
  # Delete two files of db.events
  lakecleaner submit --table db.events s3://bucket/a.parquet s3://bucket/b.parquet

  # Delete every path listed in a file with more retries
  lakecleaner submit --table db.events --paths-file orphans.txt --max-attempts 5

  # Let a running server do the work
  lakecleaner submit --server http://localhost:8080 --table db.events a.parquet`,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitTable, "table", "", "Table identifier (namespace.table)")
	submitCmd.Flags().StringVar(&submitPathsFile, "paths-file", "", "File with one path per line")
	submitCmd.Flags().IntVar(&submitMaxAttempts, "max-attempts", 0, "Override the configured attempts per path")
	submitCmd.Flags().IntVar(&submitWorkers, "workers", 0, "Override the configured worker count")
	submitCmd.Flags().StringVarP(&submitOutput, "output", "o", "table", "Output format (table|json|yaml)")
	submitCmd.Flags().StringVar(&submitServer, "server", "", "Submit to a lakecleaner server instead of running locally")
	_ = submitCmd.MarkFlagRequired("table")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	if _, err := output.ParseFormat(submitOutput); err != nil {
		return err
	}

	id, err := cleanup.ParseTableIdentifier(submitTable)
	if err != nil {
		return err
	}

	paths := append([]string(nil), args...)
	if submitPathsFile != "" {
		fromFile, err := readPathsFile(submitPathsFile)
		if err != nil {
			return err
		}
		paths = append(paths, fromFile...)
	}

	t, err := cleanup.NewTask(id, paths)
	if err != nil {
		return err
	}

	if submitServer != "" {
		results := submitRemote(commandContext(cmd), submitServer, []*task.Task{t})
		return printResults(cmd.OutOrStdout(), submitOutput, results)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if submitMaxAttempts > 0 {
		cfg.Cleanup.Retry.MaxAttempts = submitMaxAttempts
	}
	if submitWorkers > 0 {
		cfg.Cleanup.Pool.Workers = submitWorkers
	}

	return executeTasks(cmd, cfg, []*task.Task{t}, submitOutput)
}

func readPathsFile(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open paths file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read paths file: %w", err)
	}
	return paths, nil
}
