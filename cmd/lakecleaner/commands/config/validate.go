package config

import (
	"fmt"

	"github.com/marmos91/lakecleaner/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the lakecleaner configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  lakecleaner config validate

  # Validate specific config file
  lakecleaner config validate --config /etc/lakecleaner/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	if cfg.Storage.Type == config.StorageTypeMemory {
		warnings = append(warnings, "Storage type is memory - deletions will not reach any real store")
	}
	if cfg.Cleanup.Retry.MaxAttempts == 1 {
		warnings = append(warnings, "cleanup.retry.max_attempts is 1 - transient failures will not be retried")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Storage type:    %s\n", cfg.Storage.Type)
	_, _ = fmt.Fprintf(out, "  Max attempts:    %d\n", cfg.Cleanup.Retry.MaxAttempts)
	_, _ = fmt.Fprintf(out, "  Workers:         %d\n", cfg.Cleanup.Pool.Workers)
	_, _ = fmt.Fprintf(out, "  API port:        %d\n", cfg.Server.Port)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
