package commands

import (
	"fmt"

	"github.com/marmos91/lakecleaner/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample lakecleaner configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/lakecleaner/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  lakecleaner init

  # Initialize with custom path
  lakecleaner init --config /etc/lakecleaner/config.yaml

  # Force overwrite existing config
  lakecleaner init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Set storage.type and the matching storage section")
	_, _ = fmt.Fprintln(out, "  2. Run a task with: lakecleaner run task.json")
	_, _ = fmt.Fprintf(out, "  3. Or accept tasks over HTTP: lakecleaner serve --config %s\n", configPath)

	return nil
}
