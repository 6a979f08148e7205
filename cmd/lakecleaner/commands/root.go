// Package commands implements the lakecleaner CLI.
package commands

import (
	"github.com/marmos91/lakecleaner/cmd/lakecleaner/commands/config"
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "lakecleaner",
	Short: "lakecleaner - table content cleanup worker",
	Long: `lakecleaner deletes the obsolete data and metadata files of lakehouse
tables. Each TABLE_CONTENT_CLEANUP task names a table and the paths to remove;
paths are deleted concurrently on a shared worker pool with bounded retries.

Tasks can be run from files, built from flags, or accepted over HTTP.

Use "lakecleaner [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. It is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/lakecleaner/config.yaml)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(config.Cmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
