package commands

import (
	"fmt"
	"runtime"

	"github.com/marmos91/lakecleaner/internal/cli/output"
	"github.com/spf13/cobra"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionShort {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), Version)
			return nil
		}

		return output.SimpleTable(cmd.OutOrStdout(), [][2]string{
			{"Version", Version},
			{"Commit", Commit},
			{"Built", Date},
			{"Go version", runtime.Version()},
			{"OS/Arch", runtime.GOOS + "/" + runtime.GOARCH},
		})
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show only version number")
}
