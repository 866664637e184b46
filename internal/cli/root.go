// Package cli implements the mirage CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mirage",
	Short: "Manage wireless Android devices from the terminal",
	Long: `Mirage pairs with Android devices over Wi-Fi, keeps them connected,
and mirrors their screens with scrcpy.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add subcommands (alphabetical)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(disconnectCmd)
	rootCmd.AddCommand(mirrorCmd)
	rootCmd.AddCommand(pairCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(unpairCmd)
	rootCmd.AddCommand(versionCmd)
}
