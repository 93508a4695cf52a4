package commands

import (
	"github.com/spf13/cobra"
)

var (
	// configPath is the YAML config file passed to config.Loader.
	configPath string

	// logLevel overrides the config file's log.level when non-empty.
	logLevel string
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "actorhostd",
	Short: "In-process actor and service runtime host",
	Long: `actorhostd boots an actor.System, preloads configured services,
and exposes its lifecycle (run a demo workload, print a stats snapshot)
from the command line.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", "",
		"Path to a YAML runtime config file (default: built-in defaults)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "",
		"Override the configured log level (trace, debug, info, warn, error)",
	)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statsCmd)
}
