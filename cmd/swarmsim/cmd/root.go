// Package cmd wires the swarmsim cobra commands: a thin root plus the
// single "run" subcommand that drives one mission end to end.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	logLevel  string
	noColor   bool
	reportOut string
)

var rootCmd = &cobra.Command{
	Use:   "swarmsim",
	Short: "Discrete-step swarm mission simulator",
	Long: `swarmsim runs one drone-swarm mission: agents take off, assemble,
retask against attrition, attack their objectives, and report the
outcome.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "mission config file (key=value); missing file uses defaults")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the config file's log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored console output")
	rootCmd.AddCommand(runCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
