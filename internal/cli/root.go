// Package cli wires the cachepulse commands.
package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var verbose bool

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "cachepulse",
	Short:   "A cache-aside latency measurement and simulation harness",
	Version: version,
	Long: `Cachepulse drives synthetic load against a simulated cache-or-database
backend and tracks end-to-end latency over a sliding time window. Dial the
request frequency up or down, toggle the cache tier on or off, and watch
the window average move.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		} else {
			logrus.SetLevel(logrus.WarnLevel)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print help.
		cmd.Help()
	},
}

// Execute runs the root command. It only needs to happen once, from main.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	RootCmd.AddCommand(runCmd)
}
