// Package cli implements the swarm command line.
package cli

import (
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// NewRootCmd builds the base command and its subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "swarm",
		Short:   "Replay a weighted user scenario against a web site",
		Version: version,
		Long: `Swarm simulates a population of website users. Each user logs in once,
repeatedly performs weighted actions with a random think time between them,
and logs out when the run ends. Every request is timed and reported.`,
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	root.PersistentFlags().Bool("no-color", false, "Disable colored output")

	root.AddCommand(newRunCmd())
	root.AddCommand(newValidateCmd())
	return root
}

// Execute runs the root command with the process arguments.
// This is called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}
