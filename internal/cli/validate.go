package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/swarm/internal/config"
	"github.com/wesleyorama2/swarm/internal/output"
	"github.com/wesleyorama2/swarm/internal/runner"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "validate <config-file>",
		Short:        "Check a configuration file without running it",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			path := args[0]

			cfg, err := config.LoadConfig(path)
			if err == nil {
				// Builds the scenario too, so merged wait bounds are checked.
				_, err = runner.New(cfg, runner.Website)
			}
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", output.ErrorIcon(noColor), path)
				return err
			}

			cfg.ApplyDefaults()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s is valid (host %s, %d users)\n",
				output.SuccessIcon(noColor), path, cfg.Host, cfg.Users)
			return nil
		},
	}
}
