package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giantswarm/nbenv"
)

var onStartCmd = &cobra.Command{
	Use:   "on-start",
	Short: "Run the start-phase activation",
	Long: `on-start registers a Jupyter kernel for every provisioned conda
environment and restarts the notebook service so the kernels appear.

When the create-phase bootstrap has not completed yet, on-start exits
successfully without doing anything; the next instance start retries.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := agentOptions()
		if err != nil {
			return err
		}

		a, err := nbenv.NewActivator(opts...)
		if err != nil {
			return err
		}

		result, err := a.Run(cmd.Context())
		if err != nil {
			return err
		}

		if result.Deferred {
			fmt.Fprintln(cmd.OutOrStdout(), "Setup still in progress")
			return nil
		}
		for _, kernel := range result.Kernels {
			fmt.Fprintf(cmd.OutOrStdout(), "registered kernel %s (%s)\n", kernel, nbenv.KernelDisplayName(kernel))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "notebook service restarted")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(onStartCmd)
}
