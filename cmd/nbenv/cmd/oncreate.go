package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giantswarm/nbenv"
)

var foreground bool

var onCreateCmd = &cobra.Command{
	Use:   "on-create",
	Short: "Run the create-phase bootstrap",
	Long: `on-create provisions the instance: it installs Miniconda on the
persistent volume, creates the configured conda environments, and installs
their packages.

By default the work is handed to a detached worker process and on-create
returns immediately, so the platform's lifecycle hook does not hit its time
limit. With --foreground the bootstrap runs in this process to completion;
this is what the detached worker itself does.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := agentOptions()
		if err != nil {
			return err
		}

		b, err := nbenv.NewBootstrapper(opts...)
		if err != nil {
			return err
		}

		if foreground {
			err := b.Run(cmd.Context())
			if errors.Is(err, nbenv.ErrBootstrapInProgress) {
				// Another worker is on it; nothing to do here.
				fmt.Fprintln(cmd.OutOrStdout(), "bootstrap already in progress")
				return nil
			}
			return err
		}

		pid, err := b.Detach(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "bootstrap worker started (pid %d)\n", pid)
		return nil
	},
}

func init() {
	onCreateCmd.Flags().BoolVar(&foreground, "foreground", false, "run the bootstrap in this process instead of detaching")
	rootCmd.AddCommand(onCreateCmd)
}
