package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/giantswarm/nbenv"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the bootstrap status and step history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := agentOptions()
		if err != nil {
			return err
		}

		report, err := nbenv.Status(cmd.Context(), opts...)
		if errors.Is(err, nbenv.ErrNoStatus) {
			fmt.Fprintln(cmd.OutOrStdout(), "no bootstrap has run on this instance")
			return nil
		}
		if err != nil {
			return err
		}

		if statusJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "state:     %s\n", report.Record.State)
		if !report.Record.StartedAt.IsZero() {
			fmt.Fprintf(out, "started:   %s\n", report.Record.StartedAt.Format("2006-01-02 15:04:05 MST"))
		}
		if !report.Record.FinishedAt.IsZero() {
			fmt.Fprintf(out, "finished:  %s\n", report.Record.FinishedAt.Format("2006-01-02 15:04:05 MST"))
		}
		if report.Record.SpecHash != "" {
			fmt.Fprintf(out, "spec hash: %s\n", report.Record.SpecHash)
		}
		if report.Record.Message != "" {
			fmt.Fprintf(out, "message:   %s\n", report.Record.Message)
		}

		if len(report.Steps) > 0 {
			fmt.Fprintln(out, "\nsteps:")
			for _, step := range report.Steps {
				outcome := string(step.Outcome)
				if outcome == "" {
					outcome = "running"
				}
				fmt.Fprintf(out, "  %-40s %-10s %s\n", step.Name, outcome, formatElapsed(step.StartedAt, step.FinishedAt))
				if step.Detail != "" {
					fmt.Fprintf(out, "    %s\n", step.Detail)
				}
			}
		}

		envs, err := nbenv.Environments(opts...)
		if err != nil {
			return err
		}
		if len(envs) > 0 {
			fmt.Fprintf(out, "\nenvironments on disk: %s\n", strings.Join(envs, ", "))
		}

		kernels, err := nbenv.RegisteredKernels(opts...)
		if err != nil {
			return err
		}
		if len(kernels) > 0 {
			fmt.Fprintf(out, "registered kernels:   %s\n", strings.Join(kernels, ", "))
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "emit the report as JSON")
	rootCmd.AddCommand(statusCmd)
}
