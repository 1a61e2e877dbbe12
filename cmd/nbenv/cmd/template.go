package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/giantswarm/nbenv"
)

var templateOutput string

var templateCmd = &cobra.Command{
	Use:   "render-template",
	Short: "Render the provisioning template",
	Long: `render-template emits the CloudFormation template that provisions a
notebook instance wired to this agent: execution role, rotating KMS key,
lifecycle configuration invoking nbenv on-create/on-start, and the notebook
instance itself.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := agentOptions()
		if err != nil {
			return err
		}

		data, err := nbenv.RenderTemplate(opts...)
		if err != nil {
			return err
		}

		if templateOutput == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(templateOutput, data, 0o644); err != nil {
			return fmt.Errorf("write template: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "template written to %s\n", templateOutput)
		return nil
	},
}

func init() {
	templateCmd.Flags().StringVarP(&templateOutput, "output", "o", "", "write the template to a file instead of stdout")
	rootCmd.AddCommand(templateCmd)
}
