package rsgoctl

import (
	"fmt"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/readystackgo/rsgo/internal/ids"
)

func newDeployCmd() *cobra.Command {
	var (
		environmentID   string
		groupID         string
		productVersion  string
		continueOnError bool
		wait            bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a product's stacks into an environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			var sp *spinner.Spinner
			if wait {
				sp = spinner.New(spinner.CharSets[11], spinnerInterval)
				sp.Suffix = " deploying..."
				sp.Start()
				defer sp.Stop()
			}

			resp, err := a.Orchestrator.DeployProduct(cmd.Context(), ids.EnvironmentID(environmentID), groupID, productVersion, nil, nil, continueOnError, "", 0)
			if err != nil {
				return err
			}

			printResponse(cmd, resp)
			if !resp.Success {
				return fmt.Errorf("deployment did not complete successfully: %s", resp.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&environmentID, "environment", "", "environment ID to deploy into")
	cmd.Flags().StringVar(&groupID, "group", "", "product group ID")
	cmd.Flags().StringVar(&productVersion, "version", "", "product version to deploy")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "continue deploying remaining stacks after a stack failure")
	cmd.Flags().BoolVar(&wait, "wait", false, "show a progress spinner while deploying")
	_ = cmd.MarkFlagRequired("environment")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("version")

	return cmd
}
