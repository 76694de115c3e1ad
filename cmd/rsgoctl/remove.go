package rsgoctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/readystackgo/rsgo/internal/ids"
)

func newRemoveCmd() *cobra.Command {
	var (
		environmentID string
		groupID       string
	)

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a product's active deployment from an environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			resp, err := a.Orchestrator.RemoveProduct(cmd.Context(), ids.EnvironmentID(environmentID), groupID, "", 0)
			if err != nil {
				return err
			}
			printResponse(cmd, resp)
			if !resp.Success {
				return fmt.Errorf("removal completed with failures: %s", resp.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&environmentID, "environment", "", "environment ID")
	cmd.Flags().StringVar(&groupID, "group", "", "product group ID")
	_ = cmd.MarkFlagRequired("environment")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}
