package rsgoctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/readystackgo/rsgo/internal/ids"
)

func newUpgradeCmd() *cobra.Command {
	var (
		environmentID  string
		groupID        string
		productVersion string
		check          bool
	)

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade a product's active deployment to a newer version",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			env := ids.EnvironmentID(environmentID)

			if check {
				canUpgrade, candidates, err := a.Orchestrator.CheckProductUpgrade(env, groupID)
				if err != nil {
					return err
				}
				if !canUpgrade {
					cmd.Println("no upgrade available")
					return nil
				}
				for _, c := range candidates {
					cmd.Printf("version %s: +%v -%v\n", c.ProductVersion, c.NewStacks, c.RemovedStacks)
				}
				return nil
			}

			resp, err := a.Orchestrator.UpgradeProduct(cmd.Context(), env, groupID, productVersion, nil, nil, "", 0)
			if err != nil {
				return err
			}
			printResponse(cmd, resp)
			if !resp.Success {
				return fmt.Errorf("upgrade did not complete successfully: %s", resp.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&environmentID, "environment", "", "environment ID")
	cmd.Flags().StringVar(&groupID, "group", "", "product group ID")
	cmd.Flags().StringVar(&productVersion, "version", "", "target product version")
	cmd.Flags().BoolVar(&check, "check", false, "only report available upgrade candidates, do not upgrade")
	_ = cmd.MarkFlagRequired("environment")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}
