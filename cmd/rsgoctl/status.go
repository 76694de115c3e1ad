package rsgoctl

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/readystackgo/rsgo/internal/ids"
	"github.com/readystackgo/rsgo/internal/product"
)

func newStatusCmd() *cobra.Command {
	var (
		environmentID string
		groupID       string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show product deployment status for an environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			env := ids.EnvironmentID(environmentID)

			var rows []product.ProductDeployment
			if groupID != "" {
				p, err := a.Products.GetActiveForGroup(env, groupID)
				if err != nil {
					return err
				}
				rows = []product.ProductDeployment{*p}
			} else {
				rows = a.Products.ListForEnvironment(env)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Group", "Product", "Version", "Status", "Stacks"})
			for _, p := range rows {
				running := 0
				for _, s := range p.Stacks {
					if s.Status == product.StackRunning {
						running++
					}
				}
				t.AppendRow(table.Row{p.ProductGroupID, p.ProductName, p.ProductVersion, p.Status, fmt.Sprintf("%d/%d running", running, len(p.Stacks))})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&environmentID, "environment", "", "environment ID")
	cmd.Flags().StringVar(&groupID, "group", "", "narrow to a single product group")
	_ = cmd.MarkFlagRequired("environment")

	return cmd
}
