package rsgoctl

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/readystackgo/rsgo/internal/ids"
)

func newHealthCmd() *cobra.Command {
	var (
		environmentID string
		deploymentID  string
		limit         int
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show health snapshots for an environment or a single deployment",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Deployment", "Stack", "Overall", "Services", "Captured"})

			if deploymentID != "" {
				depID := ids.DeploymentID(deploymentID)
				for _, snap := range a.Health.GetHistory(depID, limit) {
					t.AppendRow(table.Row{snap.DeploymentID, snap.StackName, snap.Overall, snap.TotalCount, snap.CapturedAtUTC.Format("2006-01-02T15:04:05Z")})
				}
			} else {
				for _, snap := range a.Health.GetLatestForEnvironment(ids.EnvironmentID(environmentID)) {
					t.AppendRow(table.Row{snap.DeploymentID, snap.StackName, snap.Overall, snap.TotalCount, snap.CapturedAtUTC.Format("2006-01-02T15:04:05Z")})
				}
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&environmentID, "environment", "", "environment ID (latest snapshot per deployment)")
	cmd.Flags().StringVar(&deploymentID, "deployment", "", "show history for a single deployment instead")
	cmd.Flags().IntVar(&limit, "limit", 0, "max history entries to show (0 = all), only with --deployment")

	return cmd
}
