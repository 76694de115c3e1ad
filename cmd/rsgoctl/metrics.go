package rsgoctl

import (
	"github.com/spf13/cobra"
)

func newMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print deployment/pull/conflict metrics in Prometheus text format",
		Long: `metrics dumps the process's Prometheus metric registry to stdout in
the standard text exposition format, for a human or a scrape-and-pipe
script to consume. rsgoctl has no HTTP surface to scrape directly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.Metrics.WriteText(cmd.OutOrStdout())
		},
	}
}
