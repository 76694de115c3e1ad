package rsgoctl

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/readystackgo/rsgo/internal/catalog"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and reload the product catalog",
	}
	cmd.AddCommand(newCatalogWatchCmd())
	return cmd
}

func newCatalogWatchCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Load product manifests from a directory and keep reloading them as they change",
		Long: `watch seeds the catalog from every manifest in --dir, then blocks,
re-parsing a manifest into the catalog whenever it is written and
evicting it when it is removed, until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			w, err := catalog.NewWatcher(a.Catalog, dir, "cli-watch")
			if err != nil {
				return err
			}
			defer w.Close()

			if err := w.LoadAll(); err != nil {
				return err
			}
			cmd.Println("catalog loaded from", dir)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w.Run(ctx,
				func(groupID, version string) {
					cmd.Println("catalog updated:", groupID, version)
				},
				func(err error) {
					cmd.PrintErrln("catalog watch error:", err)
				},
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory of product manifests to load and watch")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}
