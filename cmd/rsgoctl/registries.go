package rsgoctl

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/readystackgo/rsgo/internal/registryauth"
)

func newRegistriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registries",
		Short: "Manage registry credentials",
	}
	cmd.AddCommand(newRegistriesListCmd())
	cmd.AddCommand(newRegistriesAddCmd())
	return cmd
}

func newRegistriesListCmd() *cobra.Command {
	var orgID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registry credentials for an organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Name", "URL", "Default", "Patterns"})
			for _, r := range a.Registries.ListForOrg(orgID) {
				t.AppendRow(table.Row{r.Name, r.URL, r.IsDefault, strings.Join(r.ImagePatterns, ", ")})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "organization ID")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

func newRegistriesAddCmd() *cobra.Command {
	var (
		orgID     string
		name      string
		url       string
		username  string
		password  string
		patterns  []string
		isDefault bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a registry credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			reg := registryauth.Registry{
				OrgID:         orgID,
				Name:          name,
				URL:           url,
				Username:      username,
				Password:      password,
				ImagePatterns: patterns,
				IsDefault:     isDefault,
			}
			id, err := a.Registries.Add(reg)
			if err != nil {
				return err
			}
			reg.ID = id
			if err := persistRegistry(a.Storage, reg); err != nil {
				return fmt.Errorf("persisting registry: %w", err)
			}
			cmd.Println("registry added:", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "organization ID")
	cmd.Flags().StringVar(&name, "name", "", "registry name")
	cmd.Flags().StringVar(&url, "url", "", "registry URL")
	cmd.Flags().StringVar(&username, "username", "", "registry username")
	cmd.Flags().StringVar(&password, "password", "", "registry password")
	cmd.Flags().StringSliceVar(&patterns, "pattern", nil, "image reference glob pattern this registry authenticates (repeatable)")
	cmd.Flags().BoolVar(&isDefault, "default", false, "mark this registry as the organization's default")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}
