package rsgoctl

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/readystackgo/rsgo/internal/productorch"
	rsgostrings "github.com/readystackgo/rsgo/pkg/strings"
)

const spinnerInterval = 100 * time.Millisecond

// errorColumnMaxLen keeps a stack's error message from blowing out the
// table width in a terminal.
const errorColumnMaxLen = 80

// printResponse renders a productorch.Response as a stack-by-stack
// table using go-pretty.
func printResponse(cmd *cobra.Command, resp productorch.Response) {
	out := cmd.OutOrStdout()

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Stack", "Status", "Deployment ID", "New", "Error"})

	for _, r := range resp.StackResults {
		status := text.FgGreen.Sprint("ok")
		if !r.Success {
			status = text.FgRed.Sprint("failed")
		}
		depID := ""
		if r.DeploymentID != nil {
			depID = string(*r.DeploymentID)
		}
		t.AppendRow(table.Row{r.Name, status, depID, r.IsNewInUpgrade, rsgostrings.TruncateDescription(r.ErrorMessage, errorColumnMaxLen)})
	}
	t.Render()

	if len(resp.Warnings) > 0 {
		for _, w := range resp.Warnings {
			cmd.PrintErrln("warning:", w)
		}
	}

	cmd.Printf("status: %s\nsession: %s\nmessage: %s\n", resp.Status, resp.SessionID, resp.Message)
}
