package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nodeforge/taskengine/internal/intent"
	"github.com/nodeforge/taskengine/internal/node"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show focus, store signature, and task counts",
		Long:  "Display the current focus, the store's signature, and a breakdown of task counts by status.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd)
		},
	}
}

func runStatus(cmd *cobra.Command) error {
	m, err := newManager()
	if err != nil {
		return err
	}

	ctxResp := intent.Process(m, intent.Request{Intent: "context", IncludeAll: true})
	storageResp := intent.Process(m, intent.Request{Intent: "storage"})

	out := cmd.OutOrStdout()
	if !ctxResp.Success {
		fmt.Fprintf(out, "failed to read context: %s\n", ctxResp.ErrorMessage)
	} else if result, ok := ctxResp.Result.(map[string]any); ok {
		if hasFocus, _ := result["has_focus"].(bool); hasFocus {
			fmt.Fprintf(out, "focus: %v (%v)\n", result["focus_id"], result["focus_domain"])
		} else {
			fmt.Fprintln(out, "focus: none")
		}
		counts := map[node.Status]int{}
		if items, ok := result["tasks"].([]map[string]any); ok {
			for _, item := range items {
				status, _ := item["status"].(node.Status)
				counts[status]++
			}
			fmt.Fprintf(out, "tasks: %d total\n", len(items))
			for _, status := range []node.Status{node.StatusPending, node.StatusActive, node.StatusBlocked, node.StatusDone} {
				if n := counts[status]; n > 0 {
					fmt.Fprintf(out, "  %s: %d\n", strings.ToLower(string(status)), n)
				}
			}
		}
	}

	if !storageResp.Success {
		fmt.Fprintf(out, "failed to read storage signature: %s\n", storageResp.ErrorMessage)
	} else if result, ok := storageResp.Result.(map[string]any); ok {
		fmt.Fprintf(out, "store root: %v\n", result["root"])
		fmt.Fprintf(out, "signature: %v\n", result["signature"])
	}

	return nil
}
