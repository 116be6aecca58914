package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nodeforge/taskengine/internal/intent"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the undo/redo log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(cmd, intent.Request{Intent: "history"})
		},
	}
	return cmd
}
