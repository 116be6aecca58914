package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nodeforge/taskengine/internal/intent"
)

func newUndoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Revert the most recent mutation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(cmd, intent.Request{Intent: "undo"})
		},
	}
	return cmd
}

func newRedoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redo",
		Short: "Reapply the most recently undone mutation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(cmd, intent.Request{Intent: "redo"})
		},
	}
	return cmd
}
