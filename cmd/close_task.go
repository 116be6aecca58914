package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nodeforge/taskengine/internal/intent"
)

func newCloseTaskCmd() *cobra.Command {
	var tf targetFlags
	var apply bool
	cmd := &cobra.Command{
		Use:   "close-task",
		Short: "Compute (or, with --apply, perform) a task's runway-to-close",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(cmd, intent.Request{
				Intent: "close_task", Task: tf.task, Domain: tf.domain, Path: tf.path,
				ExpectedTargetID: tf.expectedTargetID, StrictTargeting: tf.strictTargeting,
				Apply: apply,
			})
		},
	}
	tf.bind(cmd)
	cmd.Flags().BoolVar(&apply, "apply", false, "perform the closing mutation instead of only reporting the runway")
	return cmd
}
