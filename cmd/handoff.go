package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nodeforge/taskengine/internal/intent"
)

func newHandoffCmd() *cobra.Command {
	var tf targetFlags
	cmd := &cobra.Command{
		Use:   "handoff",
		Short: "Produce a handoff brief for a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(cmd, intent.Request{
				Intent: "handoff", Task: tf.task, Domain: tf.domain, Path: tf.path,
				ExpectedTargetID: tf.expectedTargetID, StrictTargeting: tf.strictTargeting,
			})
		},
	}
	tf.bind(cmd)
	return cmd
}
