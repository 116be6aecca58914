package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nodeforge/taskengine/internal/intent"
)

func newRadarCmd() *cobra.Command {
	var tf targetFlags
	cmd := &cobra.Command{
		Use:   "radar",
		Short: "Summarize a task's now/next/blocked state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(cmd, intent.Request{
				Intent: "radar", Task: tf.task, Domain: tf.domain, Path: tf.path,
				ExpectedTargetID: tf.expectedTargetID, StrictTargeting: tf.strictTargeting,
			})
		},
	}
	tf.bind(cmd)
	return cmd
}
