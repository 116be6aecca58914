package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nodeforge/taskengine/internal/intent"
)

func newProgressCmd() *cobra.Command {
	var tf targetFlags
	var completed bool
	var force bool
	var overrideReason string
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Toggle a step's completed flag",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := completed
			return runIntent(cmd, intent.Request{
				Intent: "progress", Task: tf.task, Domain: tf.domain, Path: tf.path,
				ExpectedTargetID: tf.expectedTargetID, StrictTargeting: tf.strictTargeting,
				ExpectedRevision: tf.revisionPtr(cmd),
				Completed:        &c, Force: force, OverrideReason: overrideReason,
			})
		},
	}
	tf.bind(cmd)
	cmd.Flags().BoolVar(&completed, "completed", true, "set to false to un-complete")
	cmd.Flags().BoolVar(&force, "force", false, "bypass the ready-for-completion check")
	cmd.Flags().StringVar(&overrideReason, "override-reason", "", "required when --force is set")
	return cmd
}
