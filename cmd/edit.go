package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nodeforge/taskengine/internal/intent"
)

func newEditCmd() *cobra.Command {
	var tf targetFlags
	var dependsOn []string
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Replace a task's dependency list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(cmd, intent.Request{
				Intent: "edit", Task: tf.task, Domain: tf.domain, Path: tf.path,
				ExpectedTargetID: tf.expectedTargetID, StrictTargeting: tf.strictTargeting,
				ExpectedRevision: tf.revisionPtr(cmd),
				DependsOn:        dependsOn,
			})
		},
	}
	tf.bind(cmd)
	cmd.Flags().StringSliceVar(&dependsOn, "depends-on", nil, "replacement dependency ID list")
	return cmd
}
