package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nodeforge/taskengine/internal/intent"
)

func newDecomposeCmd() *cobra.Command {
	var tf targetFlags
	var title string
	var criteria, tests, blockers []string
	cmd := &cobra.Command{
		Use:   "decompose",
		Short: "Add a step to a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(cmd, intent.Request{
				Intent: "decompose", Task: tf.task, Domain: tf.domain, Path: tf.path,
				ExpectedTargetID: tf.expectedTargetID, StrictTargeting: tf.strictTargeting,
				ExpectedRevision: tf.revisionPtr(cmd),
				Steps: []intent.StepSpec{{Title: title, Criteria: criteria, Tests: tests, Blockers: blockers}},
			})
		},
	}
	tf.bind(cmd)
	cmd.Flags().StringVar(&title, "title", "", "title of the new step")
	cmd.Flags().StringSliceVar(&criteria, "criteria", nil, "success criteria lines")
	cmd.Flags().StringSliceVar(&tests, "tests", nil, "test lines")
	cmd.Flags().StringSliceVar(&blockers, "blockers", nil, "blocker lines")
	return cmd
}
