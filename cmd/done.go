package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nodeforge/taskengine/internal/intent"
)

func newDoneCmd() *cobra.Command {
	var tf targetFlags
	var force bool
	var note string
	cmd := &cobra.Command{
		Use:   "done",
		Short: "Mark a step completed, force-confirming checkpoints if asked",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(cmd, intent.Request{
				Intent: "done", Task: tf.task, Domain: tf.domain, Path: tf.path,
				ExpectedTargetID: tf.expectedTargetID, StrictTargeting: tf.strictTargeting,
				ExpectedRevision: tf.revisionPtr(cmd),
				Force:            force, Note: note,
			})
		},
	}
	tf.bind(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "force-confirm all three checkpoints first")
	cmd.Flags().StringVar(&note, "note", "", "note attached to forced checkpoints and the override event")
	return cmd
}

func newCompleteCmd() *cobra.Command {
	var tf targetFlags
	var note string
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Sugar for done --force, defaulting the override reason",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(cmd, intent.Request{
				Intent: "complete", Task: tf.task, Domain: tf.domain, Path: tf.path,
				ExpectedTargetID: tf.expectedTargetID, StrictTargeting: tf.strictTargeting,
				ExpectedRevision: tf.revisionPtr(cmd),
				Note:             note,
			})
		},
	}
	tf.bind(cmd)
	cmd.Flags().StringVar(&note, "note", "", "override reason (defaulted if omitted)")
	return cmd
}
