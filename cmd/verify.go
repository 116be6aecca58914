package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nodeforge/taskengine/internal/intent"
)

func newVerifyCmd() *cobra.Command {
	var tf targetFlags
	var criteria, tests, blockers bool
	var note string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Confirm one or more checkpoints on a step",
		RunE: func(cmd *cobra.Command, args []string) error {
			cps := map[string]intent.CheckpointInput{}
			confirmed := true
			if criteria {
				cps["criteria"] = intent.CheckpointInput{Confirmed: &confirmed, Note: note}
			}
			if tests {
				cps["tests"] = intent.CheckpointInput{Confirmed: &confirmed, Note: note}
			}
			if blockers {
				cps["blockers"] = intent.CheckpointInput{Confirmed: &confirmed, Note: note}
			}
			return runIntent(cmd, intent.Request{
				Intent: "verify", Task: tf.task, Domain: tf.domain, Path: tf.path,
				ExpectedTargetID: tf.expectedTargetID, StrictTargeting: tf.strictTargeting,
				ExpectedRevision: tf.revisionPtr(cmd),
				Checkpoints:      cps,
			})
		},
	}
	tf.bind(cmd)
	cmd.Flags().BoolVar(&criteria, "criteria", false, "confirm the criteria checkpoint")
	cmd.Flags().BoolVar(&tests, "tests", false, "confirm the tests checkpoint")
	cmd.Flags().BoolVar(&blockers, "blockers", false, "confirm the blockers checkpoint")
	cmd.Flags().StringVar(&note, "note", "", "note attached to every confirmed checkpoint")
	return cmd
}
