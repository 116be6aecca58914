package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodeforge/taskengine/internal/intent"
)

func newPatchCmd() *cobra.Command {
	var tf targetFlags
	var ops []string
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Apply a list of set/append/remove field operations",
		Long: `Each --op is "op:field:value", e.g. --op append:success_criteria:"tests pass"
or --op remove:tags:wip. Patchable fields are success_criteria, risks,
problems, next_steps, history, tags, depends_on and force_complete_steps;
remove takes the value to drop, as in --op remove:tags:wip.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parsePatchOps(ops)
			if err != nil {
				return err
			}
			return runIntent(cmd, intent.Request{
				Intent: "patch", Task: tf.task, Domain: tf.domain, Path: tf.path,
				ExpectedTargetID: tf.expectedTargetID, StrictTargeting: tf.strictTargeting,
				ExpectedRevision: tf.revisionPtr(cmd),
				Ops:              parsed,
			})
		},
	}
	tf.bind(cmd)
	cmd.Flags().StringArrayVar(&ops, "op", nil, `op:field:value, e.g. "append:tags:wip"`)
	return cmd
}

func parsePatchOps(raw []string) ([]intent.PatchOp, error) {
	ops := make([]intent.PatchOp, 0, len(raw))
	for _, r := range raw {
		op, field, value, err := splitOp(r)
		if err != nil {
			return nil, err
		}
		ops = append(ops, intent.PatchOp{Op: op, Field: field, Value: value})
	}
	return ops, nil
}

func splitOp(r string) (op, field, value string, err error) {
	parts := []rune(r)
	first := -1
	second := -1
	for i, c := range parts {
		if c == ':' {
			if first == -1 {
				first = i
			} else if second == -1 {
				second = i
				break
			}
		}
	}
	if first == -1 {
		return "", "", "", fmt.Errorf("invalid --op %q: expected op:field:value", r)
	}
	op = string(parts[:first])
	if second == -1 {
		field = string(parts[first+1:])
		return op, field, "", nil
	}
	field = string(parts[first+1 : second])
	value = string(parts[second+1:])
	return op, field, value, nil
}
