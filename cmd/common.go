package cmd

import (
	"github.com/spf13/cobra"
)

// targetFlags holds the flags shared by every subcommand that targets an
// existing root: explicit task/plan ID, domain, path, and the
// strict-targeting/revision gate fields.
type targetFlags struct {
	task             string
	plan             string
	domain           string
	path             string
	expectedTargetID string
	strictTargeting  bool
	expectedRevision int
}

func (f *targetFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.task, "task", "", "target task ID")
	cmd.Flags().StringVar(&f.plan, "plan", "", "target plan ID")
	cmd.Flags().StringVar(&f.domain, "domain", "", "domain subdirectory of the target")
	cmd.Flags().StringVar(&f.path, "path", "", "path within the target (s:/t:/p: segments)")
	cmd.Flags().StringVar(&f.expectedTargetID, "expected-target-id", "", "required once the store holds more than one active root")
	cmd.Flags().BoolVar(&f.strictTargeting, "strict-targeting", false, "force the strict-targeting gate even with one active root")
	cmd.Flags().IntVar(&f.expectedRevision, "expected-revision", 0, "reject the mutation unless the target is at this revision")
}

// revisionPtr returns a pointer to the expected-revision flag value only
// when the flag was actually set, matching Request.ExpectedRevision's
// "omit means no gate" semantics.
func (f *targetFlags) revisionPtr(cmd *cobra.Command) *int {
	if !cmd.Flags().Changed("expected-revision") {
		return nil
	}
	rev := f.expectedRevision
	return &rev
}
