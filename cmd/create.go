package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nodeforge/taskengine/internal/intent"
)

func newCreateCmd() *cobra.Command {
	var kind, title, parent, domain, phase, component string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a plan or task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntent(cmd, intent.Request{
				Intent: "create", Kind: kind, Title: title,
				Parent: parent, Domain: domain, Phase: phase, Component: component,
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", `"plan" or "task"`)
	cmd.Flags().StringVar(&title, "title", "", "title of the new root")
	cmd.Flags().StringVar(&parent, "parent", "", "parent plan ID (required for kind=task)")
	cmd.Flags().StringVar(&domain, "domain", "", "domain subdirectory")
	cmd.Flags().StringVar(&phase, "phase", "", "phase tag (kind=task only)")
	cmd.Flags().StringVar(&component, "component", "", "component tag (kind=task only)")
	return cmd
}
