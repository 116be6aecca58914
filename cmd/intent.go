package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nodeforge/taskengine/internal/intent"
)

func newIntentCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "intent",
		Short: "Send a raw intent request (JSON) to the processor",
		Long: `Reads a Request JSON object from --file (or stdin if omitted), dispatches
it through Process, and prints the Response JSON to stdout. This is the
generic escape hatch covering the full intent vocabulary, including ones
with no dedicated subcommand (context, task_add, define, note, block,
batch, resume, storage, mirror).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if file != "" {
				data, err = os.ReadFile(file)
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read request: %w", err)
			}

			var req intent.Request
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("failed to parse request JSON: %w", err)
			}

			return runIntent(cmd, req)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to a JSON request file (default: stdin)")
	return cmd
}

// runIntent opens the store, dispatches req, and prints the Response as
// indented JSON. A request that fails at the intent level (Success=false)
// still prints its Response and exits 0 — it is the caller's job to check
// the success field; only a transport-level error (bad JSON, store open
// failure) is a CLI error.
func runIntent(cmd *cobra.Command, req intent.Request) error {
	m, err := newManager()
	if err != nil {
		return err
	}
	resp := intent.Process(m, req)
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
