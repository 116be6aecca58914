// Package cmd implements the CLI adapter over the intent processor: a
// generic "intent" command for the full JSON vocabulary, plus a handful of
// convenience subcommands for the common cases. See spec §6.5.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nodeforge/taskengine/internal/config"
	"github.com/nodeforge/taskengine/internal/logx"
	"github.com/nodeforge/taskengine/internal/manager"
	"github.com/nodeforge/taskengine/internal/syncservice"
)

var (
	cfgFile  string
	storeDir string
	debug    bool
)

// NewRootCmd builds the root command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "taskengine",
		Short: "Hierarchical file-backed task engine",
		Long: `taskengine is a CLI over a hierarchical, file-backed, revision-versioned
task tracking engine. It drives the same intent processor an embedding
program would call directly: every mutation goes through create, decompose,
verify, progress, done, patch, and friends.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logx.Init(logx.Config{Debug: debug})
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: taskengine.yaml, then the global config path)")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store", "", "store root directory (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newIntentCmd())
	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newDecomposeCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newProgressCmd())
	rootCmd.AddCommand(newDoneCmd())
	rootCmd.AddCommand(newCompleteCmd())
	rootCmd.AddCommand(newPatchCmd())
	rootCmd.AddCommand(newEditCmd())
	rootCmd.AddCommand(newRadarCmd())
	rootCmd.AddCommand(newHandoffCmd())
	rootCmd.AddCommand(newCloseTaskCmd())
	rootCmd.AddCommand(newUndoCmd())
	rootCmd.AddCommand(newRedoCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newStatusCmd())

	return rootCmd
}

// Execute runs the root command, exiting non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfigFile returns the --config flag value, consulted by every
// subcommand's config-loading step.
func GetConfigFile() string { return cfgFile }

// newManager loads configuration (honoring --config/--store) and opens the
// manager over the resolved store root.
func newManager() (*manager.Manager, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.LoadConfigWithFile(workDir, GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	root := cfg.Store.Root
	if storeDir != "" {
		root = storeDir
	}
	if root == "" {
		root = config.DefaultStoreRoot
	}

	var sync syncservice.Service = syncservice.Noop{}
	m, err := manager.New(root, sync, cfg.Sync.Enabled, cfg.Store.RetentionDays, cfg.Safety.MaxArrayLength)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return m, nil
}
