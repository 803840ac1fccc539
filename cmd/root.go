package cmd

import (
	"context"

	"github.com/spf13/cobra"

	dpsignal "github.com/demoplan/demoplan/internal/signal"
)

var (
	// rootCtx holds the signal-cancellable context for the application
	rootCtx    context.Context
	rootCancel context.CancelFunc

	// flagProject overrides project auto-detection from the cwd
	flagProject string
)

var rootCmd = &cobra.Command{
	Use:   "demoplan",
	Short: "demoplan - turns demo transcripts into prioritized task plans",
	Long: `demoplan turns a software demo transcript or analysis summary into a
prioritized, estimated, dependency-aware development task list.

A transcript is expanded into a specification through an AI provider, the
specification is broken into tasks, and the tasks are analyzed, ranked,
estimated, and stored in the project database for later listing and export.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Create a cancellable context with signal handling
		rootCtx, rootCancel = dpsignal.WithSignalCancel(context.Background())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// Clean up the signal handler
		if rootCancel != nil {
			rootCancel()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

// GetContext returns the root context that is cancelled on SIGINT/SIGTERM.
// This should be used by all subcommands instead of context.Background().
func GetContext() context.Context {
	if rootCtx == nil {
		// Fallback if called before PersistentPreRun (shouldn't happen in normal use)
		return context.Background()
	}
	return rootCtx
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagProject, "project", "", "project directory (default: auto-detect from cwd)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(watchCmd)
}
