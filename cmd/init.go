package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/demoplan/demoplan/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a new demoplan project",
	Long: `Create a demoplan project in the given directory (default: the current
directory).

Writes a documented .demoplan/config.toml, creates the summaries directory
for incoming transcripts, and initializes the plan database.

Example:
  demoplan init
  demoplan init ~/myproject`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	proj, err := project.Create(GetContext(), dir)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	fmt.Printf("Project '%s' created at %s\n", proj.Config.Project.Name, proj.Root)
	fmt.Printf("  Config: %s\n", filepath.Join(proj.DataDir(), project.ConfigFile))
	fmt.Printf("  Database: %s\n", proj.DBPath())
	fmt.Printf("  Summaries: %s\n", proj.SummariesPath())
	fmt.Println()
	fmt.Println("Set the AI provider api_key in the config file, or export")
	fmt.Println("OPENROUTER_API_KEY / ANTHROPIC_API_KEY before generating.")
	return nil
}
