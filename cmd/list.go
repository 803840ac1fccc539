package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/demoplan/demoplan/internal/project"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored task batches",
	Long:  `List the task batches stored in the project database, newest first.`,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := GetContext()

	proj, err := project.Find(ctx, flagProject)
	if err != nil {
		return fmt.Errorf("not in a project directory: %w", err)
	}
	defer proj.Close()

	batches, err := proj.DB.ListBatches(ctx)
	if err != nil {
		return fmt.Errorf("failed to list batches: %w", err)
	}

	if len(batches) == 0 {
		fmt.Println("No batches stored yet. Run 'demoplan generate <transcript>' first.")
		return nil
	}

	fmt.Print(renderBatchTable(batches))
	fmt.Printf("\n%d batches\n", len(batches))
	return nil
}
