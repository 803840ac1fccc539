package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/demoplan/demoplan/internal/project"
)

var flagShowRaw bool

var showCmd = &cobra.Command{
	Use:   "show <batch-id>",
	Short: "Show the tasks of a stored batch",
	Long: `Show the tasks of a stored batch in rank order.

The batch id may be abbreviated to a unique prefix, as printed by list.

Example:
  demoplan show 3f2a91
  demoplan show 3f2a91 --raw`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&flagShowRaw, "raw", false, "also print the raw generated task text")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := GetContext()

	proj, err := project.Find(ctx, flagProject)
	if err != nil {
		return fmt.Errorf("not in a project directory: %w", err)
	}
	defer proj.Close()

	batch, err := proj.DB.FindBatch(ctx, args[0])
	if err != nil {
		return err
	}

	tasks, err := proj.DB.GetBatchTasks(ctx, batch.ID)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	fmt.Printf("Batch %s (%s)\n", shortID(batch.ID), batch.Name)
	fmt.Printf("Source: %s, created %s\n\n", batch.Source, batch.CreatedAt.Format("2006-01-02 15:04"))

	fmt.Print(renderTaskTable(tasks))
	printTotal(tasks)

	if flagShowRaw && batch.RawText != "" {
		fmt.Printf("\n%s\n%s\n", headerStyle.Render("Raw generated text"), batch.RawText)
	}
	return nil
}
