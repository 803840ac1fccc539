package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/demoplan/demoplan/internal/project"
)

var flagDeleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <batch-id>",
	Short: "Delete a stored batch",
	Long: `Delete a stored batch and its tasks from the project database.

The batch id may be abbreviated to a unique prefix. Use --force to skip
the confirmation prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&flagDeleteForce, "force", "f", false, "skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
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

	if !flagDeleteForce {
		fmt.Printf("About to delete batch %s (%s, %d tasks)\n", shortID(batch.ID), batch.Name, batch.TotalTasks)
		fmt.Print("Are you sure? [y/N]: ")

		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := proj.DB.DeleteBatch(ctx, batch.ID); err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}

	fmt.Printf("Deleted batch %s.\n", shortID(batch.ID))
	return nil
}
