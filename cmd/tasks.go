package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/demoplan/demoplan/internal/project"
	"github.com/demoplan/demoplan/internal/task"
)

var (
	flagTasksName   string
	flagTasksExport string
)

var tasksCmd = &cobra.Command{
	Use:   "tasks <task-text-file>",
	Short: "Build a task plan from already-generated task text",
	Long: `Run the task pipeline on a file that already contains a raw task list,
without calling the AI provider.

The text is parsed into tasks, dependencies are validated and repaired,
and the tasks are prioritized and estimated, then saved as a batch like
generate does.

Example:
  demoplan tasks raw-tasks.txt --export markdown`,
	Args: cobra.ExactArgs(1),
	RunE: runTasks,
}

func init() {
	tasksCmd.Flags().StringVar(&flagTasksName, "name", "", "batch name (default: input filename)")
	tasksCmd.Flags().StringVar(&flagTasksExport, "export", "", "also export the batch (comma-separated: json,markdown,text)")
}

func runTasks(cmd *cobra.Command, args []string) error {
	ctx := GetContext()

	proj, err := project.Find(ctx, flagProject)
	if err != nil {
		return fmt.Errorf("not in a project directory: %w", err)
	}
	defer proj.Close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read task text: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return fmt.Errorf("task text file %s is empty", args[0])
	}

	result := task.Process(text)
	if len(result.Tasks) == 0 {
		return fmt.Errorf("no tasks found in %s", args[0])
	}

	batch := newBatch(flagTasksName, args[0], result)
	if err := proj.DB.SaveBatch(ctx, batch, result.Tasks); err != nil {
		return err
	}

	fmt.Print(renderTaskTable(result.Tasks))
	printTotal(result.Tasks)
	fmt.Printf("\nSaved batch %s (%s)\n", shortID(batch.ID), batch.Name)

	return exportBatch(proj, batch, result.Tasks, flagTasksExport)
}
