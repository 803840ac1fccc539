package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/demoplan/demoplan/internal/export"
	"github.com/demoplan/demoplan/internal/project"
	"github.com/demoplan/demoplan/internal/store"
	"github.com/demoplan/demoplan/internal/task"
)

var (
	flagExportFormat string
	flagExportName   string
)

var exportCmd = &cobra.Command{
	Use:   "export <batch-id>",
	Short: "Export a stored batch to a file",
	Long: `Export a stored batch to the project exports directory.

The format defaults to the [export] section of the config. The batch id
may be abbreviated to a unique prefix.

Example:
  demoplan export 3f2a91
  demoplan export 3f2a91 --format markdown --name sprint-plan`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&flagExportFormat, "format", "", "export format: json, markdown, or text (default: from config)")
	exportCmd.Flags().StringVar(&flagExportName, "name", "", "output filename without extension (default: plan_<batch-id>)")
}

func runExport(cmd *cobra.Command, args []string) error {
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

	format := flagExportFormat
	if format == "" {
		format = proj.Config.Export.GetFormat()
	}

	exp, err := export.New(proj.ExportsPath())
	if err != nil {
		return err
	}

	name := flagExportName
	if name == "" {
		name = exportName(batch)
	}

	path, err := exp.Export(batch, tasks, format, name)
	if err != nil {
		return err
	}

	fmt.Printf("Exported %s\n", path)
	return nil
}

// exportBatch writes the batch in each comma-separated format. Used by
// generate and tasks for their --export flag.
func exportBatch(proj *project.Project, batch *store.Batch, tasks []*task.Task, formats string) error {
	if formats == "" {
		return nil
	}

	exp, err := export.New(proj.ExportsPath())
	if err != nil {
		return err
	}

	name := exportName(batch)
	for _, format := range strings.Split(formats, ",") {
		format = strings.TrimSpace(format)
		if format == "" {
			continue
		}
		path, err := exp.Export(batch, tasks, format, name)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %s\n", path)
	}
	return nil
}

func exportName(batch *store.Batch) string {
	return "plan_" + shortID(batch.ID)
}
