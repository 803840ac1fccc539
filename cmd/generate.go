package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/demoplan/demoplan/internal/claude"
	"github.com/demoplan/demoplan/internal/extract"
	"github.com/demoplan/demoplan/internal/openrouter"
	"github.com/demoplan/demoplan/internal/project"
	"github.com/demoplan/demoplan/internal/store"
	"github.com/demoplan/demoplan/internal/task"
)

var (
	flagGenerateName   string
	flagGenerateExport string
)

var generateCmd = &cobra.Command{
	Use:   "generate <transcript>",
	Short: "Generate a task plan from a demo transcript",
	Long: `Generate a prioritized development task list from a demo transcript or
analysis summary file.

The transcript is expanded into a software specification through the
configured AI provider, the specification is broken into tasks, and the
analyzed batch is saved to the project database.

Example:
  demoplan generate summaries/checkout-demo.txt
  demoplan generate demo.md --name "Checkout flow" --export json,markdown`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&flagGenerateName, "name", "", "batch name (default: transcript filename)")
	generateCmd.Flags().StringVar(&flagGenerateExport, "export", "", "also export the batch (comma-separated: json,markdown,text)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := GetContext()

	proj, err := project.Find(ctx, flagProject)
	if err != nil {
		return fmt.Errorf("not in a project directory: %w", err)
	}
	defer proj.Close()

	gen, err := buildGenerator(proj)
	if err != nil {
		return err
	}

	fmt.Printf("Generating task plan from %s...\n", args[0])
	batch, tasks, err := generateBatch(ctx, proj, gen, args[0], flagGenerateName)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(renderTaskTable(tasks))
	printTotal(tasks)
	fmt.Printf("\nSaved batch %s (%s)\n", shortID(batch.ID), batch.Name)

	return exportBatch(proj, batch, tasks, flagGenerateExport)
}

// buildGenerator creates the configured AI client wrapped in the
// generation cache.
func buildGenerator(proj *project.Project) (task.Generator, error) {
	ai := &proj.Config.AI

	var (
		inner task.Generator
		model string
	)
	switch ai.GetProvider() {
	case project.ProviderAnthropic:
		client, err := claude.NewClient(ai.GetAPIKey(), ai.GetModel())
		if err != nil {
			return nil, fmt.Errorf("failed to create AI client: %w", err)
		}
		inner, model = client, client.Model()
	default:
		client, err := openrouter.NewClient(openrouter.Options{
			APIKey:         ai.GetAPIKey(),
			Model:          ai.GetModel(),
			FallbackModel:  ai.GetFallbackModel(),
			MaxInputTokens: ai.GetMaxInputTokens(),
			RateLimit:      ai.GetRateLimitRequests(),
			RatePeriod:     ai.GetRateLimitPeriod(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AI client: %w", err)
		}
		inner, model = client, client.Model()
	}

	return &store.CachingGenerator{DB: proj.DB, Inner: inner, Model: model}, nil
}

// generateBatch runs the full transcript-to-batch chain and saves the
// result. Used by generate and by the watch-mode job handler.
func generateBatch(ctx context.Context, proj *project.Project, gen task.Generator, path, name string) (*store.Batch, []*task.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	summary := strings.TrimSpace(string(data))
	if summary == "" {
		return nil, nil, fmt.Errorf("transcript %s is empty", path)
	}

	spec, err := extract.NewSpecGenerator(gen).GenerateSpecification(ctx, summary)
	if err != nil {
		return nil, nil, err
	}

	result, err := task.NewCreator(gen).Create(ctx, spec)
	if err != nil {
		return nil, nil, err
	}

	batch := newBatch(name, path, result)
	if err := proj.DB.SaveBatch(ctx, batch, result.Tasks); err != nil {
		return nil, nil, err
	}
	return batch, result.Tasks, nil
}

func newBatch(name, path string, result *task.Result) *store.Batch {
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return &store.Batch{
		ID:         uuid.New().String(),
		Name:       name,
		Source:     filepath.Base(path),
		RawText:    result.RawText,
		TotalTasks: len(result.Tasks),
		TotalHours: task.TotalEstimatedHours(result.Tasks),
	}
}
