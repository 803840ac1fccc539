package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/demoplan/demoplan/internal/project"
	"github.com/demoplan/demoplan/internal/queue"
	"github.com/demoplan/demoplan/internal/watch"
)

const jobTypeGenerate = "generate"

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and generate plans for new transcripts",
	Long: `Watch a directory for new or updated transcript files and generate a
task plan for each through the job queue.

Defaults to the project summaries directory. Files are debounced so a
transcript still being written is processed once, after it settles.
Press Ctrl-C to stop.

Example:
  demoplan watch
  demoplan watch ~/transcripts`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	dir := proj.SummariesPath()
	if len(args) > 0 {
		dir = args[0]
	}

	manager := queue.NewManager(queue.Options{
		Workers: proj.Config.Queue.GetWorkers(),
		JobTTL:  proj.Config.Queue.GetJobTTL(),
	})
	manager.Register(jobTypeGenerate, func(ctx context.Context, job *queue.Job) (any, error) {
		path, ok := job.Payload.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected payload %T", job.Payload)
		}
		batch, tasks, err := generateBatch(ctx, proj, gen, path, "")
		if err != nil {
			fmt.Printf("Failed to process %s: %v\n", filepath.Base(path), err)
			return nil, err
		}
		fmt.Printf("Generated %d tasks from %s (batch %s)\n", len(tasks), filepath.Base(path), shortID(batch.ID))
		return batch.ID, nil
	})
	manager.Start(ctx)

	watcher, err := watch.New(watch.Config{
		Dir:        dir,
		Debounce:   proj.Config.Watch.GetDebounce(),
		Extensions: proj.Config.Watch.GetExtensions(),
	})
	if err != nil {
		manager.Stop()
		return err
	}
	if err := watcher.Start(); err != nil {
		manager.Stop()
		return err
	}

	fmt.Printf("Watching %s for transcripts (Ctrl-C to stop)...\n", dir)

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStopping...")
			_ = watcher.Stop()
			manager.Stop()
			printJobSummary(manager.All())
			return nil
		case path := <-watcher.Events():
			job, err := manager.Enqueue(jobTypeGenerate, path)
			if err != nil {
				fmt.Printf("Warning: failed to queue %s: %v\n", filepath.Base(path), err)
				continue
			}
			fmt.Printf("Queued %s (job %s)\n", filepath.Base(path), shortID(job.ID))
		}
	}
}

func printJobSummary(jobs []*queue.Job) {
	if len(jobs) == 0 {
		return
	}

	var completed, failed, unfinished int
	for _, job := range jobs {
		switch job.Status {
		case queue.StatusCompleted:
			completed++
		case queue.StatusFailed:
			failed++
		default:
			unfinished++
		}
	}

	fmt.Printf("Processed %d jobs: %d completed, %d failed", len(jobs), completed, failed)
	if unfinished > 0 {
		fmt.Printf(", %d unfinished", unfinished)
	}
	fmt.Println()
}
