package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/demoplan/demoplan/internal/extract"
	"github.com/demoplan/demoplan/internal/logging"
	"github.com/demoplan/demoplan/internal/prompts"
)

const taskMaxTokens = 3000

// Creator generates development tasks from a specification through an
// AI generator and the processing pipeline.
type Creator struct {
	gen Generator
}

// NewCreator returns a Creator backed by gen.
func NewCreator(gen Generator) *Creator {
	return &Creator{gen: gen}
}

// Create asks the generator for raw task text and runs it through the
// pipeline. A generation failure is returned to the caller; the parser
// never runs on error output.
func (c *Creator) Create(ctx context.Context, spec *extract.Specification) (*Result, error) {
	logging.Info("creating development tasks from specification")

	raw, err := c.gen.Generate(ctx,
		prompts.System(prompts.TaskGenerateTasks),
		taskPrompt(spec),
		taskMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generating tasks: %w", err)
	}

	return Process(raw), nil
}

// Process runs already-generated task text through the full pipeline:
// parse, analyze dependencies, prioritize, estimate.
func Process(text string) *Result {
	tasks := ParseTasks(text)
	tasks = AnalyzeDependencies(tasks)
	tasks = PrioritizeTasks(tasks)
	tasks = EstimateTasks(tasks)
	return &Result{Tasks: tasks, RawText: text}
}

const taskTemplate = `%s

SOFTWARE OVERVIEW:
%s

FUNCTIONAL REQUIREMENTS:
%s

USER STORIES:
%s

Based on the above information, create a comprehensive development task list that includes:

1. A breakdown of actionable tasks organized by category (e.g., Backend, Frontend, Database, etc.)
2. Dependencies between tasks (which tasks must be completed before others)
3. Priority levels for each task (Critical, High, Medium, Low)
4. Time estimates for each task (in hours or days)
5. Suggested implementation approach for complex tasks
6. Potential challenges and mitigations

Format your response as a structured task list that could be imported into a project management tool.
For each task, include:
- Task ID (e.g., T1, T2, etc.)
- Task name
- Description
- Category
- Priority
- Dependencies (list of Task IDs)
- Time estimate
- Implementation notes`

// taskPrompt renders the task-generation prompt from the specification
// overview, its functional requirements, and its user stories.
func taskPrompt(spec *extract.Specification) string {
	var reqs strings.Builder
	for i, r := range spec.FunctionalRequirements {
		fmt.Fprintf(&reqs, "%d. %s\n", i+1, r)
	}

	var stories strings.Builder
	for i, s := range spec.UserStories {
		fmt.Fprintf(&stories, "%d. As a %s, I want to %s", i+1, s.UserType, s.Action)
		if s.Benefit != "" {
			fmt.Fprintf(&stories, " so that %s", s.Benefit)
		}
		stories.WriteString("\n")
		for j, c := range s.AcceptanceCriteria {
			fmt.Fprintf(&stories, "   %d. %s\n", j+1, c)
		}
	}

	return fmt.Sprintf(taskTemplate, prompts.TaskGeneration, spec.Overview.Text, reqs.String(), stories.String())
}
