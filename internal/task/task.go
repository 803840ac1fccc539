// Package task implements the task generation pipeline. Raw task text
// produced by an AI generator is parsed into structured tasks, dependency
// links are validated and repaired, tasks are scored and ranked, and
// missing time estimates are filled in heuristically.
package task

import "context"

// Priority levels, strongest first.
const (
	PriorityCritical = "Critical"
	PriorityHigh     = "High"
	PriorityMedium   = "Medium"
	PriorityLow      = "Low"
)

// Complexity levels assigned by the estimator.
const (
	ComplexityLow      = "Low"
	ComplexityMedium   = "Medium"
	ComplexityHigh     = "High"
	ComplexityVeryHigh = "Very High"
)

// Task is a single development task. The parser fills the declared
// fields; AnalyzeDependencies, PrioritizeTasks, and EstimateTasks fill
// the computed ones.
type Task struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Priority     string   `json:"priority"`
	Dependencies []string `json:"dependencies"`
	Estimate     string   `json:"estimate"`
	Notes        string   `json:"notes"`

	// Computed by AnalyzeDependencies.
	Depth          int      `json:"depth"`
	DependentTasks []string `json:"dependent_tasks"`
	DependentCount int      `json:"dependent_count"`

	// Computed by PrioritizeTasks.
	PriorityScore float64 `json:"priority_score"`
	Rank          int     `json:"rank"`

	// Computed by EstimateTasks.
	EstimatedHours float64 `json:"estimated_hours"`
	Complexity     string  `json:"complexity,omitempty"`
}

// Result is the output of a full pipeline run.
type Result struct {
	Tasks   []*Task `json:"tasks"`
	RawText string  `json:"raw_text"`
}

// Generator produces text from a prompt. Implemented by the AI clients.
type Generator interface {
	Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}
