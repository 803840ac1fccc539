// Package prompts holds the prompt text sent to the AI generator. The
// system prompt is shared; each pipeline stage supplies its own task
// type and body.
package prompts

import "fmt"

// Task types filled into the system prompt.
const (
	TaskExtractRequirements = "extract software requirements from video analysis"
	TaskGenerateSpec        = "create detailed software specifications from video analysis"
	TaskGenerateTasks       = "convert software specifications into actionable development tasks"
)

const systemTemplate = `You are an expert software development assistant that analyzes video content
and extracts detailed software specifications. Your task is to %s.`

// System returns the system prompt for the given task type.
func System(taskType string) string {
	return fmt.Sprintf(systemTemplate, taskType)
}

// SpecGeneration opens the specification-generation prompt.
const SpecGeneration = `Based on the video analysis, create a detailed software specification document that includes:
1. Overview and purpose
2. Functional requirements
3. Non-functional requirements
4. User stories
5. Data models
6. API endpoints (if applicable)
7. UI/UX specifications
8. Technical constraints and considerations`

// TaskGeneration opens the task-generation prompt.
const TaskGeneration = `Convert the software specification into a structured development plan with:
1. A breakdown of actionable tasks
2. Dependencies between tasks
3. Priority levels (Critical, High, Medium, Low)
4. Time estimates for each task
5. Suggested implementation approach
6. Potential challenges and mitigations`
