package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/demoplan/demoplan/internal/logging"
	"github.com/demoplan/demoplan/internal/prompts"
)

// Generator produces text from a prompt. Implemented by the AI clients.
type Generator interface {
	Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}

// Token budgets for the two generation calls.
const (
	extractionMaxTokens = 2000
	specMaxTokens       = 4000
)

// SpecGenerator turns a video analysis summary into a structured
// specification: one AI call extracts requirements, a second expands
// them into a full specification document.
type SpecGenerator struct {
	gen Generator
}

// NewSpecGenerator returns a SpecGenerator backed by gen.
func NewSpecGenerator(gen Generator) *SpecGenerator {
	return &SpecGenerator{gen: gen}
}

// GenerateSpecification runs the extraction and specification calls and
// returns the formatted document.
func (g *SpecGenerator) GenerateSpecification(ctx context.Context, summary string) (*Specification, error) {
	logging.Info("generating specification from analysis summary")

	extraction, err := g.gen.Generate(ctx,
		prompts.System(prompts.TaskExtractRequirements),
		extractionPrompt(summary),
		extractionMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("extracting requirements: %w", err)
	}

	reqs := ParseRequirements(extraction)
	logging.Info("extracted requirements", "count", reqs.Count())

	specText, err := g.gen.Generate(ctx,
		prompts.System(prompts.TaskGenerateSpec),
		specificationPrompt(summary, reqs),
		specMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generating specification: %w", err)
	}

	return FormatSpecification(specText), nil
}

const extractionTemplate = `I need you to extract software requirements from the following video analysis.

VIDEO SUMMARY:
%s

Based on this information, identify and list the following types of requirements:

1. Functional Requirements:
   - What specific functions should the software perform?
   - What features must be included?
   - What user interactions are necessary?

2. Non-functional Requirements:
   - Performance expectations
   - Security considerations
   - Usability requirements
   - Scalability needs

3. UI/UX Requirements:
   - Interface components needed
   - Layout considerations
   - User flow requirements
   - Visual design elements

4. Data Requirements:
   - What data must be stored?
   - What data relationships exist?
   - Data validation rules
   - Data processing needs

5. Technical Requirements:
   - Specific technologies or frameworks
   - Integration requirements
   - Deployment considerations
   - Development constraints

Format your response as a structured list under each category. Be specific and detailed.
For each requirement, provide a clear, actionable statement that could be used by developers.`

func extractionPrompt(summary string) string {
	return fmt.Sprintf(extractionTemplate, summary)
}

const specificationTemplate = `%s

VIDEO SUMMARY:
%s

EXTRACTED REQUIREMENTS:
%s

Based on the above information, create a comprehensive software specification document that includes:

1. Overview and Purpose:
   - What is this software?
   - What problem does it solve?
   - Who are the target users?

2. Functional Requirements:
   - What specific functions should the software perform?
   - What are the user interactions and expected outcomes?

3. Non-functional Requirements:
   - Performance expectations
   - Security considerations
   - Scalability requirements
   - Usability requirements

4. User Stories:
   - As a [user type], I want to [action] so that [benefit]
   - Include acceptance criteria for each story

5. Data Models:
   - What data entities exist in the system?
   - What are their attributes and relationships?
   - Include a simple ER diagram description

6. API Endpoints (if applicable):
   - What endpoints should the system expose?
   - What are the request/response formats?

7. UI/UX Specifications:
   - Describe key screens and their components
   - Explain user flows between screens
   - Note any specific design requirements

8. Technical Constraints and Considerations:
   - Any specific technologies to use or avoid
   - Integration requirements
   - Deployment considerations

Format your response as a structured specification document that could be used by developers to implement this software.`

func specificationPrompt(summary string, reqs *Requirements) string {
	return fmt.Sprintf(specificationTemplate, prompts.SpecGeneration, summary, formatRequirements(reqs))
}

// formatRequirements renders requirements as numbered lists under
// uppercase type headers, the shape the specification prompt expects.
func formatRequirements(reqs *Requirements) string {
	var b strings.Builder
	for _, group := range []struct {
		label string
		items []string
	}{
		{"FUNCTIONAL", reqs.Functional},
		{"NON_FUNCTIONAL", reqs.NonFunctional},
		{"UI_UX", reqs.UIUX},
		{"DATA", reqs.Data},
		{"TECHNICAL", reqs.Technical},
	} {
		fmt.Fprintf(&b, "\n%s REQUIREMENTS:\n", group.label)
		for i, item := range group.items {
			fmt.Fprintf(&b, "%d. %s\n", i+1, item)
		}
	}
	return b.String()
}
