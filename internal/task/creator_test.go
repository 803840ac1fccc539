package task

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/demoplan/demoplan/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	response string
	err      error

	gotSystem    string
	gotPrompt    string
	gotMaxTokens int
}

func (f *fakeGenerator) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	f.gotSystem = system
	f.gotPrompt = prompt
	f.gotMaxTokens = maxTokens
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestCreatorCreate(t *testing.T) {
	gen := &fakeGenerator{response: `T1: Set up schema
Priority: High
T2: Build endpoints
Dependencies: T1
Priority: Critical
`}
	creator := NewCreator(gen)

	spec := &extract.Specification{
		Overview:               extract.Overview{Text: "A task planning tool."},
		FunctionalRequirements: []string{"Users can create tasks", "Tasks can be exported"},
		UserStories: []extract.UserStory{
			{
				UserType:           "developer",
				Action:             "see ranked tasks",
				Benefit:            "I know what to build first",
				AcceptanceCriteria: []string{"Tasks are ordered by rank"},
			},
		},
	}

	res, err := creator.Create(context.Background(), spec)
	require.NoError(t, err)
	require.Len(t, res.Tasks, 2)

	// The whole pipeline ran: ranks, depths, and estimates are set.
	assert.Equal(t, "T1", res.Tasks[0].ID)
	assert.Equal(t, 1, res.Tasks[0].Rank)
	assert.Equal(t, "T2", res.Tasks[1].ID)
	assert.Equal(t, 1, res.Tasks[1].Depth)
	assert.Positive(t, res.Tasks[0].EstimatedHours)
	assert.Equal(t, gen.response, res.RawText)

	assert.Contains(t, gen.gotSystem, "convert software specifications into actionable development tasks")
	assert.Equal(t, 3000, gen.gotMaxTokens)

	assert.Contains(t, gen.gotPrompt, "SOFTWARE OVERVIEW:\nA task planning tool.")
	assert.Contains(t, gen.gotPrompt, "1. Users can create tasks")
	assert.Contains(t, gen.gotPrompt, "2. Tasks can be exported")
	assert.Contains(t, gen.gotPrompt, "1. As a developer, I want to see ranked tasks so that I know what to build first")
	assert.Contains(t, gen.gotPrompt, "   1. Tasks are ordered by rank")
}

func TestCreatorCreateGenerationFailure(t *testing.T) {
	genErr := errors.New("model unavailable")
	creator := NewCreator(&fakeGenerator{err: genErr})

	res, err := creator.Create(context.Background(), &extract.Specification{})
	require.Error(t, err)
	assert.Nil(t, res, "no placeholder result on generation failure")
	assert.ErrorIs(t, err, genErr)
	assert.Contains(t, err.Error(), "generating tasks")
}

func TestProcess(t *testing.T) {
	text := "T1: Setup DB\nCategory: Database\nPriority: High\n\nT2: Build API\nDependencies: T1\nCategory: Backend\nPriority: Critical"

	res := Process(text)
	require.Len(t, res.Tasks, 2)

	// "Category:" lines match no parser rule, so both tasks have no
	// category and weigh 1.0. T1: 3 * 1.0 * 1 * 1.1 = 3.3 outranks
	// T2: 4 * 1.0 * 0.5 * 1.0 = 2.0.
	first, second := res.Tasks[0], res.Tasks[1]
	assert.Equal(t, "T1", first.ID)
	assert.Equal(t, 1, first.Rank)
	assert.InDelta(t, 3.3, first.PriorityScore, 1e-9)

	assert.Equal(t, "T2", second.ID)
	assert.Equal(t, 2, second.Rank)
	assert.InDelta(t, 2.0, second.PriorityScore, 1e-9)

	assert.Equal(t, 1, second.Depth)
	assert.Equal(t, 1, first.DependentCount)
	assert.Empty(t, first.Category)
	assert.Empty(t, second.Category)

	// No estimates in the text, so the heuristic default applies.
	assert.InDelta(t, 6, first.EstimatedHours, 1e-9)
	assert.InDelta(t, 6, second.EstimatedHours, 1e-9)
	assert.Equal(t, text, res.RawText)
}

func TestTaskPromptShape(t *testing.T) {
	spec := &extract.Specification{
		Overview: extract.Overview{Text: "Overview text"},
		UserStories: []extract.UserStory{
			{UserType: "admin", Action: "disable accounts"},
		},
	}

	prompt := taskPrompt(spec)

	assert.True(t, strings.HasPrefix(prompt, "Convert the software specification"))
	assert.Contains(t, prompt, "1. As a admin, I want to disable accounts\n")
	assert.NotContains(t, prompt, "so that", "benefit clause is omitted when empty")
	assert.Contains(t, prompt, "- Task ID (e.g., T1, T2, etc.)")
}
