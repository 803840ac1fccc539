package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generateCall struct {
	system    string
	prompt    string
	maxTokens int
}

type scriptedGenerator struct {
	responses []string
	errs      []error
	calls     []generateCall
}

func (s *scriptedGenerator) Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	i := len(s.calls)
	s.calls = append(s.calls, generateCall{system: system, prompt: prompt, maxTokens: maxTokens})
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", nil
}

func TestGenerateSpecification(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"Functional Requirements:\n- Upload transcripts\n- Generate tasks\n",
		"# Overview\nA planning tool.\n\n## Functional Requirements\n- Upload transcripts\n",
	}}
	sg := NewSpecGenerator(gen)

	spec, err := sg.GenerateSpecification(context.Background(), "The demo shows a planner.")
	require.NoError(t, err)
	require.Len(t, gen.calls, 2)

	extraction := gen.calls[0]
	assert.Contains(t, extraction.system, "extract software requirements from video analysis")
	assert.Contains(t, extraction.prompt, "VIDEO SUMMARY:\nThe demo shows a planner.")
	assert.Equal(t, 2000, extraction.maxTokens)

	generation := gen.calls[1]
	assert.Contains(t, generation.system, "create detailed software specifications from video analysis")
	assert.Contains(t, generation.prompt, "EXTRACTED REQUIREMENTS:")
	assert.Contains(t, generation.prompt, "FUNCTIONAL REQUIREMENTS:\n1. Upload transcripts\n2. Generate tasks")
	assert.Contains(t, generation.prompt, "NON_FUNCTIONAL REQUIREMENTS:")
	assert.Equal(t, 4000, generation.maxTokens)

	assert.Equal(t, "A planning tool.", spec.Overview.Text)
	assert.Equal(t, []string{"Upload transcripts"}, spec.FunctionalRequirements)
}

func TestGenerateSpecificationExtractionFailure(t *testing.T) {
	genErr := errors.New("rate limited")
	sg := NewSpecGenerator(&scriptedGenerator{errs: []error{genErr}})

	spec, err := sg.GenerateSpecification(context.Background(), "summary")
	require.Error(t, err)
	assert.Nil(t, spec)
	assert.ErrorIs(t, err, genErr)
	assert.Contains(t, err.Error(), "extracting requirements")
}

func TestGenerateSpecificationGenerationFailure(t *testing.T) {
	genErr := errors.New("timeout")
	sg := NewSpecGenerator(&scriptedGenerator{
		responses: []string{"Functional Requirements:\n- One\n"},
		errs:      []error{nil, genErr},
	})

	spec, err := sg.GenerateSpecification(context.Background(), "summary")
	require.Error(t, err)
	assert.Nil(t, spec)
	assert.ErrorIs(t, err, genErr)
	assert.Contains(t, err.Error(), "generating specification")
}

func TestFormatRequirementsIncludesEmptyGroups(t *testing.T) {
	text := formatRequirements(&Requirements{Functional: []string{"One"}})

	assert.Contains(t, text, "FUNCTIONAL REQUIREMENTS:\n1. One")
	assert.Contains(t, text, "DATA REQUIREMENTS:")
	assert.Contains(t, text, "TECHNICAL REQUIREMENTS:")
}
