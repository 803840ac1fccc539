package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequirements(t *testing.T) {
	text := `Here are the extracted requirements.

FUNCTIONAL REQUIREMENTS:
1. Users can upload transcripts
2. Tasks are generated automatically

Non-Functional Requirements:
- Responses under two seconds
- 99.9% uptime

UI/UX Requirements:
- Dashboard with task table

Data Requirements:
- Tasks persist between sessions

Technical Requirements:
- Must run on Linux
`

	reqs := ParseRequirements(text)

	assert.Equal(t, []string{"Users can upload transcripts", "Tasks are generated automatically"}, reqs.Functional)
	assert.Equal(t, []string{"Responses under two seconds", "99.9% uptime"}, reqs.NonFunctional)
	assert.Equal(t, []string{"Dashboard with task table"}, reqs.UIUX)
	assert.Equal(t, []string{"Tasks persist between sessions"}, reqs.Data)
	assert.Equal(t, []string{"Must run on Linux"}, reqs.Technical)
	assert.Equal(t, 7, reqs.Count())
}

func TestParseRequirementsNonFunctionalNotMisfiled(t *testing.T) {
	text := `Non-functional requirements:
- Must scale to many users
`

	reqs := ParseRequirements(text)
	assert.Empty(t, reqs.Functional)
	assert.Equal(t, []string{"Must scale to many users"}, reqs.NonFunctional)
}

func TestParseRequirementsIgnoresTextOutsideSections(t *testing.T) {
	text := `- this bullet has no section
Some prose.

Functional requirements
- an actual requirement
`

	reqs := ParseRequirements(text)
	require.Equal(t, []string{"an actual requirement"}, reqs.Functional)
	assert.Equal(t, 1, reqs.Count())
}

func TestParseRequirementsHeaderMustStartLine(t *testing.T) {
	// A header buried mid-line does not open a section.
	text := `We cover functional requirements below.
- stray bullet
`

	reqs := ParseRequirements(text)
	assert.Zero(t, reqs.Count())
}

func TestParseRequirementsEmpty(t *testing.T) {
	reqs := ParseRequirements("")
	assert.Zero(t, reqs.Count())
}
