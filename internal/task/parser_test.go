package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTasksBasic(t *testing.T) {
	text := `# Backend

T1: Set up database schema
Description: Create the initial schema
Priority: Critical
Estimate: 2 days

T2: Build API endpoints
- Description: REST endpoints for tasks
- Priority: High
- Dependencies: T1
- Estimate: 3 days
- Notes: Use the standard router
`

	tasks := ParseTasks(text)
	require.Len(t, tasks, 2)

	t1 := tasks[0]
	assert.Equal(t, "T1", t1.ID)
	assert.Equal(t, "Set up database schema", t1.Name)
	assert.Equal(t, "Backend", t1.Category)
	assert.Equal(t, "Create the initial schema", t1.Description)
	assert.Equal(t, PriorityCritical, t1.Priority)
	assert.Equal(t, "2 days", t1.Estimate)
	assert.Empty(t, t1.Dependencies)

	t2 := tasks[1]
	assert.Equal(t, "T2", t2.ID)
	assert.Equal(t, "Build API endpoints", t2.Name)
	assert.Equal(t, "Backend", t2.Category)
	assert.Equal(t, "REST endpoints for tasks", t2.Description)
	assert.Equal(t, PriorityHigh, t2.Priority)
	assert.Equal(t, []string{"T1"}, t2.Dependencies)
	assert.Equal(t, "3 days", t2.Estimate)
	assert.Equal(t, "Use the standard router", t2.Notes)
}

func TestParseTasksHeaderForms(t *testing.T) {
	text := "Task 1: First task\ntask 2: Second task\nT10: Tenth task"

	tasks := ParseTasks(text)
	require.Len(t, tasks, 3)
	assert.Equal(t, "T1", tasks[0].ID, "Task N headers normalize to TN")
	assert.Equal(t, "T2", tasks[1].ID, "lowercase task headers normalize too")
	assert.Equal(t, "T10", tasks[2].ID)
	assert.Equal(t, "First task", tasks[0].Name)
}

func TestParseTasksCategoryHeaders(t *testing.T) {
	text := `BACKEND
T1: API work

This line is just text here
# Frontend Components
T2: Build UI screens
`

	tasks := ParseTasks(text)
	require.Len(t, tasks, 2)

	assert.Equal(t, "BACKEND", tasks[0].Category, "short uppercase line is a category")
	assert.Equal(t, "This line is just text here", tasks[0].Description,
		"short mixed-case line is description text, not a category")
	assert.Equal(t, "Frontend Components", tasks[1].Category, "markdown heading is a category")
}

func TestParseTasksDependencyForms(t *testing.T) {
	text := `T1: Base
T2: Dependent
Dependencies: T1, T5, and T1
T3: Another
Depends on T2 and T1
Dependencies: none
`

	tasks := ParseTasks(text)
	require.Len(t, tasks, 3)

	assert.Equal(t, []string{"T1", "T5", "T1"}, tasks[1].Dependencies,
		"parser keeps duplicates and unvalidated ids")
	assert.Empty(t, tasks[2].Dependencies,
		"a later dependencies line overwrites the earlier one")
}

func TestParseTasksPriority(t *testing.T) {
	text := `T1: One
priority: HIGH
T2: Two
Priority: urgent
T3: Three
`

	tasks := ParseTasks(text)
	require.Len(t, tasks, 3)
	assert.Equal(t, PriorityHigh, tasks[0].Priority, "level is capitalized")
	assert.Equal(t, PriorityMedium, tasks[1].Priority, "unknown level keeps the default")
	assert.Equal(t, PriorityMedium, tasks[2].Priority, "default priority is Medium")
}

func TestParseTasksDescriptionContinuation(t *testing.T) {
	text := `T1: Migrate data
Description: Move rows
across both clusters
- a bullet is not description
Unknown: attribute lines are dropped
`

	tasks := ParseTasks(text)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Move rows across both clusters", tasks[0].Description)
}

func TestParseTasksEmptyInput(t *testing.T) {
	assert.Empty(t, ParseTasks(""))
	assert.Empty(t, ParseTasks("\n\n\n"))
	assert.Empty(t, ParseTasks("just some text\nwith no task headers"))
}
