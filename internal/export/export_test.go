package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/demoplan/demoplan/internal/store"
	"github.com/demoplan/demoplan/internal/task"
)

func sampleBatch() *store.Batch {
	return &store.Batch{
		ID:        "batch-1234",
		Name:      "Demo Login Flow",
		Source:    "demo.txt",
		RawText:   "T1: Build login endpoint\nT2: Build login form",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func sampleTasks() []*task.Task {
	return []*task.Task{
		{
			ID:             "T1",
			Name:           "Build login endpoint",
			Description:    "Implement the session endpoint used by the login form to authenticate returning users against the account service and hand back a signed session token.",
			Category:       "Backend",
			Priority:       task.PriorityHigh,
			Estimate:       "8 hours",
			Dependencies:   []string{},
			DependentTasks: []string{"T2"},
			DependentCount: 1,
			Rank:           1,
			EstimatedHours: 8,
			Complexity:     task.ComplexityMedium,
		},
		{
			ID:             "T2",
			Name:           "Build login form",
			Category:       "Frontend",
			Priority:       task.PriorityMedium,
			Dependencies:   []string{"T1"},
			DependentTasks: []string{},
			Notes:          "Use the shared form component.",
			Rank:           2,
			EstimatedHours: 6,
		},
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "exports")

	exp, err := New(dir)
	require.NoError(t, err)
	require.Equal(t, dir, exp.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	exp, err := New(dir)
	require.NoError(t, err)

	path, err := exp.Export(sampleBatch(), sampleTasks(), FormatJSON, "plan")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "plan.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, "Demo Login Flow", doc["title"])
	require.Equal(t, "batch-1234", doc["batch_id"])
	require.Equal(t, "demo.txt", doc["source"])
	require.Equal(t, float64(2), doc["total_tasks"])
	require.Equal(t, float64(14), doc["total_hours"])

	meta, ok := doc["metadata"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "1.0", meta["version"])
	require.NotEmpty(t, meta["exported_at"])

	tasks, ok := doc["tasks"].([]any)
	require.True(t, ok)
	require.Len(t, tasks, 2)
	first, ok := tasks[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "T1", first["id"])
	require.Equal(t, "High", first["priority"])
}

func TestExportMarkdown(t *testing.T) {
	exp, err := New(t.TempDir())
	require.NoError(t, err)

	path, err := exp.Export(sampleBatch(), sampleTasks(), FormatMarkdown, "plan")
	require.NoError(t, err)
	require.Equal(t, ".md", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	require.Contains(t, content, "# Demo Login Flow\n")
	require.Contains(t, content, "## Metadata\n")
	require.Contains(t, content, "- **version:** 1.0\n")
	require.Contains(t, content, "- **batch_id:** batch-1234\n")
	require.Contains(t, content, "- **total_hours:** 14\n")
	require.Contains(t, content, "### Backend\n")
	require.Contains(t, content, "### Frontend\n")
	require.Contains(t, content, "#### T1: Build login endpoint\n")
	require.Contains(t, content, "- **estimated_hours:** 8\n")
	require.Contains(t, content, "- **complexity:** Medium\n")
	require.Contains(t, content, "- **dependencies:** T1\n")
	require.Contains(t, content, "- **dependent_tasks:** T2\n")
	require.Contains(t, content, "- **notes:** Use the shared form component.\n")
	require.Contains(t, content, "## Raw Generated Text\n")
	require.Contains(t, content, "```\nT1: Build login endpoint\nT2: Build login form\n```\n")

	// Category groups keep rank order.
	require.Less(t, strings.Index(content, "### Backend"), strings.Index(content, "### Frontend"))
}

func TestExportText(t *testing.T) {
	exp, err := New(t.TempDir())
	require.NoError(t, err)

	path, err := exp.Export(sampleBatch(), sampleTasks(), FormatText, "plan")
	require.NoError(t, err)
	require.Equal(t, ".txt", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	require.Contains(t, content, "Demo Login Flow\n===============\n")
	require.Contains(t, content, "Total hours: 14\n")
	require.Contains(t, content, "1. T1: Build login endpoint [High]\n")
	require.Contains(t, content, "2. T2: Build login form [Medium]\n")
	require.Contains(t, content, "    Depends on: T1\n")
	require.Contains(t, content, "    Notes: Use the shared form component.\n")
	require.Contains(t, content, "Raw Generated Text\n")

	for _, line := range strings.Split(content, "\n") {
		require.LessOrEqual(t, utf8.RuneCountInString(line), textWidth, "line too long: %q", line)
	}
}

func TestExportDefaultFilename(t *testing.T) {
	exp, err := New(t.TempDir())
	require.NoError(t, err)

	path, err := exp.Export(sampleBatch(), sampleTasks(), FormatJSON, "")
	require.NoError(t, err)

	base := filepath.Base(path)
	require.True(t, strings.HasPrefix(base, "export_"), "unexpected name %q", base)
	require.True(t, strings.HasSuffix(base, ".json"), "unexpected name %q", base)
}

func TestExportUnsupportedFormat(t *testing.T) {
	exp, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = exp.Export(sampleBatch(), sampleTasks(), "pdf", "plan")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported export format: pdf")
}

func TestExportUntitledBatch(t *testing.T) {
	exp, err := New(t.TempDir())
	require.NoError(t, err)

	batch := sampleBatch()
	batch.Name = ""

	path, err := exp.Export(batch, sampleTasks(), FormatMarkdown, "plan")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "# Task Export\n"))
}

func TestGroupByCategory(t *testing.T) {
	tasks := []*task.Task{
		{ID: "T1", Category: "Backend"},
		{ID: "T2", Category: ""},
		{ID: "T3", Category: "Backend"},
	}

	groups := groupByCategory(tasks)
	require.Len(t, groups, 2)
	require.Equal(t, "Backend", groups[0].Name)
	require.Equal(t, []*task.Task{tasks[0], tasks[2]}, groups[0].Tasks)
	require.Equal(t, "General", groups[1].Name)
	require.Equal(t, []*task.Task{tasks[1]}, groups[1].Tasks)
}
