// Package export writes task batches to disk as JSON, Markdown, or plain
// text.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/demoplan/demoplan/internal/logging"
	"github.com/demoplan/demoplan/internal/store"
	"github.com/demoplan/demoplan/internal/task"
)

// Supported formats.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

const (
	exportVersion = "1.0"
	textWidth     = 80
)

// Exporter writes batches into a single output directory.
type Exporter struct {
	dir string
}

// New creates the output directory if needed and returns an Exporter for
// it.
func New(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &Exporter{dir: dir}, nil
}

// Dir returns the output directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// Export writes the batch in the given format and returns the file path.
// An empty name falls back to a timestamped one.
func (e *Exporter) Export(batch *store.Batch, tasks []*task.Task, format, name string) (string, error) {
	if name == "" {
		name = "export_" + time.Now().Format("20060102_150405")
	}

	doc := buildDocument(batch, tasks)

	var path, content string
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode export: %w", err)
		}
		path = filepath.Join(e.dir, name+".json")
		content = string(data) + "\n"
	case FormatMarkdown:
		path = filepath.Join(e.dir, name+".md")
		content = renderMarkdown(doc)
	case FormatText:
		path = filepath.Join(e.dir, name+".txt")
		content = renderText(doc)
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	logging.Info("wrote export", "path", path, "format", format)
	return path, nil
}

type document struct {
	Title      string       `json:"title"`
	BatchID    string       `json:"batch_id"`
	Source     string       `json:"source,omitempty"`
	CreatedAt  string       `json:"created_at,omitempty"`
	TotalTasks int          `json:"total_tasks"`
	TotalHours float64      `json:"total_hours"`
	Tasks      []*task.Task `json:"tasks"`
	RawText    string       `json:"raw_text,omitempty"`
	Metadata   metadata     `json:"metadata"`
}

type metadata struct {
	ExportedAt string `json:"exported_at"`
	Version    string `json:"version"`
}

func buildDocument(batch *store.Batch, tasks []*task.Task) *document {
	doc := &document{
		Title:      batch.Name,
		BatchID:    batch.ID,
		Source:     batch.Source,
		TotalTasks: len(tasks),
		TotalHours: task.TotalEstimatedHours(tasks),
		Tasks:      tasks,
		RawText:    batch.RawText,
		Metadata: metadata{
			ExportedAt: time.Now().Format(time.RFC3339),
			Version:    exportVersion,
		},
	}
	if doc.Title == "" {
		doc.Title = "Task Export"
	}
	if !batch.CreatedAt.IsZero() {
		doc.CreatedAt = batch.CreatedAt.Format(time.RFC3339)
	}
	return doc
}

type categoryGroup struct {
	Name  string
	Tasks []*task.Task
}

// groupByCategory buckets tasks by category, keeping both the category
// order of first appearance and the task order within each bucket.
func groupByCategory(tasks []*task.Task) []categoryGroup {
	var groups []categoryGroup
	index := make(map[string]int)
	for _, t := range tasks {
		name := strings.TrimSpace(t.Category)
		if name == "" {
			name = "General"
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, categoryGroup{Name: name})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}
	return groups
}

func renderMarkdown(doc *document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", doc.Title)

	b.WriteString("## Metadata\n\n")
	fmt.Fprintf(&b, "- **exported_at:** %s\n", doc.Metadata.ExportedAt)
	fmt.Fprintf(&b, "- **version:** %s\n\n", doc.Metadata.Version)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- **batch_id:** %s\n", doc.BatchID)
	if doc.Source != "" {
		fmt.Fprintf(&b, "- **source:** %s\n", doc.Source)
	}
	fmt.Fprintf(&b, "- **total_tasks:** %d\n", doc.TotalTasks)
	fmt.Fprintf(&b, "- **total_hours:** %s\n", hours(doc.TotalHours))

	b.WriteString("\n## Tasks\n")
	for _, group := range groupByCategory(doc.Tasks) {
		fmt.Fprintf(&b, "\n### %s\n", group.Name)
		for _, t := range group.Tasks {
			fmt.Fprintf(&b, "\n#### %s: %s\n\n", t.ID, t.Name)
			if t.Description != "" {
				fmt.Fprintf(&b, "%s\n\n", t.Description)
			}
			fmt.Fprintf(&b, "- **priority:** %s\n", t.Priority)
			fmt.Fprintf(&b, "- **estimated_hours:** %s\n", hours(t.EstimatedHours))
			if t.Estimate != "" {
				fmt.Fprintf(&b, "- **estimate:** %s\n", t.Estimate)
			}
			if t.Complexity != "" {
				fmt.Fprintf(&b, "- **complexity:** %s\n", t.Complexity)
			}
			if len(t.Dependencies) > 0 {
				fmt.Fprintf(&b, "- **dependencies:** %s\n", strings.Join(t.Dependencies, ", "))
			}
			if len(t.DependentTasks) > 0 {
				fmt.Fprintf(&b, "- **dependent_tasks:** %s\n", strings.Join(t.DependentTasks, ", "))
			}
			if t.Notes != "" {
				fmt.Fprintf(&b, "- **notes:** %s\n", t.Notes)
			}
		}
	}

	if doc.RawText != "" {
		b.WriteString("\n## Raw Generated Text\n\n```\n")
		b.WriteString(strings.TrimRight(doc.RawText, "\n"))
		b.WriteString("\n```\n")
	}
	return b.String()
}

func renderText(doc *document) string {
	var b strings.Builder
	b.WriteString(doc.Title + "\n")
	b.WriteString(strings.Repeat("=", utf8.RuneCountInString(doc.Title)) + "\n\n")

	fmt.Fprintf(&b, "Exported: %s\n", doc.Metadata.ExportedAt)
	fmt.Fprintf(&b, "Batch: %s\n", doc.BatchID)
	if doc.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", doc.Source)
	}
	fmt.Fprintf(&b, "Tasks: %d\n", doc.TotalTasks)
	fmt.Fprintf(&b, "Total hours: %s\n", hours(doc.TotalHours))

	for _, group := range groupByCategory(doc.Tasks) {
		fmt.Fprintf(&b, "\n%s\n%s\n", group.Name, strings.Repeat("-", utf8.RuneCountInString(group.Name)))
		for _, t := range group.Tasks {
			fmt.Fprintf(&b, "\n%d. %s: %s [%s]\n", t.Rank, t.ID, t.Name, t.Priority)
			if t.Description != "" {
				writeWrapped(&b, t.Description, 4)
			}
			fmt.Fprintf(&b, "    Estimated hours: %s\n", hours(t.EstimatedHours))
			if len(t.Dependencies) > 0 {
				fmt.Fprintf(&b, "    Depends on: %s\n", strings.Join(t.Dependencies, ", "))
			}
			if t.Notes != "" {
				writeWrapped(&b, "Notes: "+t.Notes, 4)
			}
		}
	}

	if doc.RawText != "" {
		b.WriteString("\nRaw Generated Text\n------------------\n\n")
		b.WriteString(strings.TrimRight(doc.RawText, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

func writeWrapped(b *strings.Builder, text string, pad int) {
	wrapped := wordwrap.String(text, textWidth-pad)
	b.WriteString(indent.String(wrapped, uint(pad)))
	b.WriteString("\n")
}

func hours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
