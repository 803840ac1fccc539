package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/demoplan/demoplan/internal/store"
	"github.com/demoplan/demoplan/internal/task"
)

// Output styles shared across commands.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	totalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	// Priority indicator styles
	priorityCriticalStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("196"))

	priorityHighStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")) // Orange

	priorityMediumStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("75")) // Blue

	priorityLowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("247")) // Gray
)

const nameColumnWidth = 40

func priorityStyle(priority string) lipgloss.Style {
	switch priority {
	case task.PriorityCritical:
		return priorityCriticalStyle
	case task.PriorityHigh:
		return priorityHighStyle
	case task.PriorityLow:
		return priorityLowStyle
	default:
		return priorityMediumStyle
	}
}

// renderTaskTable renders tasks as an aligned, styled table. Tasks are
// printed in the given order, which callers keep rank-sorted.
func renderTaskTable(tasks []*task.Task) string {
	headers := []string{"#", "ID", "Task", "Category", "Priority", "Hours", "Depends On"}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			strconv.Itoa(t.Rank),
			t.ID,
			ansi.Truncate(t.Name, nameColumnWidth, "..."),
			t.Category,
			t.Priority,
			formatHours(t.EstimatedHours),
			strings.Join(t.Dependencies, ", "),
		})
	}

	widths := columnWidths(headers, rows)

	var b strings.Builder
	writeRow(&b, headers, widths, func(col int, cell string) string {
		return headerStyle.Render(cell)
	})
	writeSeparator(&b, widths)
	for i, row := range rows {
		t := tasks[i]
		writeRow(&b, row, widths, func(col int, cell string) string {
			switch col {
			case 4:
				return priorityStyle(t.Priority).Render(cell)
			case 6:
				return dimStyle.Render(cell)
			default:
				return cell
			}
		})
	}
	return b.String()
}

// renderBatchTable renders stored batches, newest first as listed.
func renderBatchTable(batches []*store.Batch) string {
	headers := []string{"ID", "Name", "Source", "Tasks", "Hours", "Created"}
	rows := make([][]string, 0, len(batches))
	for _, batch := range batches {
		rows = append(rows, []string{
			shortID(batch.ID),
			ansi.Truncate(batch.Name, nameColumnWidth, "..."),
			batch.Source,
			strconv.Itoa(batch.TotalTasks),
			formatHours(batch.TotalHours),
			batch.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	widths := columnWidths(headers, rows)

	var b strings.Builder
	writeRow(&b, headers, widths, func(col int, cell string) string {
		return headerStyle.Render(cell)
	})
	writeSeparator(&b, widths)
	for _, row := range rows {
		writeRow(&b, row, widths, func(col int, cell string) string {
			if col == 5 {
				return dimStyle.Render(cell)
			}
			return cell
		})
	}
	return b.String()
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// writeRow pads cells to the column width before styling so ANSI codes
// never skew the alignment.
func writeRow(b *strings.Builder, cells []string, widths []int, style func(col int, cell string) string) {
	for i, cell := range cells {
		padded := cell
		if i < len(cells)-1 {
			padded += strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		}
		b.WriteString(style(i, padded))
		if i < len(cells)-1 {
			b.WriteString("  ")
		}
	}
	b.WriteString("\n")
}

func writeSeparator(b *strings.Builder, widths []int) {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}
	b.WriteString(dimStyle.Render(strings.Join(parts, "  ")))
	b.WriteString("\n")
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printTotal(tasks []*task.Task) {
	total := task.TotalEstimatedHours(tasks)
	fmt.Printf("\n%s\n", totalStyle.Render(fmt.Sprintf("Total: %d tasks, %s estimated hours", len(tasks), formatHours(total))))
}
