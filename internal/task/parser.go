package task

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/demoplan/demoplan/internal/logging"
)

var (
	taskHeaderRe   = regexp.MustCompile(`(?i)^(T\d+|Task\s+\d+)[\s:]+(.+)$`)
	priorityRe     = regexp.MustCompile(`(?i)Priority:?\s*(Critical|High|Medium|Low)`)
	dependenciesRe = regexp.MustCompile(`(?i)(?:Dependencies|Depends\s+on):?\s*(.+)`)
	taskIDRe       = regexp.MustCompile(`T\d+`)
	estimateRe     = regexp.MustCompile(`(?i)(Estimate|Time):?\s*(.+)`)
	notesRe        = regexp.MustCompile(`(?i)(Implementation|Notes):?\s*(.+)`)
)

// ParseTasks converts generated task text into structured tasks. Each
// line is classified in order: blank lines are skipped, category
// headers set the category for subsequent tasks, task headers start a
// new task, and remaining lines fill attributes of the current task.
// Unrecognized input degrades to description text or is dropped; the
// parser never fails.
func ParseTasks(text string) []*Task {
	var tasks []*Task
	var current *Task
	category := ""

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if isCategoryHeader(line) {
			category = strings.TrimSpace(strings.Trim(line, "#"))
			continue
		}

		if m := taskHeaderRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				tasks = append(tasks, current)
			}
			current = &Task{
				ID:           normalizeTaskID(m[1]),
				Name:         strings.TrimSpace(m[2]),
				Category:     category,
				Priority:     PriorityMedium,
				Dependencies: []string{},
			}
			continue
		}

		if current == nil {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(line, "Description:") || strings.HasPrefix(line, "- Description:"):
			_, after, _ := strings.Cut(line, ":")
			current.Description = strings.TrimSpace(after)

		case strings.Contains(lower, "priority"):
			if m := priorityRe.FindStringSubmatch(line); m != nil {
				current.Priority = capitalize(m[1])
			}

		case strings.Contains(lower, "dependencies") || strings.Contains(lower, "depends on"):
			if m := dependenciesRe.FindStringSubmatch(line); m != nil {
				deps := taskIDRe.FindAllString(m[1], -1)
				if deps == nil {
					deps = []string{}
				}
				current.Dependencies = deps
			}

		case strings.Contains(lower, "estimate") || strings.Contains(lower, "time"):
			if m := estimateRe.FindStringSubmatch(line); m != nil {
				current.Estimate = strings.TrimSpace(m[2])
			}

		case strings.Contains(lower, "implementation") || strings.Contains(lower, "notes"):
			if m := notesRe.FindStringSubmatch(line); m != nil {
				current.Notes = strings.TrimSpace(m[2])
			}

		default:
			// Free text continues the description unless it looks like
			// a bullet or an unrecognized "key: value" attribute.
			if !strings.HasPrefix(line, "-") && !strings.Contains(line, ":") {
				if current.Description == "" {
					current.Description = line
				} else {
					current.Description += " " + line
				}
			}
		}
	}

	if current != nil {
		tasks = append(tasks, current)
	}

	logging.Debug("parsed tasks", "count", len(tasks))
	return tasks
}

// isCategoryHeader reports whether a line is a category heading: short,
// free of colons, and either all-uppercase or a markdown heading.
func isCategoryHeader(line string) bool {
	if len(line) >= 30 || strings.Contains(line, ":") {
		return false
	}
	return strings.HasPrefix(line, "#") || isUpper(line)
}

// isUpper reports whether s contains at least one letter and no
// lowercase letters.
func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// normalizeTaskID maps header markers like "Task 3", "task 3", or "t3"
// to the canonical form "T3".
func normalizeTaskID(raw string) string {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if rest, ok := strings.CutPrefix(id, "TASK"); ok {
		id = "T" + strings.TrimSpace(rest)
	}
	return id
}

// capitalize uppercases the first letter and lowercases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
