// Package extract turns AI-generated requirement and specification text
// into structured documents, and drives their generation from a video
// analysis summary.
package extract

import (
	"regexp"
	"strings"
)

// Requirements groups extracted requirement statements by type.
type Requirements struct {
	Functional    []string `json:"functional"`
	NonFunctional []string `json:"non_functional"`
	UIUX          []string `json:"ui_ux"`
	Data          []string `json:"data"`
	Technical     []string `json:"technical"`
}

// Count returns the total number of requirement statements.
func (r *Requirements) Count() int {
	return len(r.Functional) + len(r.NonFunctional) + len(r.UIUX) + len(r.Data) + len(r.Technical)
}

var (
	listItemRe = regexp.MustCompile(`^\d+\.`)
	listMarkRe = regexp.MustCompile(`^[-\d.]+\s*`)
)

// requirementSections match section headers at the start of a line.
// The non-functional pattern is checked before the functional one so
// that "Non-Functional Requirements" lands in the right bucket.
var requirementSections = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"non_functional", regexp.MustCompile(`(?i)^non.?functional\s+requirements?:?`)},
	{"functional", regexp.MustCompile(`(?i)^functional\s+requirements?:?`)},
	{"ui_ux", regexp.MustCompile(`(?i)^(ui|ux|ui/ux|user\s+interface)\s+requirements?:?`)},
	{"data", regexp.MustCompile(`(?i)^data\s+requirements?:?`)},
	{"technical", regexp.MustCompile(`(?i)^technical\s+requirements?:?`)},
}

// ParseRequirements parses requirement-extraction text into typed
// requirement lists. Section headers switch the active bucket; "-" and
// "N." list lines under a header become its items.
func ParseRequirements(text string) *Requirements {
	reqs := &Requirements{}
	buckets := map[string]*[]string{
		"functional":     &reqs.Functional,
		"non_functional": &reqs.NonFunctional,
		"ui_ux":          &reqs.UIUX,
		"data":           &reqs.Data,
		"technical":      &reqs.Technical,
	}

	current := ""
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		for _, sec := range requirementSections {
			if sec.pattern.MatchString(line) {
				current = sec.name
				break
			}
		}

		if current == "" {
			continue
		}
		if strings.HasPrefix(line, "-") || listItemRe.MatchString(line) {
			if item := cleanListItem(line); item != "" {
				*buckets[current] = append(*buckets[current], item)
			}
		}
	}
	return reqs
}

// cleanListItem strips leading bullet and numbering characters.
func cleanListItem(line string) string {
	return strings.TrimSpace(listMarkRe.ReplaceAllString(line, ""))
}
