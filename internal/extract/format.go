package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/demoplan/demoplan/internal/logging"
)

// Overview is the leading section of a specification.
type Overview struct {
	Text    string `json:"text"`
	Summary string `json:"summary"`
}

// UserStory is an "As a ... I want to ... so that ..." statement with
// its acceptance criteria.
type UserStory struct {
	UserType           string   `json:"user_type"`
	Action             string   `json:"action"`
	Benefit            string   `json:"benefit"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
}

// Attribute is a named, typed field of a data entity.
type Attribute struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Entity is a data model with attributes and relationship statements.
type Entity struct {
	Name          string      `json:"name"`
	Attributes    []Attribute `json:"attributes"`
	Relationships []string    `json:"relationships"`
}

// DataModels holds the data-model section text and its parsed entities.
type DataModels struct {
	Text     string   `json:"text"`
	Entities []Entity `json:"entities"`
}

// Endpoint is an API endpoint description.
type Endpoint struct {
	Method        string   `json:"method"`
	Path          string   `json:"path"`
	Description   string   `json:"description"`
	RequestParams []string `json:"request_params"`
	Response      string   `json:"response"`
}

// UIUX holds the UI/UX section text and its listed screens.
type UIUX struct {
	Text    string   `json:"text"`
	Screens []string `json:"screens"`
}

// Specification is a structured software specification document.
type Specification struct {
	Overview                  Overview          `json:"overview"`
	FunctionalRequirements    []string          `json:"functional_requirements"`
	NonFunctionalRequirements []string          `json:"non_functional_requirements"`
	UserStories               []UserStory       `json:"user_stories"`
	DataModels                DataModels        `json:"data_models"`
	APIEndpoints              []Endpoint        `json:"api_endpoints"`
	UIUX                      UIUX              `json:"ui_ux"`
	Technical                 []string          `json:"technical"`
	FullText                  string            `json:"full_text"`
	Sections                  map[string]string `json:"sections"`
}

// specSections match section headers anywhere in a line, gated below on
// header-looking lines. More specific patterns come before patterns
// they overlap with.
var specSections = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"overview", regexp.MustCompile(`(?i)(overview|introduction|purpose)`)},
	{"non_functional_requirements", regexp.MustCompile(`(?i)non.?functional\s+requirements`)},
	{"functional_requirements", regexp.MustCompile(`(?i)functional\s+requirements`)},
	{"user_stories", regexp.MustCompile(`(?i)user\s+stories`)},
	{"data_models", regexp.MustCompile(`(?i)(data\s+models|data\s+entities|database\s+schema)`)},
	{"api_endpoints", regexp.MustCompile(`(?i)(api\s+endpoints|api\s+specification|rest\s+api)`)},
	{"ui_ux", regexp.MustCompile(`(?i)(ui|ux|ui/ux|user\s+interface)`)},
	{"technical", regexp.MustCompile(`(?i)(technical\s+constraints|technical\s+considerations)`)},
}

var (
	userStoryRe = regexp.MustCompile(`(?i)^as\s+an?\s+(.+?)\s+I\s+want\s+to\s+(.+?)(?:\s+so\s+that\s+(.+))?$`)
	entityRe    = regexp.MustCompile(`^([A-Z][a-zA-Z]+)(\s+Entity|\s+Model)?:?$`)
	hashRe      = regexp.MustCompile(`^#+\s*`)
	endpointRe  = regexp.MustCompile(`^(GET|POST|PUT|DELETE|PATCH)\s+(/[a-zA-Z0-9/{}._-]+)`)
)

// FormatSpecification parses raw specification text into a structured
// document. Text is split into named sections, then each section is
// mined for its structured content. Unrecognized text stays available
// through Sections and FullText; formatting never fails.
func FormatSpecification(text string) *Specification {
	logging.Info("formatting specification")

	sections := parseSections(text)
	spec := &Specification{
		FullText: text,
		Sections: sections,
	}

	if s, ok := sections["overview"]; ok {
		spec.Overview = Overview{Text: s, Summary: firstParagraph(s)}
	}
	if s, ok := sections["functional_requirements"]; ok {
		spec.FunctionalRequirements = extractListItems(s)
	}
	if s, ok := sections["non_functional_requirements"]; ok {
		spec.NonFunctionalRequirements = extractListItems(s)
	}
	if s, ok := sections["user_stories"]; ok {
		spec.UserStories = extractUserStories(s)
	}
	if s, ok := sections["data_models"]; ok {
		spec.DataModels = DataModels{Text: s, Entities: extractEntities(s)}
	}
	if s, ok := sections["api_endpoints"]; ok {
		spec.APIEndpoints = extractEndpoints(s)
	}
	if s, ok := sections["ui_ux"]; ok {
		spec.UIUX = UIUX{Text: s, Screens: extractListItems(s)}
	}
	if s, ok := sections["technical"]; ok {
		spec.Technical = extractListItems(s)
	}
	return spec
}

// parseSections splits specification text into named sections. A line
// is a section header when a section pattern matches and the line looks
// like a heading (markdown "#", all uppercase, or short). Text before
// the first header belongs to the overview.
func parseSections(text string) map[string]string {
	collected := map[string][]string{"overview": {}}
	current := "overview"

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		isHeader := false
		if strings.HasPrefix(line, "#") || isUpperLine(line) || len(line) < 50 {
			for _, sec := range specSections {
				if sec.pattern.MatchString(line) {
					current = sec.name
					collected[current] = []string{}
					isHeader = true
					break
				}
			}
		}
		if !isHeader {
			collected[current] = append(collected[current], line)
		}
	}

	sections := make(map[string]string, len(collected))
	for name, lines := range collected {
		sections[name] = strings.Join(lines, "\n")
	}
	return sections
}

// isUpperLine reports whether the line has letters and none lowercase.
func isUpperLine(s string) bool {
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

// firstParagraph returns the first non-empty paragraph of text.
func firstParagraph(text string) string {
	for _, p := range strings.Split(text, "\n\n") {
		if s := strings.TrimSpace(p); s != "" {
			return s
		}
	}
	return ""
}

// extractListItems collects "-" and "N." list lines, stripped of their
// markers.
func extractListItems(text string) []string {
	var items []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "-") || listItemRe.MatchString(line) {
			if item := cleanListItem(line); item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}

// extractUserStories parses story statements and attaches following
// list lines as acceptance criteria.
func extractUserStories(text string) []UserStory {
	var stories []UserStory
	var current *UserStory

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := userStoryRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				stories = append(stories, *current)
			}
			current = &UserStory{
				UserType:           strings.TrimSpace(m[1]),
				Action:             strings.TrimSpace(m[2]),
				Benefit:            strings.TrimSpace(m[3]),
				AcceptanceCriteria: []string{},
			}
			continue
		}

		if current == nil {
			continue
		}
		lower := strings.ToLower(line)
		if strings.HasPrefix(line, "-") || listItemRe.MatchString(line) || strings.Contains(lower, "acceptance criteria") {
			// Skip the "Acceptance Criteria:" header itself.
			if strings.Contains(lower, "acceptance criteria") && strings.Contains(line, ":") {
				continue
			}
			if c := cleanListItem(line); c != "" {
				current.AcceptanceCriteria = append(current.AcceptanceCriteria, c)
			}
		}
	}

	if current != nil {
		stories = append(stories, *current)
	}
	return stories
}

// extractEntities parses entity definitions: a capitalized name header
// followed by "name: type" attribute lines and relationship statements.
func extractEntities(text string) []Entity {
	var entities []Entity
	var current *Entity

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		m := entityRe.FindStringSubmatch(line)
		if m != nil || (strings.HasPrefix(line, "#") && len(line) < 30) {
			if current != nil {
				entities = append(entities, *current)
			}
			name := ""
			if m != nil {
				name = m[1]
			} else {
				name = hashRe.ReplaceAllString(line, "")
			}
			current = &Entity{
				Name:          strings.TrimSpace(name),
				Attributes:    []Attribute{},
				Relationships: []string{},
			}
			continue
		}

		if current == nil || !(strings.HasPrefix(line, "-") || listItemRe.MatchString(line)) {
			continue
		}
		item := cleanListItem(line)
		lower := strings.ToLower(item)
		switch {
		case strings.Contains(item, ":") && !containsAny(lower, "has many", "has one", "belongs to"):
			name, typ, _ := strings.Cut(item, ":")
			current.Attributes = append(current.Attributes, Attribute{
				Name: strings.TrimSpace(name),
				Type: strings.TrimSpace(typ),
			})
		case containsAny(lower, "has many", "has one", "belongs to", "references"):
			current.Relationships = append(current.Relationships, item)
		}
	}

	if current != nil {
		entities = append(entities, *current)
	}
	return entities
}

// extractEndpoints parses "METHOD /path" definitions with their
// trailing description, request parameter, and response lines.
func extractEndpoints(text string) []Endpoint {
	var endpoints []Endpoint
	var current *Endpoint

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case endpointRe.MatchString(line):
			if current != nil {
				endpoints = append(endpoints, *current)
			}
			m := endpointRe.FindStringSubmatch(line)
			current = &Endpoint{
				Method:        m[1],
				Path:          m[2],
				RequestParams: []string{},
			}
		case current != nil && current.Description == "" && !strings.HasPrefix(line, "-"):
			current.Description = line
		case current != nil && (strings.HasPrefix(line, "-") || listItemRe.MatchString(line)) && strings.Contains(lower, "request"):
			current.RequestParams = append(current.RequestParams, cleanListItem(line))
		case current != nil && strings.Contains(lower, "response"):
			current.Response = line
		}
	}

	if current != nil {
		endpoints = append(endpoints, *current)
	}
	return endpoints
}

// containsAny reports whether s contains any of the substrings.
func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
