package task

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/demoplan/demoplan/internal/logging"
)

var (
	validEstimateRe = regexp.MustCompile(`(?i)\d+(\.\d+)?\s*(hour|hours|day|days|week|weeks)`)
	parseEstimateRe = regexp.MustCompile(`(?i)(\d+(\.\d+)?)\s*(hour|hours|day|days|week|weeks)`)
)

// complexityFactors multiply the base estimate.
var complexityFactors = map[string]float64{
	ComplexityLow:      0.8,
	ComplexityMedium:   1.0,
	ComplexityHigh:     1.5,
	ComplexityVeryHigh: 2.0,
}

// baseEstimates are default hours per category.
var baseEstimates = map[string]float64{
	"Backend":        8,
	"Frontend":       6,
	"Database":       4,
	"Infrastructure": 6,
	"Authentication": 8,
	"Testing":        4,
	"Documentation":  2,
}

const defaultBaseEstimate = 6

// complexityRules pair a level with its indicator keywords. Checked in
// order; the first level with a keyword hit wins.
var complexityRules = []struct {
	level    string
	keywords []string
}{
	{ComplexityVeryHigh, []string{"complex", "challenging", "difficult", "advanced", "sophisticated"}},
	{ComplexityHigh, []string{"integrate", "optimize", "secure", "scale", "refactor"}},
	{ComplexityLow, []string{"simple", "basic", "straightforward", "easy"}},
}

// EstimateTasks fills in estimated hours for every task, in place. A
// task whose estimate string already parses as a duration keeps it:
// the parsed hours are recorded and the heuristic is skipped. For the
// rest, hours come from the category base, scaled by keyword-derived
// complexity and by the dependency count, rounded to whole hours.
func EstimateTasks(tasks []*Task) []*Task {
	logging.Info("estimating tasks", "tasks", len(tasks))

	for _, t := range tasks {
		if t.Estimate != "" && validEstimateRe.MatchString(t.Estimate) {
			t.EstimatedHours = parseEstimate(t.Estimate)
			continue
		}

		base, ok := baseEstimates[strings.TrimSpace(t.Category)]
		if !ok {
			base = defaultBaseEstimate
		}

		complexity := determineComplexity(t)
		hours := base * complexityFactors[complexity]

		// Coordinating many dependencies adds overhead.
		if n := len(t.Dependencies); n > 2 {
			hours *= 1.0 + float64(n-2)*0.1
		}

		t.EstimatedHours = math.Round(hours)
		t.Complexity = complexity
		if t.Estimate == "" {
			t.Estimate = fmt.Sprintf("%.0f hours", t.EstimatedHours)
		}
	}

	logging.Info("estimated total", "hours", TotalEstimatedHours(tasks))
	return tasks
}

// TotalEstimatedHours sums the estimated hours across tasks.
func TotalEstimatedHours(tasks []*Task) float64 {
	var total float64
	for _, t := range tasks {
		total += t.EstimatedHours
	}
	return total
}

// determineComplexity classifies a task by keywords in its name,
// description, and notes.
func determineComplexity(t *Task) string {
	text := strings.ToLower(t.Name + " " + t.Description + " " + t.Notes)
	for _, rule := range complexityRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.level
			}
		}
	}
	return ComplexityMedium
}

// parseEstimate converts a duration string like "2 days" or "1.5 hours"
// into hours. Days count 8 hours, weeks 40. Returns 0 when nothing
// parseable is found.
func parseEstimate(estimate string) float64 {
	m := parseEstimateRe.FindStringSubmatch(estimate)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(m[3]) {
	case "hour", "hours":
		return value
	case "day", "days":
		return value * 8
	case "week", "weeks":
		return value * 40
	}
	return 0
}
