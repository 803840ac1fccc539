package task

import (
	"sort"
	"strings"

	"github.com/demoplan/demoplan/internal/logging"
)

// priorityWeights maps declared priorities to their base score.
var priorityWeights = map[string]float64{
	PriorityCritical: 4,
	PriorityHigh:     3,
	PriorityMedium:   2,
	PriorityLow:      1,
}

// categoryWeights boost or dampen scores per category.
var categoryWeights = map[string]float64{
	"Backend":        1.2,
	"Frontend":       1.1,
	"Database":       1.3,
	"Infrastructure": 1.4,
	"Authentication": 1.5,
	"Testing":        0.9,
	"Documentation":  0.8,
}

const defaultCategoryWeight = 1.0

// PrioritizeTasks scores every task and returns a new slice of the same
// tasks sorted by descending score, rank 1 first. Ties keep input
// order. The score combines the declared priority, the category weight,
// the dependency depth (deeper tasks score lower), and the number of
// dependents (more dependents score higher).
func PrioritizeTasks(tasks []*Task) []*Task {
	logging.Info("prioritizing tasks", "tasks", len(tasks))

	for _, t := range tasks {
		t.PriorityScore = scoreTask(t)
	}

	ranked := make([]*Task, len(tasks))
	copy(ranked, tasks)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PriorityScore > ranked[j].PriorityScore
	})
	for i, t := range ranked {
		t.Rank = i + 1
	}
	return ranked
}

func scoreTask(t *Task) float64 {
	priorityValue, ok := priorityWeights[t.Priority]
	if !ok {
		priorityValue = priorityWeights[PriorityMedium]
	}

	categoryWeight, ok := categoryWeights[strings.TrimSpace(t.Category)]
	if !ok {
		categoryWeight = defaultCategoryWeight
	}

	// Deep tasks wait on long chains; tasks many others wait on come first.
	depthFactor := 1.0 / float64(t.Depth+1)
	dependentFactor := 1.0 + float64(t.DependentCount)*0.1

	return priorityValue * categoryWeight * depthFactor * dependentFactor
}
