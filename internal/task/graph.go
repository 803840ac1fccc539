package task

import (
	"slices"

	"github.com/demoplan/demoplan/internal/logging"
)

// Node colors for the depth-first cycle search.
const (
	colorWhite = iota
	colorGray
	colorBlack
)

// AnalyzeDependencies validates dependency references, breaks cycles,
// and computes graph metadata for each task. References to ids outside
// the batch are dropped with a warning, duplicate references collapse
// to their first occurrence, and each dependency cycle is broken by
// removing one of its edges. Afterwards every task carries its depth
// (longest dependency chain leading to it) and the list of tasks that
// depend on it. The input slice is mutated and returned in order;
// problems are repaired, never returned as errors.
func AnalyzeDependencies(tasks []*Task) []*Task {
	logging.Info("analyzing dependencies", "tasks", len(tasks))

	byID := make(map[string]*Task, len(tasks))
	order := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if _, seen := byID[t.ID]; !seen {
			order = append(order, t.ID)
		}
		byID[t.ID] = t
	}

	// Drop invalid and duplicate references.
	for _, t := range tasks {
		valid := make([]string, 0, len(t.Dependencies))
		for _, dep := range t.Dependencies {
			if _, ok := byID[dep]; !ok {
				logging.Warn("task depends on non-existent task", "task", t.ID, "dependency", dep)
				continue
			}
			if slices.Contains(valid, dep) {
				continue
			}
			valid = append(valid, dep)
		}
		t.Dependencies = valid
	}

	// Edges run dependency -> dependent.
	adj := make(map[string][]string, len(order))
	for _, id := range order {
		for _, dep := range byID[id].Dependencies {
			adj[dep] = append(adj[dep], id)
		}
	}

	// Break cycles one edge at a time until none remain.
	for {
		cycle := findCycle(order, adj)
		if cycle == nil {
			break
		}
		first := cycle[0]
		last := cycle[len(cycle)-1]
		logging.Warn("dependency cycle detected", "cycle", cycle)

		if i := slices.Index(adj[last], first); i >= 0 {
			adj[last] = slices.Delete(adj[last], i, i+1)
		}
		t := byID[first]
		if i := slices.Index(t.Dependencies, last); i >= 0 {
			t.Dependencies = slices.Delete(t.Dependencies, i, i+1)
		}
		logging.Info("removed dependency to break cycle", "task", first, "dependency", last)
	}

	// Depth of each task is the edge count of the longest dependency
	// chain leading to it, computed over a topological order.
	indegree := make(map[string]int, len(order))
	for _, id := range order {
		indegree[id] = len(byID[id].Dependencies)
	}
	depth := make(map[string]int, len(order))
	queue := make([]string, 0, len(order))
	for _, id := range order {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dependent := range adj[id] {
			if d := depth[id] + 1; d > depth[dependent] {
				depth[dependent] = d
			}
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	// Reverse view: which tasks depend on each task.
	dependents := make(map[string][]string, len(order))
	for _, id := range order {
		for _, dep := range byID[id].Dependencies {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	for _, t := range tasks {
		t.Depth = depth[t.ID]
		ids := dependents[t.ID]
		if ids == nil {
			ids = []string{}
		}
		t.DependentTasks = ids
		t.DependentCount = len(ids)
	}

	return tasks
}

type dfsFrame struct {
	id   string
	next int
}

// findCycle runs an iterative depth-first search over the adjacency map
// and returns the first cycle found as an ordered id sequence, where
// consecutive edges exist in the graph and the last id closes back to
// the first. Returns nil when the graph is acyclic.
func findCycle(order []string, adj map[string][]string) []string {
	color := make(map[string]int, len(order))
	parent := make(map[string]string)

	for _, start := range order {
		if color[start] != colorWhite {
			continue
		}
		color[start] = colorGray
		stack := []dfsFrame{{id: start}}

		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			neighbors := adj[f.id]

			if f.next < len(neighbors) {
				n := neighbors[f.next]
				f.next++
				switch color[n] {
				case colorWhite:
					color[n] = colorGray
					parent[n] = f.id
					stack = append(stack, dfsFrame{id: n})
				case colorGray:
					// Back edge closes a cycle. Walk parents back to
					// its head, then reverse into edge order.
					cycle := []string{f.id}
					for cur := f.id; cur != n; {
						cur = parent[cur]
						cycle = append(cycle, cur)
					}
					slices.Reverse(cycle)
					return cycle
				}
				continue
			}

			color[f.id] = colorBlack
			stack = stack[:len(stack)-1]
		}
	}
	return nil
}
