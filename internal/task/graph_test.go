package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeDependenciesDropsInvalidRefs(t *testing.T) {
	tasks := []*Task{
		{ID: "T1"},
		{ID: "T2", Dependencies: []string{"T1", "T99"}},
		{ID: "T3", Dependencies: []string{"T99", "T98"}},
	}

	out := AnalyzeDependencies(tasks)
	require.Len(t, out, 3)

	assert.Equal(t, []string{"T1"}, out[1].Dependencies)
	// Consecutive invalid references must both be dropped.
	assert.Empty(t, out[2].Dependencies)
}

func TestAnalyzeDependenciesCollapsesDuplicates(t *testing.T) {
	tasks := []*Task{
		{ID: "T1"},
		{ID: "T2", Dependencies: []string{"T1", "T1", "T1"}},
	}

	AnalyzeDependencies(tasks)

	assert.Equal(t, []string{"T1"}, tasks[1].Dependencies)
	assert.Equal(t, []string{"T2"}, tasks[0].DependentTasks, "duplicates count once")
	assert.Equal(t, 1, tasks[0].DependentCount)
}

func TestAnalyzeDependenciesDepth(t *testing.T) {
	// Chain T1 <- T2 <- T3, T4 depends on both ends of the chain,
	// T5 stands alone.
	tasks := []*Task{
		{ID: "T1"},
		{ID: "T2", Dependencies: []string{"T1"}},
		{ID: "T3", Dependencies: []string{"T2"}},
		{ID: "T4", Dependencies: []string{"T1", "T3"}},
		{ID: "T5"},
	}

	AnalyzeDependencies(tasks)

	assert.Equal(t, 0, tasks[0].Depth)
	assert.Equal(t, 1, tasks[1].Depth)
	assert.Equal(t, 2, tasks[2].Depth)
	assert.Equal(t, 3, tasks[3].Depth, "depth follows the longest chain")
	assert.Equal(t, 0, tasks[4].Depth)
}

func TestAnalyzeDependenciesDependents(t *testing.T) {
	tasks := []*Task{
		{ID: "T1"},
		{ID: "T2", Dependencies: []string{"T1"}},
		{ID: "T3", Dependencies: []string{"T1"}},
	}

	AnalyzeDependencies(tasks)

	assert.Equal(t, []string{"T2", "T3"}, tasks[0].DependentTasks)
	assert.Equal(t, 2, tasks[0].DependentCount)
	assert.Empty(t, tasks[1].DependentTasks)
	assert.Equal(t, 0, tasks[1].DependentCount)
}

func TestAnalyzeDependenciesBreaksTwoNodeCycle(t *testing.T) {
	tasks := []*Task{
		{ID: "T1", Dependencies: []string{"T2"}},
		{ID: "T2", Dependencies: []string{"T1"}},
	}

	AnalyzeDependencies(tasks)

	// One edge of the cycle goes, the other survives.
	assert.Empty(t, tasks[0].Dependencies)
	assert.Equal(t, []string{"T1"}, tasks[1].Dependencies)
	assert.Equal(t, 0, tasks[0].Depth)
	assert.Equal(t, 1, tasks[1].Depth)
	assert.Equal(t, []string{"T2"}, tasks[0].DependentTasks)
}

func TestAnalyzeDependenciesBreaksThreeNodeCycle(t *testing.T) {
	// T1 -> T3 -> T2 -> T1 in depends-on direction.
	tasks := []*Task{
		{ID: "T1", Dependencies: []string{"T3"}},
		{ID: "T2", Dependencies: []string{"T1"}},
		{ID: "T3", Dependencies: []string{"T2"}},
	}

	AnalyzeDependencies(tasks)

	assert.Empty(t, tasks[0].Dependencies)
	assert.Equal(t, []string{"T1"}, tasks[1].Dependencies)
	assert.Equal(t, []string{"T2"}, tasks[2].Dependencies)
	assert.Equal(t, 0, tasks[0].Depth)
	assert.Equal(t, 1, tasks[1].Depth)
	assert.Equal(t, 2, tasks[2].Depth)
}

func TestAnalyzeDependenciesSelfLoop(t *testing.T) {
	tasks := []*Task{
		{ID: "T1", Dependencies: []string{"T1"}},
		{ID: "T2", Dependencies: []string{"T1"}},
	}

	AnalyzeDependencies(tasks)

	assert.Empty(t, tasks[0].Dependencies, "self dependency is removed")
	assert.Equal(t, []string{"T1"}, tasks[1].Dependencies)
	assert.Equal(t, []string{"T2"}, tasks[0].DependentTasks)
	assert.Equal(t, 1, tasks[1].Depth)
}

func TestAnalyzeDependenciesIdempotent(t *testing.T) {
	tasks := []*Task{
		{ID: "T1", Dependencies: []string{"T2"}},
		{ID: "T2", Dependencies: []string{"T1"}},
	}

	AnalyzeDependencies(tasks)
	first := [][]string{tasks[0].Dependencies, tasks[1].Dependencies}
	depths := []int{tasks[0].Depth, tasks[1].Depth}

	AnalyzeDependencies(tasks)
	assert.Equal(t, first[0], tasks[0].Dependencies)
	assert.Equal(t, first[1], tasks[1].Dependencies)
	assert.Equal(t, depths[0], tasks[0].Depth)
	assert.Equal(t, depths[1], tasks[1].Depth)
}

func TestAnalyzeDependenciesDuplicateIDs(t *testing.T) {
	// The last task wins for graph purposes; both copies still get
	// their metadata filled in.
	tasks := []*Task{
		{ID: "T1", Name: "first copy"},
		{ID: "T1", Name: "second copy"},
		{ID: "T2", Dependencies: []string{"T1"}},
	}

	out := AnalyzeDependencies(tasks)
	require.Len(t, out, 3)

	assert.Equal(t, []string{"T2"}, out[0].DependentTasks)
	assert.Equal(t, []string{"T2"}, out[1].DependentTasks)
	assert.Equal(t, 1, out[2].Depth)
}

func TestAnalyzeDependenciesPreservesOrder(t *testing.T) {
	tasks := []*Task{
		{ID: "T3"},
		{ID: "T1", Dependencies: []string{"T3"}},
		{ID: "T2"},
	}

	out := AnalyzeDependencies(tasks)
	require.Len(t, out, 3)
	assert.Same(t, tasks[0], out[0])
	assert.Same(t, tasks[1], out[1])
	assert.Same(t, tasks[2], out[2])
}
