package main

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func sizesOf(items []ProjectAnalysis) []uint64 {
	sizes := make([]uint64, 0, len(items))
	for _, item := range items {
		sizes = append(sizes, item.Size)
	}
	return sizes
}

func TestInsertBySizeKeepsDescendingOrder(t *testing.T) {
	steps := []struct {
		insert uint64
		want   []uint64
	}{
		{5, []uint64{5}},
		{1, []uint64{5, 1}},
		{9, []uint64{9, 5, 1}},
		{3, []uint64{9, 5, 3, 1}},
	}

	var items []ProjectAnalysis
	for _, step := range steps {
		items = insertBySize(items, ProjectAnalysis{ID: uuid.New(), Size: step.insert})
		require.Equal(t, step.want, sizesOf(items))
	}
}

func TestDrainResultsFiltersErrorsAndEmptyProjects(t *testing.T) {
	results := make(chan AnalysisResult, 4)
	results <- AnalysisResult{Analysis: ProjectAnalysis{ID: uuid.New(), Size: 10}}
	results <- AnalysisResult{Err: errors.New("bad manifest")}
	results <- AnalysisResult{Analysis: ProjectAnalysis{ID: uuid.New(), Size: 0}}
	results <- AnalysisResult{Analysis: ProjectAnalysis{ID: uuid.New(), Size: 20}}
	close(results)

	notify := NewNotifyChannel()
	items := NewNotifyRwLock[[]ProjectAnalysis](notify, nil)
	drainResults(results, items)

	require.Equal(t, []uint64{20, 10}, sizesOf(items.Snapshot()))
	// At least one insertion fired a pending notification.
	require.Len(t, notify, 1)
}

func TestRemoveByID(t *testing.T) {
	a := ProjectAnalysis{ID: uuid.New(), Size: 3}
	b := ProjectAnalysis{ID: uuid.New(), Size: 2}
	c := ProjectAnalysis{ID: uuid.New(), Size: 1}

	kept := removeByID([]ProjectAnalysis{a, b, c}, map[uuid.UUID]struct{}{b.ID: {}})

	require.Equal(t, []ProjectAnalysis{a, c}, kept)
}
