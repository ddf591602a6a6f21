package main

import (
	"sort"

	"github.com/google/uuid"
)

// insertBySize inserts analysis into items, preserving descending size
// order. Ties land after existing entries of the same size.
func insertBySize(items []ProjectAnalysis, analysis ProjectAnalysis) []ProjectAnalysis {
	idx := sort.Search(len(items), func(i int) bool {
		return items[i].Size < analysis.Size
	})
	items = append(items, ProjectAnalysis{})
	copy(items[idx+1:], items[idx:])
	items[idx] = analysis
	return items
}

// drainResults feeds the scan's result stream into the shared sorted list
// until the stream closes. Failed analyses and projects with an empty
// target directory are dropped.
func drainResults(results <-chan AnalysisResult, items *NotifyRwLock[[]ProjectAnalysis]) {
	for result := range results {
		if result.Err != nil || result.Analysis.Size == 0 {
			continue
		}
		items.Write(func(list *[]ProjectAnalysis) {
			*list = insertBySize(*list, result.Analysis)
		})
	}
}

// removeByID drops every item whose ID is in the given set, keeping order.
func removeByID(items []ProjectAnalysis, ids map[uuid.UUID]struct{}) []ProjectAnalysis {
	kept := items[:0]
	for _, item := range items {
		if _, ok := ids[item.ID]; !ok {
			kept = append(kept, item)
		}
	}
	return kept
}
