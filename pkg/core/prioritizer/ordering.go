package prioritizer

import (
	"cmp"
	"slices"

	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
)

// SortStreamOutput returns a copy of the items ordered by revenue stream, strategy and stream rank
func SortStreamOutput(items []RankedItem) []RankedItem {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b RankedItem) int {
		if c := cmp.Compare(a.RevenueStream, b.RevenueStream); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Strategy, b.Strategy); c != 0 {
			return c
		}
		return compareRanks(a.StreamRank, b.StreamRank)
	})
	return sorted
}

// SortGlobalOutput returns a copy of the items ordered by strategy, queue declaration order
// and global rank. Unranked items come last within their queue.
func SortGlobalOutput(items []RankedItem, queues []model.Queue) []RankedItem {
	position := make(map[string]int, len(queues))
	for i, q := range queues {
		position[q.Name] = i
	}
	queueIndex := func(name string) int {
		if i, ok := position[name]; ok {
			return i
		}
		return len(queues)
	}

	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b RankedItem) int {
		if c := cmp.Compare(a.Strategy, b.Strategy); c != 0 {
			return c
		}
		if c := cmp.Compare(queueIndex(a.Queue), queueIndex(b.Queue)); c != 0 {
			return c
		}
		return compareRanks(a.GlobalRank, b.GlobalRank)
	})
	return sorted
}

// compareRanks orders ranks ascending with nil ranks last
func compareRanks(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}
