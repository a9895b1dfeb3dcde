package prioritizer

import (
	"cmp"
	"slices"
)

// GroupByEntity partitions items by the key returned from entityKey. Each group is sorted
// ascending by orderKey; items with equal keys keep their input order.
func GroupByEntity(items []RankedItem, entityKey func(RankedItem) string, orderKey func(RankedItem) int) map[string][]RankedItem {
	groups := make(map[string][]RankedItem)
	for _, item := range items {
		entity := entityKey(item)
		groups[entity] = append(groups[entity], item)
	}

	for _, group := range groups {
		slices.SortStableFunc(group, func(a, b RankedItem) int {
			return cmp.Compare(orderKey(a), orderKey(b))
		})
	}

	return groups
}
