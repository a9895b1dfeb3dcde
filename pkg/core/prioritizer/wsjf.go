package prioritizer

import (
	"cmp"
	"slices"
)

// wsjfAllocator ranks by score weighted with the owning entity's weight.
// Items of an unweighted entity score zero and sink to the bottom.
type wsjfAllocator struct{}

func (wsjfAllocator) strategy() Strategy { return WSJF }

func (wsjfAllocator) keepsUnweighted() bool { return true }

func (wsjfAllocator) allocate(in levelInput) []RankedItem {
	scored := make([]RankedItem, len(in.items))
	for i, item := range in.items {
		weight, ok := in.weights.Lookup(in.level.entityOf(item))
		if !ok {
			weight = 0
		}
		scored[i] = in.level.withWeightedScore(item, in.level.baseScore(item)*weight)
	}

	slices.SortStableFunc(scored, func(a, b RankedItem) int {
		return cmp.Compare(in.level.weightedScore(b), in.level.weightedScore(a))
	})

	for i := range scored {
		scored[i] = in.level.withRank(scored[i], i+1, WSJF)
	}
	return scored
}
