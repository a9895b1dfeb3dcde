package prioritizer

// divisorAllocator implements the highest-averages methods. Each position goes to the
// entity with the highest quotient weight / divisor(seats already won).
type divisorAllocator struct {
	tag     Strategy
	divisor func(seats int) float64
}

func dHondtDivisor(seats int) float64 {
	return float64(seats + 1)
}

func sainteLagueDivisor(seats int) float64 {
	return float64(2*seats + 1)
}

func (a divisorAllocator) strategy() Strategy { return a.tag }

func (a divisorAllocator) keepsUnweighted() bool { return false }

func (a divisorAllocator) allocate(in levelInput) []RankedItem {
	grouped := GroupByEntity(in.items, in.level.entityOf, in.level.orderOf)

	weights := make([]float64, len(in.entities))
	seats := make([]int, len(in.entities))
	total := 0
	for i, entity := range in.entities {
		weights[i], _ = in.weights.Lookup(entity)
		total += len(grouped[entity])
	}

	ranked := make([]RankedItem, 0, total)
	for position := 1; position <= total; position++ {
		best, bestQuotient := -1, 0.0
		for i, entity := range in.entities {
			// An entity whose items are all placed cannot win, whatever its weight
			if seats[i] >= len(grouped[entity]) {
				continue
			}
			quotient := weights[i] / a.divisor(seats[i])
			if best < 0 || outranks(quotient, i, bestQuotient, best) {
				best, bestQuotient = i, quotient
			}
		}

		item := grouped[in.entities[best]][seats[best]]
		seats[best]++
		ranked = append(ranked, in.level.withRank(item, position, a.tag))
	}

	return ranked
}

// outranks reports whether the candidate entity at canonical index i with quotient q
// beats the current best. Exact ties go to the entity declared first.
func outranks(q float64, i int, bestQ float64, bestI int) bool {
	if q != bestQ {
		return q > bestQ
	}
	return i < bestI
}
