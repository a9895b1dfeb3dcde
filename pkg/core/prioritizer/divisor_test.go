package prioritizer

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
)

func singleStream(areas model.WeightTable) Config {
	return Config{
		AreaWeights:   model.AreaWeights{"S": areas},
		StreamWeights: weights("S", 100),
	}
}

func TestDHondt_TieBreakTrace(t *testing.T) {
	p := mustNew(t, singleStream(weights("A", 2, "B", 1)))

	// Input order must not matter
	items := []model.Item{
		newItem("b1", "S", "B", 1),
		newItem("a2", "S", "A", 2),
		newItem("a1", "S", "A", 1),
	}

	result, err := p.RankStreams(items, DHondt)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"a1": 1, "a2": 2, "b1": 3}, ranksByID(result.Items, false))
	assert.Equal(t, []string{"a1", "a2", "b1"}, idsInOrder(result.Items))
	for _, item := range result.Items {
		assert.Equal(t, DHondt, item.Strategy)
		assert.Nil(t, item.GlobalRank)
	}
	assert.Empty(t, result.Exclusions)
}

func TestSainteLague_Trace(t *testing.T) {
	p := mustNew(t, singleStream(weights("A", 2, "B", 1)))

	items := []model.Item{
		newItem("a1", "S", "A", 1),
		newItem("a2", "S", "A", 2),
		newItem("b1", "S", "B", 1),
	}

	result, err := p.RankStreams(items, SainteLague)
	require.NoError(t, err)

	// Position 2: A=2/3, B=1/1, so B wins
	assert.Equal(t, map[string]int{"a1": 1, "b1": 2, "a2": 3}, ranksByID(result.Items, false))
}

func TestDivisor_TieGoesToFirstDeclaredEntity(t *testing.T) {
	p := mustNew(t, singleStream(weights("B", 1, "A", 1)))

	items := []model.Item{
		newItem("a1", "S", "A", 1),
		newItem("b1", "S", "B", 1),
	}

	for _, strategy := range []Strategy{DHondt, SainteLague} {
		result, err := p.RankStreams(items, strategy)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"b1": 1, "a1": 2}, ranksByID(result.Items, false), "strategy %s", strategy)
	}
}

func TestOutranks(t *testing.T) {
	assert.True(t, outranks(2, 1, 1, 0), "higher quotient wins")
	assert.False(t, outranks(1, 0, 2, 1), "lower quotient loses")
	assert.True(t, outranks(1, 0, 1, 1), "tie goes to the lower canonical index")
	assert.False(t, outranks(1, 1, 1, 0), "tie loses to the lower canonical index")
}

func TestDivisor_UnweightedAreaExcluded(t *testing.T) {
	p := mustNew(t, singleStream(weights("A", 60, "B", 40, "C", 0)))

	items := []model.Item{
		newItem("a1", "S", "A", 1),
		newItem("c1", "S", "C", 1),
		newItem("d1", "S", "D", 1),
		newItem("b1", "S", "B", 1),
	}

	for _, strategy := range []Strategy{DHondt, SainteLague} {
		result, err := p.RankStreams(items, strategy)
		require.NoError(t, err)

		assert.Equal(t, map[string]int{"a1": 1, "b1": 2}, ranksByID(result.Items, false))
		require.Len(t, result.Exclusions, 2)
		assert.Equal(t, Exclusion{ItemID: "c1", Entity: "C", Level: LevelStream, Reason: ReasonAreaNotWeighted}, result.Exclusions[0])
		assert.Equal(t, Exclusion{ItemID: "d1", Entity: "D", Level: LevelStream, Reason: ReasonAreaNotWeighted}, result.Exclusions[1])
	}
}

func TestAllocate_ContiguousRanks(t *testing.T) {
	tables := []model.WeightTable{
		weights("A", 50, "B", 30, "C", 20),
		weights("A", 1, "B", 1, "C", 1),
		weights("A", 97, "B", 2, "C", 1),
		weights("A", 10, "B", 0, "C", 90),
	}

	var items []model.Item
	items = append(items, newItems("a", "S", "A", 7)...)
	items = append(items, newItems("b", "S", "B", 3)...)
	items = append(items, newItems("c", "S", "C", 11)...)
	items = append(items, newItems("d", "S", "D", 2)...)

	for i, table := range tables {
		p := mustNew(t, singleStream(table))

		eligible := 0
		for _, item := range items {
			if _, ok := table.Lookup(item.RequestingArea); ok {
				eligible++
			}
		}

		for _, strategy := range Strategies() {
			t.Run(fmt.Sprintf("table%d/%s", i, strategy), func(t *testing.T) {
				result, err := p.RankStreams(items, strategy)
				require.NoError(t, err)

				expectedCount := eligible
				if strategy == WSJF {
					expectedCount = len(items)
				}

				var ranks []int
				for _, item := range result.Items {
					require.NotNil(t, item.StreamRank)
					ranks = append(ranks, *item.StreamRank)
				}
				slices.Sort(ranks)

				expected := make([]int, expectedCount)
				for r := range expected {
					expected[r] = r + 1
				}
				assert.Equal(t, expected, ranks)
			})
		}
	}
}

func TestDivisor_Proportionality(t *testing.T) {
	p := mustNew(t, singleStream(weights("A", 60, "B", 40)))

	var items []model.Item
	items = append(items, newItems("a", "S", "A", 500)...)
	items = append(items, newItems("b", "S", "B", 500)...)

	// prefixShare[k] is the number of A items in the first k positions
	prefixShare := func(strategy Strategy) []int {
		result, err := p.RankStreams(items, strategy)
		require.NoError(t, err)
		require.Len(t, result.Items, 1000)

		areaAt := make([]string, len(result.Items)+1)
		for _, item := range result.Items {
			areaAt[*item.StreamRank] = item.RequestingArea
		}
		share := make([]int, len(areaAt))
		for k := 1; k < len(areaAt); k++ {
			share[k] = share[k-1]
			if areaAt[k] == "A" {
				share[k]++
			}
		}
		return share
	}

	dHondt := prefixShare(DHondt)
	sainteLague := prefixShare(SainteLague)

	// Both converge on the 60:40 ratio
	for _, k := range []int{10, 100, 500} {
		assert.Equal(t, k*60/100, dHondt[k], "D'Hondt share at %d", k)
		assert.Equal(t, k*60/100, sainteLague[k], "Sainte-Laguë share at %d", k)
	}

	// D'Hondt never gives the heavier entity fewer positions than Sainte-Laguë
	for k := 1; k <= 1000; k++ {
		require.GreaterOrEqual(t, dHondt[k], sainteLague[k], "prefix %d", k)
	}
	assert.Equal(t, 3, dHondt[4])
	assert.Equal(t, 2, sainteLague[4])

	// Once A is exhausted the remaining positions all go to B
	assert.Equal(t, 500, dHondt[1000])
}
