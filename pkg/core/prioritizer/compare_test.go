package prioritizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
)

func comparisonItems() []model.Item {
	return []model.Item{
		newItem("a1", "S", "A", 1),
		newItem("a2", "S", "A", 2),
		newItem("b1", "S", "B", 1),
	}
}

func TestCompare_AllStrategies(t *testing.T) {
	p := mustNew(t, singleStream(weights("A", 60, "B", 40)))

	comparison, err := p.Compare(comparisonItems(), nil, CompareOptions{})
	require.NoError(t, err)

	assert.Equal(t, Strategies(), comparison.Strategies)
	require.Len(t, comparison.Rows, 3)

	first := comparison.Rows[0]
	assert.Equal(t, "a1", first.ID)
	assert.Equal(t, "Idea a1", first.Name)
	assert.Equal(t, "S", first.RevenueStream)
	assert.Equal(t, "A", first.RequestingArea)
	assert.Equal(t, map[Strategy]int{SainteLague: 1, DHondt: 1, WSJF: 1}, first.Ranks)
	assert.Equal(t, 1.0, first.AvgRank)
	assert.Equal(t, 0.0, first.RankVariance)

	// Seat strategies interleave b1 before a2; WSJF keeps area A together
	second := comparison.Rows[1]
	assert.Equal(t, "b1", second.ID)
	assert.Equal(t, map[Strategy]int{SainteLague: 2, DHondt: 2, WSJF: 3}, second.Ranks)
	assert.InDelta(t, 7.0/3.0, second.AvgRank, 1e-9)
	assert.InDelta(t, math.Sqrt(1.0/3.0), second.RankVariance, 1e-9)

	third := comparison.Rows[2]
	assert.Equal(t, "a2", third.ID)
	assert.InDelta(t, 8.0/3.0, third.AvgRank, 1e-9)
}

func TestCompare_TopN(t *testing.T) {
	p := mustNew(t, singleStream(weights("A", 60, "B", 40)))

	comparison, err := p.Compare(comparisonItems(), []Strategy{DHondt, WSJF}, CompareOptions{TopN: 2})
	require.NoError(t, err)

	assert.Equal(t, []Strategy{DHondt, WSJF}, comparison.Strategies)
	require.Len(t, comparison.Rows, 2)
	assert.Equal(t, "a1", comparison.Rows[0].ID)

	// a2 (3, 2) and b1 (2, 3) tie on 2.5; the lower ID is kept
	assert.Equal(t, "a2", comparison.Rows[1].ID)
	assert.Equal(t, 2.5, comparison.Rows[1].AvgRank)
	assert.Equal(t, map[Strategy]int{DHondt: 3, WSJF: 2}, comparison.Rows[1].Ranks)
}

func TestCompare_TiesOrderedByID(t *testing.T) {
	p := mustNew(t, singleStream(weights("A", 60, "B", 40)))

	var items []model.Item
	items = append(items, newItems("m", "S", "A", 3)...)
	items = append(items, newItems("b", "S", "B", 2)...)

	comparison, err := p.Compare(items, []Strategy{DHondt, SainteLague}, CompareOptions{})
	require.NoError(t, err)

	// m3 and b2 swap positions 4 and 5 between the strategies
	ids := make([]string, len(comparison.Rows))
	for i, row := range comparison.Rows {
		ids[i] = row.ID
	}
	assert.Equal(t, []string{"m1", "b1", "m2", "b2", "m3"}, ids)
	assert.Equal(t, map[Strategy]int{DHondt: 4, SainteLague: 5}, comparison.Rows[4].Ranks)
	assert.Equal(t, 4.5, comparison.Rows[3].AvgRank)
	assert.Equal(t, 4.5, comparison.Rows[4].AvgRank)
}

func TestCompare_UseQueuesSkipsUnrankedItems(t *testing.T) {
	p := mustNew(t, sequencingConfig())

	comparison, err := p.Compare(sequencingItems(), []Strategy{DHondt, SainteLague}, CompareOptions{UseQueues: true})
	require.NoError(t, err)

	require.Len(t, comparison.Rows, 5)
	for _, row := range comparison.Rows {
		assert.NotEqual(t, "PRODUCTION", row.Queue)
		assert.Len(t, row.Ranks, 2)
	}
	assert.Equal(t, "n1", comparison.Rows[0].ID)
	assert.Equal(t, "NOW", comparison.Rows[0].Queue)
}

func TestCompare_UnknownStrategy(t *testing.T) {
	p := mustNew(t, singleStream(weights("A", 1)))

	_, err := p.Compare(comparisonItems(), []Strategy{"borda"}, CompareOptions{})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestCompare_PropagatesErrors(t *testing.T) {
	p := mustNew(t, sequencingConfig())

	_, err := p.Compare(nil, nil, CompareOptions{UseQueues: true})
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestRankStats(t *testing.T) {
	mean, stddev := rankStats(map[Strategy]int{DHondt: 1, WSJF: 3})
	assert.Equal(t, 2.0, mean)
	assert.InDelta(t, math.Sqrt2, stddev, 1e-9)

	mean, stddev = rankStats(map[Strategy]int{DHondt: 4})
	assert.Equal(t, 4.0, mean)
	assert.Equal(t, 0.0, stddev)

	mean, stddev = rankStats(nil)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0.0, stddev)
}
