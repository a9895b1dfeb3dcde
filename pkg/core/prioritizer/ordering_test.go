package prioritizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rankedRecord(id, stream, queue string, strategy Strategy, streamRank, globalRank *int) RankedItem {
	item := newItem(id, stream, "A", 1)
	item.Queue = queue
	return RankedItem{Item: item, Strategy: strategy, StreamRank: streamRank, GlobalRank: globalRank}
}

func rank(r int) *int { return &r }

func TestSortStreamOutput(t *testing.T) {
	items := []RankedItem{
		rankedRecord("s2-wsjf-1", "S2", "NOW", WSJF, rank(1), nil),
		rankedRecord("s1-wsjf-2", "S1", "NOW", WSJF, rank(2), nil),
		rankedRecord("s1-dh-1", "S1", "NOW", DHondt, rank(1), nil),
		rankedRecord("s1-wsjf-1", "S1", "NOW", WSJF, rank(1), nil),
		rankedRecord("s1-dh-none", "S1", "NOW", DHondt, nil, nil),
	}

	sorted := SortStreamOutput(items)

	assert.Equal(t, []string{"s1-dh-1", "s1-dh-none", "s1-wsjf-1", "s1-wsjf-2", "s2-wsjf-1"}, idsInOrder(sorted))
	assert.Equal(t, "s2-wsjf-1", items[0].ID, "input order must be kept")
}

func TestSortGlobalOutput(t *testing.T) {
	items := []RankedItem{
		rankedRecord("prod-1", "S1", "PRODUCTION", DHondt, nil, nil),
		rankedRecord("next-4", "S1", "NEXT", DHondt, rank(1), rank(4)),
		rankedRecord("now-2", "S1", "NOW", DHondt, rank(2), rank(2)),
		rankedRecord("wsjf-now-1", "S1", "NOW", WSJF, rank(1), rank(1)),
		rankedRecord("now-1", "S1", "NOW", DHondt, rank(1), rank(1)),
		rankedRecord("unknown", "S1", "ELSEWHERE", DHondt, nil, nil),
		rankedRecord("next-3", "S1", "NEXT", DHondt, rank(2), rank(3)),
	}

	sorted := SortGlobalOutput(items, defaultQueues())

	assert.Equal(t, []string{"now-1", "now-2", "next-3", "next-4", "prod-1", "unknown", "wsjf-now-1"}, idsInOrder(sorted))
}

func TestCompareRanks(t *testing.T) {
	assert.Equal(t, 0, compareRanks(nil, nil))
	assert.Equal(t, 1, compareRanks(nil, rank(1)))
	assert.Equal(t, -1, compareRanks(rank(1), nil))
	assert.Equal(t, -1, compareRanks(rank(1), rank(2)))
}
