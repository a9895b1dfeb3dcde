package prioritizer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
)

func newItem(id, stream, area string, priority int) model.Item {
	return model.Item{
		ID:             id,
		Name:           "Idea " + id,
		RevenueStream:  stream,
		RequestingArea: area,
		BudgetGroup:    "BG1",
		MicroPhase:     "Backlog",
		PriorityRA:     priority,
		Value:          5,
		Urgency:        5,
		Risk:           5,
		Size:           5,
	}
}

// newItems builds count items for one area, with priorities 1..count
func newItems(prefix, stream, area string, count int) []model.Item {
	items := make([]model.Item, count)
	for i := range items {
		items[i] = newItem(fmt.Sprintf("%s%d", prefix, i+1), stream, area, i+1)
	}
	return items
}

func weights(pairs ...any) model.WeightTable {
	table := model.WeightTable{}
	for i := 0; i < len(pairs); i += 2 {
		table = append(table, model.Weight{Entity: pairs[i].(string), Value: float64(pairs[i+1].(int))})
	}
	return table
}

func mustNew(t *testing.T, cfg Config) *Prioritizer {
	t.Helper()
	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

func ranksByID(items []RankedItem, global bool) map[string]int {
	ranks := make(map[string]int, len(items))
	for _, item := range items {
		rank := item.StreamRank
		if global {
			rank = item.GlobalRank
		}
		if rank != nil {
			ranks[item.ID] = *rank
		}
	}
	return ranks
}

func idsInOrder(items []RankedItem) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
