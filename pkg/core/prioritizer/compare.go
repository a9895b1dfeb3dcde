package prioritizer

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
)

// CompareOptions controls a strategy comparison
type CompareOptions struct {
	// UseQueues sequences items across queues; otherwise all items are composed together
	UseQueues bool

	// TopN truncates the report when greater than zero
	TopN int
}

// ComparisonRow holds the ranks one item received under each strategy
type ComparisonRow struct {
	ID             string
	Name           string
	RevenueStream  string
	RequestingArea string
	Queue          string
	Score          float64

	// Ranks is keyed by strategy; a strategy that did not rank the item has no entry
	Ranks map[Strategy]int

	// RankVariance is the sample standard deviation of Ranks, 0 with fewer than two ranks
	RankVariance float64
	AvgRank      float64
}

// Comparison is a side-by-side report of several strategies
type Comparison struct {
	Strategies []Strategy
	Rows       []ComparisonRow
}

// Compare ranks the items once per strategy and reports how the ranks differ.
// With no strategies given, every supported strategy is compared.
func (p *Prioritizer) Compare(items []model.Item, strategies []Strategy, opts CompareOptions) (*Comparison, error) {
	if len(strategies) == 0 {
		strategies = Strategies()
	}

	var order []string
	rows := make(map[string]*ComparisonRow)
	for _, strategy := range strategies {
		ranked, err := p.globalRanking(items, strategy, opts.UseQueues)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", strategy, err)
		}

		for _, item := range ranked {
			if item.GlobalRank == nil {
				continue
			}
			row, ok := rows[item.ID]
			if !ok {
				row = &ComparisonRow{
					ID:             item.ID,
					Name:           item.Name,
					RevenueStream:  item.RevenueStream,
					RequestingArea: item.RequestingArea,
					Queue:          item.Queue,
					Score:          item.Score,
					Ranks:          make(map[Strategy]int, len(strategies)),
				}
				rows[item.ID] = row
				order = append(order, item.ID)
			}
			row.Ranks[strategy] = *item.GlobalRank
		}
	}

	comparison := &Comparison{
		Strategies: slices.Clone(strategies),
		Rows:       make([]ComparisonRow, 0, len(order)),
	}
	for _, id := range order {
		row := rows[id]
		row.AvgRank, row.RankVariance = rankStats(row.Ranks)
		comparison.Rows = append(comparison.Rows, *row)
	}

	slices.SortStableFunc(comparison.Rows, func(a, b ComparisonRow) int {
		if c := cmp.Compare(a.AvgRank, b.AvgRank); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if opts.TopN > 0 && len(comparison.Rows) > opts.TopN {
		comparison.Rows = comparison.Rows[:opts.TopN]
	}
	return comparison, nil
}

func (p *Prioritizer) globalRanking(items []model.Item, strategy Strategy, useQueues bool) ([]RankedItem, error) {
	if useQueues {
		outcome, err := p.SequenceWith(items, strategy)
		if err != nil {
			return nil, err
		}
		return outcome.Items, nil
	}

	composition, err := p.Compose(items, strategy)
	if err != nil {
		return nil, err
	}
	return composition.Global, nil
}

// rankStats returns the mean and sample standard deviation of the ranks
func rankStats(ranks map[Strategy]int) (mean, stddev float64) {
	if len(ranks) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, rank := range ranks {
		sum += float64(rank)
	}
	mean = sum / float64(len(ranks))
	if len(ranks) < 2 {
		return mean, 0
	}

	squares := 0.0
	for _, rank := range ranks {
		d := float64(rank) - mean
		squares += d * d
	}
	return mean, math.Sqrt(squares / float64(len(ranks)-1))
}
