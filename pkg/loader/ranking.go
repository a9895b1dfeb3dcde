package loader

import (
	"fmt"
	"slices"

	"github.com/jakechorley/demand-prioritizer/internal/config"
	"github.com/jakechorley/demand-prioritizer/pkg/core/prioritizer"
)

// ParseStreamRanking reads an exported stream ranking back into ranked records so the
// global level can be run on its own. Rows without a stream rank are skipped.
func ParseStreamRanking(records [][]string, cfg *config.Config) ([]prioritizer.RankedItem, ValidationResult) {
	var result ValidationResult
	t := newTable(records)

	if missing := t.missing(streamRankColumns); len(missing) > 0 {
		for _, column := range missing {
			result.errorf("Missing required column: %s", column)
		}
		return nil, result
	}

	sep := cfg.Locale.DecimalSeparator
	var methods []string
	items := make([]prioritizer.RankedItem, 0, len(t.rows))
	for i, row := range t.rows {
		line := fmt.Sprintf("row %d", i+2)

		rankCell := t.get(row, ColStreamRank)
		if rankCell == "" {
			result.warnf("%s: item %s has no %s and is skipped", line, t.get(row, ColID), ColStreamRank)
			continue
		}
		rank, err := parseInt(rankCell, sep)
		if err != nil {
			result.errorf("%s: invalid %s %q", line, ColStreamRank, rankCell)
			continue
		}

		item := prioritizer.RankedItem{StreamRank: &rank}
		item.ID = t.get(row, ColID)
		item.Name = t.get(row, ColName)
		item.RequestingArea = t.get(row, ColRequestingArea)
		item.RevenueStream = t.get(row, ColRevenueStream)
		item.BudgetGroup = t.get(row, ColBudgetGroup)
		item.MicroPhase = t.get(row, ColMicroPhase)
		item.Queue = t.get(row, ColQueue)

		if item.ID == "" || item.RevenueStream == "" {
			result.errorf("%s: ID and RevenueStream are required", line)
			continue
		}

		if method := t.get(row, ColMethod); method != "" {
			strategy, err := prioritizer.ParseStrategy(method)
			if err != nil {
				result.errorf("%s: invalid %s %q", line, ColMethod, method)
				continue
			}
			item.Strategy = strategy
			if !slices.Contains(methods, method) {
				methods = append(methods, method)
			}
		}

		if p := t.get(row, ColPriorityRA); p != "" {
			if item.PriorityRA, err = parseInt(p, sep); err != nil {
				result.errorf("%s: invalid PriorityRA %q", line, p)
				continue
			}
		}

		numbers := []struct {
			column string
			target *float64
		}{
			{ColValue, &item.Value},
			{ColUrgency, &item.Urgency},
			{ColRisk, &item.Risk},
			{ColSize, &item.Size},
			{ColScore, &item.Score},
			{ColAdjustedScore, &item.AdjustedScore},
		}
		ok := true
		for _, n := range numbers {
			cell := t.get(row, n.column)
			if cell == "" {
				continue
			}
			if *n.target, err = ParseNumber(cell, sep); err != nil {
				result.errorf("%s: invalid %s %q", line, n.column, cell)
				ok = false
			}
		}
		if !ok {
			continue
		}

		if t.get(row, ColScore) == "" && item.Size > 0 {
			item.Score, _ = prioritizer.CalculateScore(item.Item)
		}
		if t.get(row, ColAdjustedScore) == "" {
			item.AdjustedScore = item.Score
		}

		items = append(items, item)
	}

	if len(methods) > 1 {
		result.errorf("stream ranking mixes several methods: %v", methods)
	}

	return items, result
}
