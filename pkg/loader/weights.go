package loader

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/jakechorley/demand-prioritizer/internal/config"
	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
)

// weightSumTolerance absorbs rounding in hand-edited weight files
const weightSumTolerance = 0.01

// AreaWeight is one row of the requesting area weight file
type AreaWeight struct {
	RevenueStream  string  `validate:"required"`
	BudgetGroup    string  `validate:"required"`
	RequestingArea string  `validate:"required"`
	Weight         float64 `validate:"gt=0"`
}

// StreamWeight is one row of the revenue stream weight file
type StreamWeight struct {
	RevenueStream string  `validate:"required"`
	Weight        float64 `validate:"gt=0"`
}

// ParseAreaWeights converts requesting area weight records into rows
func ParseAreaWeights(records [][]string, cfg *config.Config) ([]AreaWeight, ValidationResult) {
	var result ValidationResult
	t := newTable(records)

	if missing := t.missing(areaWeightColumns); len(missing) > 0 {
		for _, column := range missing {
			result.errorf("Missing required column: %s", column)
		}
		return nil, result
	}

	rows := make([]AreaWeight, 0, len(t.rows))
	for i, row := range t.rows {
		weight, err := ParseNumber(t.get(row, ColWeight), cfg.Locale.DecimalSeparator)
		if err != nil {
			result.errorf("row %d: invalid Weight %q", i+2, t.get(row, ColWeight))
			continue
		}
		rows = append(rows, AreaWeight{
			RevenueStream:  t.get(row, ColRevenueStream),
			BudgetGroup:    t.get(row, ColBudgetGroup),
			RequestingArea: t.get(row, ColRequestingArea),
			Weight:         weight,
		})
	}
	return rows, result
}

// ParseStreamWeights converts revenue stream weight records into rows
func ParseStreamWeights(records [][]string, cfg *config.Config) ([]StreamWeight, ValidationResult) {
	var result ValidationResult
	t := newTable(records)

	if missing := t.missing(streamWeightColumns); len(missing) > 0 {
		for _, column := range missing {
			result.errorf("Missing required column: %s", column)
		}
		return nil, result
	}

	rows := make([]StreamWeight, 0, len(t.rows))
	for i, row := range t.rows {
		weight, err := ParseNumber(t.get(row, ColWeight), cfg.Locale.DecimalSeparator)
		if err != nil {
			result.errorf("row %d: invalid Weight %q", i+2, t.get(row, ColWeight))
			continue
		}
		rows = append(rows, StreamWeight{
			RevenueStream: t.get(row, ColRevenueStream),
			Weight:        weight,
		})
	}
	return rows, result
}

// ValidateAreaWeights checks area weight rows. Sums that differ from 100 per stream and
// budget group are warnings.
func ValidateAreaWeights(rows []AreaWeight, cfg *config.Config) ValidationResult {
	var result ValidationResult

	type key struct{ stream, group, area string }
	seen := make(map[key]bool, len(rows))
	duplicates := 0
	var invalidStreams, invalidGroups []string
	type group struct{ stream, group string }
	var groups []group
	sums := make(map[group]float64)

	for i, row := range rows {
		if err := validate.Struct(row); err != nil {
			result.Errors = append(result.Errors, describe(fmt.Sprintf("row %d", i+2), err)...)
		}

		k := key{row.RevenueStream, row.BudgetGroup, row.RequestingArea}
		if seen[k] {
			duplicates++
		}
		seen[k] = true

		if !slices.Contains(cfg.RevenueStreams, row.RevenueStream) && !slices.Contains(invalidStreams, row.RevenueStream) {
			invalidStreams = append(invalidStreams, row.RevenueStream)
		}
		if !slices.Contains(cfg.BudgetGroups, row.BudgetGroup) && !slices.Contains(invalidGroups, row.BudgetGroup) {
			invalidGroups = append(invalidGroups, row.BudgetGroup)
		}

		g := group{row.RevenueStream, row.BudgetGroup}
		if _, ok := sums[g]; !ok {
			groups = append(groups, g)
		}
		sums[g] += row.Weight
	}

	if duplicates > 0 {
		result.errorf("Duplicate combinations found: %d row(s)", duplicates)
	}
	if len(invalidStreams) > 0 {
		result.errorf("Invalid Revenue Stream values: %s", strings.Join(invalidStreams, ", "))
	}
	if len(invalidGroups) > 0 {
		result.errorf("Invalid Budget Group values: %s", strings.Join(invalidGroups, ", "))
	}
	for _, g := range groups {
		if math.Abs(sums[g]-100) > weightSumTolerance {
			result.warnf("Revenue Stream '%s' / Budget Group '%s': weights sum to %.2f, not 100.0", g.stream, g.group, sums[g])
		}
	}

	return result
}

// ValidateStreamWeights checks revenue stream weight rows. A total other than 100 is a warning.
func ValidateStreamWeights(rows []StreamWeight, cfg *config.Config) ValidationResult {
	var result ValidationResult

	var seen, duplicates, invalid []string
	total := 0.0
	for i, row := range rows {
		if err := validate.Struct(row); err != nil {
			result.Errors = append(result.Errors, describe(fmt.Sprintf("row %d", i+2), err)...)
		}
		if slices.Contains(seen, row.RevenueStream) {
			duplicates = append(duplicates, row.RevenueStream)
		}
		seen = append(seen, row.RevenueStream)
		if !slices.Contains(cfg.RevenueStreams, row.RevenueStream) && !slices.Contains(invalid, row.RevenueStream) {
			invalid = append(invalid, row.RevenueStream)
		}
		total += row.Weight
	}

	if len(duplicates) > 0 {
		result.errorf("Duplicate Revenue Streams: %s", strings.Join(duplicates, ", "))
	}
	if len(invalid) > 0 {
		result.errorf("Invalid Revenue Stream values: %s", strings.Join(invalid, ", "))
	}
	if len(rows) > 0 && math.Abs(total-100) > weightSumTolerance {
		result.warnf("Weights sum to %.2f, not 100.0", total)
	}

	return result
}

// NormalizeAreaWeights rescales weights so they sum to 100 within each revenue stream
func NormalizeAreaWeights(rows []AreaWeight) []AreaWeight {
	totals := make(map[string]float64)
	for _, row := range rows {
		totals[row.RevenueStream] += row.Weight
	}

	normalized := slices.Clone(rows)
	for i, row := range normalized {
		if total := totals[row.RevenueStream]; total > 0 {
			normalized[i].Weight = row.Weight / total * 100
		}
	}
	return normalized
}

// NormalizeStreamWeights rescales weights so they sum to 100
func NormalizeStreamWeights(rows []StreamWeight) []StreamWeight {
	total := 0.0
	for _, row := range rows {
		total += row.Weight
	}

	normalized := slices.Clone(rows)
	if total > 0 {
		for i, row := range normalized {
			normalized[i].Weight = row.Weight / total * 100
		}
	}
	return normalized
}

// AreaTables builds the per-stream area weight tables. Weights of the same area within
// a stream are summed across budget groups; areas keep their order of first appearance.
func AreaTables(rows []AreaWeight) model.AreaWeights {
	tables := make(model.AreaWeights)
	for _, row := range rows {
		table := tables[row.RevenueStream]
		i := slices.IndexFunc(table, func(w model.Weight) bool { return w.Entity == row.RequestingArea })
		if i < 0 {
			tables[row.RevenueStream] = append(table, model.Weight{Entity: row.RequestingArea, Value: row.Weight})
			continue
		}
		table[i].Value += row.Weight
	}
	return tables
}

// StreamTable builds the global revenue stream weight table in file order
func StreamTable(rows []StreamWeight) model.WeightTable {
	table := make(model.WeightTable, 0, len(rows))
	for _, row := range rows {
		table = append(table, model.Weight{Entity: row.RevenueStream, Value: row.Weight})
	}
	return table
}
