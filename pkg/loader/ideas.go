package loader

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jakechorley/demand-prioritizer/internal/config"
	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
)

// ideaRecord holds the mandatory text fields of an idea row
type ideaRecord struct {
	ID             string `validate:"required"`
	Name           string `validate:"required"`
	RequestingArea string `validate:"required"`
	RevenueStream  string `validate:"required"`
	BudgetGroup    string `validate:"required"`
}

// ParseIdeas converts idea records into items. Missing or empty WSJF inputs take the
// configured defaults and a missing phase becomes Backlog.
func ParseIdeas(records [][]string, cfg *config.Config) ([]model.Item, ValidationResult) {
	var result ValidationResult
	t := newTable(records)

	if missing := t.missing(ideaColumns); len(missing) > 0 {
		for _, column := range missing {
			result.errorf("Missing required column: %s", column)
		}
		return nil, result
	}

	if !t.has(ColMicroPhase) {
		result.warnf("MicroPhase column missing - will use default '%s'", model.DefaultMicroPhase)
	}

	sep := cfg.Locale.DecimalSeparator
	items := make([]model.Item, 0, len(t.rows))
	for i, row := range t.rows {
		line := fmt.Sprintf("row %d", i+2)

		rec := ideaRecord{
			ID:             t.get(row, ColID),
			Name:           t.get(row, ColName),
			RequestingArea: t.get(row, ColRequestingArea),
			RevenueStream:  t.get(row, ColRevenueStream),
			BudgetGroup:    t.get(row, ColBudgetGroup),
		}
		if err := validate.Struct(rec); err != nil {
			result.Errors = append(result.Errors, describe(line, err)...)
			continue
		}

		item := model.Item{
			ID:             rec.ID,
			Name:           rec.Name,
			RequestingArea: rec.RequestingArea,
			RevenueStream:  rec.RevenueStream,
			BudgetGroup:    rec.BudgetGroup,
			MicroPhase:     t.get(row, ColMicroPhase),
			Queue:          t.get(row, ColQueue),
		}
		if item.MicroPhase == "" {
			item.MicroPhase = model.DefaultMicroPhase
		}

		priority := t.get(row, ColPriorityRA)
		if priority == "" {
			result.errorf("%s: PriorityRA is empty", line)
			continue
		}
		var err error
		if item.PriorityRA, err = parseInt(priority, sep); err != nil {
			result.errorf("%s: invalid PriorityRA %q", line, priority)
			continue
		}

		numbers := []struct {
			column string
			target *float64
			def    float64
		}{
			{ColValue, &item.Value, cfg.Defaults.Value},
			{ColUrgency, &item.Urgency, cfg.Defaults.Urgency},
			{ColRisk, &item.Risk, cfg.Defaults.Risk},
			{ColSize, &item.Size, cfg.Defaults.Size},
		}
		ok := true
		for _, n := range numbers {
			cell := t.get(row, n.column)
			if cell == "" {
				*n.target = n.def
				continue
			}
			if *n.target, err = ParseNumber(cell, sep); err != nil {
				result.errorf("%s: invalid %s %q", line, n.column, cell)
				ok = false
			}
		}
		if ok {
			items = append(items, item)
		}
	}

	return items, result
}

// ValidateIdeas checks items against the reference data and ranges in the configuration
func ValidateIdeas(items []model.Item, cfg *config.Config) ValidationResult {
	var result ValidationResult

	seen := make(map[string]bool, len(items))
	var duplicates []string
	for _, item := range items {
		if seen[item.ID] && !slices.Contains(duplicates, item.ID) {
			duplicates = append(duplicates, item.ID)
		}
		seen[item.ID] = true
	}
	if len(duplicates) > 0 {
		result.errorf("Duplicate IDs found: %s", strings.Join(firstN(duplicates, 5), ", "))
	}

	if invalid := unknownValues(items, func(i model.Item) string { return i.RevenueStream }, cfg.RevenueStreams); len(invalid) > 0 {
		result.errorf("Invalid Revenue Stream values: %s", strings.Join(invalid, ", "))
		result.errorf("Valid values are: %s", strings.Join(cfg.RevenueStreams, ", "))
	}
	if invalid := unknownValues(items, func(i model.Item) string { return i.BudgetGroup }, cfg.BudgetGroups); len(invalid) > 0 {
		result.errorf("Invalid Budget Group values: %s", strings.Join(invalid, ", "))
		result.errorf("Valid values are: %s", strings.Join(cfg.BudgetGroups, ", "))
	}

	checkSequencing(items, &result)

	v := cfg.Validation
	for _, item := range items {
		if !inRange(item.Value, v.ValueRange) {
			result.errorf("IDEA %s: Value=%v outside range %v", item.ID, item.Value, v.ValueRange)
		}
		if !inRange(item.Urgency, v.UrgencyRange) {
			result.errorf("IDEA %s: Urgency=%v outside range %v", item.ID, item.Urgency, v.UrgencyRange)
		}
		if !inRange(item.Risk, v.RiskRange) {
			result.errorf("IDEA %s: Risk=%v outside range %v", item.ID, item.Risk, v.RiskRange)
		}
		if item.Size < v.SizeMin {
			result.errorf("IDEA %s: Size=%v must be >= %v", item.ID, item.Size, v.SizeMin)
		}
	}

	if len(v.ValidMicroPhases) > 0 {
		if invalid := unknownValues(items, func(i model.Item) string { return i.MicroPhase }, v.ValidMicroPhases); len(invalid) > 0 {
			result.errorf("Invalid MicroPhase values found: %s. Valid phases: %s",
				strings.Join(invalid, ", "), strings.Join(v.ValidMicroPhases, ", "))
		}
	}

	queues := cfg.QueueNames()
	if invalid := unknownValues(items, func(i model.Item) string { return i.Queue }, append(queues, "")); len(invalid) > 0 {
		result.errorf("Unknown Queue values: %s. Configured queues: %s", strings.Join(invalid, ", "), strings.Join(queues, ", "))
	}

	return result
}

// checkSequencing warns when the priorities of a requesting area are not 1..n.
// Items with the excluded priority are left out of the check.
func checkSequencing(items []model.Item, result *ValidationResult) {
	var areas []string
	priorities := make(map[string][]int)
	for _, item := range items {
		if _, ok := priorities[item.RequestingArea]; !ok {
			areas = append(areas, item.RequestingArea)
			priorities[item.RequestingArea] = []int{}
		}
		if item.PriorityRA == model.ExcludedPriority {
			continue
		}
		priorities[item.RequestingArea] = append(priorities[item.RequestingArea], item.PriorityRA)
	}

	for _, area := range areas {
		got := priorities[area]
		slices.Sort(got)
		for i, p := range got {
			if p != i+1 {
				result.warnf("RequestingArea '%s': PriorityRA not sequential. Expected 1-%d, got %v", area, len(got), got)
				break
			}
		}
	}
}

// CrossValidate checks that every requesting area used by an item has a weight row
func CrossValidate(items []model.Item, areaWeights []AreaWeight) ValidationResult {
	var result ValidationResult

	known := make([]string, 0, len(areaWeights))
	for _, w := range areaWeights {
		known = append(known, w.RequestingArea)
	}

	if missing := unknownValues(items, func(i model.Item) string { return i.RequestingArea }, known); len(missing) > 0 {
		result.errorf("Requesting Areas not found in weights: %s", strings.Join(missing, ", "))
	}
	return result
}

// unknownValues returns the distinct field values not in allowed, in order of first appearance
func unknownValues(items []model.Item, field func(model.Item) string, allowed []string) []string {
	var unknown []string
	for _, item := range items {
		v := field(item)
		if !slices.Contains(allowed, v) && !slices.Contains(unknown, v) {
			unknown = append(unknown, v)
		}
	}
	return unknown
}

func firstN(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
