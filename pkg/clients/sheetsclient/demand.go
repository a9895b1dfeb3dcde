package sheetsclient

import (
	"context"
	"fmt"

	"github.com/jakechorley/demand-prioritizer/internal/config"
	"github.com/jakechorley/demand-prioritizer/pkg/loader"
)

// ValueGetter reads a range of cells
type ValueGetter interface {
	GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error)
}

// DemandSheet loads demand data from the tabs named in the sheets configuration
type DemandSheet struct {
	values ValueGetter
	cfg    *config.Config
}

// NewDemandSheet returns a source reading the configured demand spreadsheet
func NewDemandSheet(values ValueGetter, cfg *config.Config) *DemandSheet {
	return &DemandSheet{values: values, cfg: cfg}
}

// LoadDataset reads the ideas and weight tabs and validates them like the CSV inputs
func (s *DemandSheet) LoadDataset(ctx context.Context) (*loader.Dataset, error) {
	sc := s.cfg.Sheets

	var records loader.Records
	tabs := []struct {
		name   string
		target *[][]string
	}{
		{sc.IdeasTab, &records.Ideas},
		{sc.AreaWeightsTab, &records.AreaWeights},
		{sc.StreamWeightsTab, &records.StreamWeights},
	}
	for _, tab := range tabs {
		values, err := s.values.GetValues(ctx, sc.DemandSheetID, A1Range(tab.name, ""))
		if err != nil {
			return nil, fmt.Errorf("failed to read tab %s: %w", tab.name, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("tab %s is empty", tab.name)
		}
		*tab.target = toRecords(values)
	}

	return loader.Build(records, s.cfg)
}

// Describe names the inputs for run metadata
func (s *DemandSheet) Describe() map[string]string {
	sc := s.cfg.Sheets
	return map[string]string{
		"spreadsheet": sc.DemandSheetID,
		"ideas":       sc.IdeasTab,
		"ra_weights":  sc.AreaWeightsTab,
		"rs_weights":  sc.StreamWeightsTab,
	}
}

// toRecords converts cell values into text records. Missing trailing cells stay missing.
func toRecords(values [][]interface{}) [][]string {
	records := make([][]string, len(values))
	for i, row := range values {
		record := make([]string, len(row))
		for j, cell := range row {
			switch v := cell.(type) {
			case nil:
			case string:
				record[j] = v
			default:
				record[j] = fmt.Sprint(v)
			}
		}
		records[i] = record
	}
	return records
}
