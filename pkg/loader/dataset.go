package loader

import (
	"context"
	"errors"

	"github.com/jakechorley/demand-prioritizer/internal/config"
	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
)

// Dataset is validated demand input ready for prioritization
type Dataset struct {
	Items         []model.Item
	AreaWeights   []AreaWeight
	StreamWeights []StreamWeight

	// Warnings lists the non-fatal problems found while loading
	Warnings []string

	// Normalized reports whether any weight table was rescaled to sum to 100
	Normalized bool
}

// AreaTables returns the per-stream area weight tables
func (d *Dataset) AreaTables() model.AreaWeights {
	return AreaTables(d.AreaWeights)
}

// StreamTable returns the global revenue stream weight table
func (d *Dataset) StreamTable() model.WeightTable {
	return StreamTable(d.StreamWeights)
}

// Records holds the raw records of the three inputs, headers first
type Records struct {
	Ideas         [][]string
	AreaWeights   [][]string
	StreamWeights [][]string
}

// Build parses and validates raw records into a Dataset. Every file is checked before
// returning, so one *DataLoadError per failing input is joined into the error.
func Build(records Records, cfg *config.Config) (*Dataset, error) {
	dataset := &Dataset{}

	items, ideasResult := ParseIdeas(records.Ideas, cfg)
	if ideasResult.Valid() {
		ideasResult.Merge(ValidateIdeas(items, cfg))
	}

	areaRows, areaResult := ParseAreaWeights(records.AreaWeights, cfg)
	if areaResult.Valid() {
		areaResult.Merge(ValidateAreaWeights(areaRows, cfg))
	}
	if areaResult.Valid() && len(areaResult.Warnings) > 0 && cfg.Prioritization.AutoNormalizeWeights {
		areaRows = NormalizeAreaWeights(areaRows)
		areaResult.warnf("Requesting area weights normalized to sum to 100 per Revenue Stream")
		dataset.Normalized = true
	}

	streamRows, streamResult := ParseStreamWeights(records.StreamWeights, cfg)
	if streamResult.Valid() {
		streamResult.Merge(ValidateStreamWeights(streamRows, cfg))
	}
	if streamResult.Valid() && len(streamResult.Warnings) > 0 && cfg.Prioritization.AutoNormalizeWeights {
		streamRows = NormalizeStreamWeights(streamRows)
		streamResult.warnf("Revenue stream weights normalized to sum to 100")
		dataset.Normalized = true
	}

	if err := errors.Join(ideasResult.Err("ideas"), areaResult.Err("requesting area weights"), streamResult.Err("revenue stream weights")); err != nil {
		return nil, err
	}

	cross := CrossValidate(items, areaRows)
	if err := cross.Err("cross"); err != nil {
		return nil, err
	}

	dataset.Items = items
	dataset.AreaWeights = areaRows
	dataset.StreamWeights = streamRows
	for _, r := range []ValidationResult{ideasResult, areaResult, streamResult, cross} {
		dataset.Warnings = append(dataset.Warnings, r.Warnings...)
	}
	return dataset, nil
}

// FileSource loads demand data from three CSV files
type FileSource struct {
	IdeasPath         string
	AreaWeightsPath   string
	StreamWeightsPath string
	Config            *config.Config
}

// LoadDataset reads, validates and normalizes the three files
func (s *FileSource) LoadDataset(ctx context.Context) (*Dataset, error) {
	delimiter := s.Config.Locale.CSVDelimiter

	var records Records
	var err error
	if records.Ideas, err = ReadCSV(s.IdeasPath, delimiter); err != nil {
		return nil, err
	}
	if records.AreaWeights, err = ReadCSV(s.AreaWeightsPath, delimiter); err != nil {
		return nil, err
	}
	if records.StreamWeights, err = ReadCSV(s.StreamWeightsPath, delimiter); err != nil {
		return nil, err
	}

	return Build(records, s.Config)
}

// Describe names the inputs for run metadata
func (s *FileSource) Describe() map[string]string {
	return map[string]string{
		"ideas":      s.IdeasPath,
		"ra_weights": s.AreaWeightsPath,
		"rs_weights": s.StreamWeightsPath,
	}
}
