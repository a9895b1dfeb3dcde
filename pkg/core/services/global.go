package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jakechorley/demand-prioritizer/internal/config"
	"github.com/jakechorley/demand-prioritizer/pkg/core/prioritizer"
	"github.com/jakechorley/demand-prioritizer/pkg/exporter"
	"github.com/jakechorley/demand-prioritizer/pkg/loader"
)

// GlobalOptions controls a global-level run over an exported stream ranking
type GlobalOptions struct {
	StreamRankingPath string
	StreamWeightsPath string

	// OutputPath defaults to demand_<strategy>.csv in the configured output directory
	OutputPath string

	// Strategy defaults to the method recorded in the stream ranking, then the configured default
	Strategy string
}

// GlobalRanking is the level-3 result
type GlobalRanking struct {
	Strategy prioritizer.Strategy
	Result   prioritizer.LevelResult
	File     string
	Warnings []string
}

// PrioritizeGlobal ranks revenue streams against each other using stream ranks from a
// previously exported stream ranking
func PrioritizeGlobal(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts GlobalOptions) (*GlobalRanking, error) {
	logger.Debug("Starting prioritizeGlobal",
		zap.String("stream_ranking", opts.StreamRankingPath),
		zap.String("stream_weights", opts.StreamWeightsPath))

	delimiter := cfg.Locale.CSVDelimiter
	records, err := loader.ReadCSV(opts.StreamRankingPath, delimiter)
	if err != nil {
		return nil, err
	}
	items, result := loader.ParseStreamRanking(records, cfg)
	if err := result.Err("stream ranking"); err != nil {
		return nil, err
	}
	warnings := result.Warnings

	weightRecords, err := loader.ReadCSV(opts.StreamWeightsPath, delimiter)
	if err != nil {
		return nil, err
	}
	weights, weightResult := loader.ParseStreamWeights(weightRecords, cfg)
	if weightResult.Valid() {
		weightResult.Merge(loader.ValidateStreamWeights(weights, cfg))
	}
	if err := weightResult.Err("revenue stream weights"); err != nil {
		return nil, err
	}
	if len(weightResult.Warnings) > 0 && cfg.Prioritization.AutoNormalizeWeights {
		weights = loader.NormalizeStreamWeights(weights)
	}
	warnings = append(warnings, weightResult.Warnings...)
	for _, warning := range warnings {
		logger.Warn("Input warning", zap.String("warning", warning))
	}

	strategyName := opts.Strategy
	if strategyName == "" && len(items) > 0 && items[0].Strategy != "" {
		strategyName = string(items[0].Strategy)
	}
	def, _, err := resolveStrategies(cfg, strategyName, nil)
	if err != nil {
		return nil, err
	}

	p, err := prioritizer.New(prioritizer.Config{
		DefaultStrategy: def,
		StreamWeights:   loader.StreamTable(weights),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure prioritizer: %w", err)
	}

	level, err := p.RankGlobal(items, def)
	if err != nil {
		return nil, fmt.Errorf("failed to rank globally with %s: %w", def, err)
	}
	logExclusions(logger, def, level.Exclusions)

	writer, err := exporter.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}
	path := opts.OutputPath
	if path == "" {
		path = filepath.Join(cfg.Output.Dir, fmt.Sprintf("demand_%s.csv", def))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := writer.WriteGlobalRanking(path, level.Items, nil); err != nil {
		return nil, err
	}
	logger.Info("Global ranking written",
		zap.String("strategy", def.DisplayName()),
		zap.Int("ranked", len(level.Items)),
		zap.String("file", path))

	return &GlobalRanking{Strategy: def, Result: level, File: path, Warnings: warnings}, nil
}
