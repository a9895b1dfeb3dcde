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
)

// StreamOptions controls a stream-level run
type StreamOptions struct {
	Strategy      string
	AllStrategies bool
	OutputDir     string
}

// StreamRanking is the level-2 result of one strategy
type StreamRanking struct {
	Strategy prioritizer.Strategy
	Result   prioritizer.LevelResult
	File     string
}

// PrioritizeStreams ranks requesting areas within each revenue stream, without queues or
// the global level, and writes one stream ranking file per strategy
func PrioritizeStreams(
	ctx context.Context,
	source DemandSource,
	cfg *config.Config,
	logger *zap.Logger,
	opts StreamOptions,
) ([]StreamRanking, error) {
	logger.Debug("Starting prioritizeStreams", zap.String("strategy", opts.Strategy), zap.Bool("all_strategies", opts.AllStrategies))

	dataset, err := loadDataset(ctx, source, logger)
	if err != nil {
		return nil, err
	}

	def, _, err := resolveStrategies(cfg, opts.Strategy, nil)
	if err != nil {
		return nil, err
	}
	p, err := newPrioritizer(cfg, dataset, def, nil)
	if err != nil {
		return nil, err
	}

	writer, err := exporter.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = cfg.Output.Dir
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var rankings []StreamRanking
	for _, strategy := range strategiesToRun(def, opts.AllStrategies) {
		result, err := p.RankStreams(dataset.Items, strategy)
		if err != nil {
			return nil, fmt.Errorf("failed to rank streams with %s: %w", strategy, err)
		}
		logExclusions(logger, strategy, result.Exclusions)

		path := filepath.Join(outputDir, fmt.Sprintf("prioritization_rs_%s.csv", strategy))
		if err := writer.WriteStreamRanking(path, result.Items); err != nil {
			return nil, err
		}
		logger.Info("Stream ranking written",
			zap.String("strategy", strategy.DisplayName()),
			zap.Int("ranked", len(result.Items)),
			zap.String("file", path))

		rankings = append(rankings, StreamRanking{Strategy: strategy, Result: result, File: path})
	}
	return rankings, nil
}
