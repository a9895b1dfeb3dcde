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

// CompareOptions controls a strategy comparison
type CompareOptions struct {
	// Strategies to compare; empty compares all of them
	Strategies []string

	// UseQueues sequences items through the configured queues before comparing
	UseQueues bool

	// TopN truncates the report when greater than zero
	TopN int

	// OutputPath receives the comparison CSV when set
	OutputPath string
}

// Compare ranks the demand once per strategy and reports the rank of every item under each
func Compare(
	ctx context.Context,
	source DemandSource,
	cfg *config.Config,
	logger *zap.Logger,
	opts CompareOptions,
) (*prioritizer.Comparison, error) {
	logger.Debug("Starting compare", zap.Strings("strategies", opts.Strategies), zap.Int("top_n", opts.TopN))

	dataset, err := loadDataset(ctx, source, logger)
	if err != nil {
		return nil, err
	}

	strategies := make([]prioritizer.Strategy, 0, len(opts.Strategies))
	for _, name := range opts.Strategies {
		s, err := prioritizer.ParseStrategy(name)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}

	def, _, err := resolveStrategies(cfg, "", nil)
	if err != nil {
		return nil, err
	}
	p, err := newPrioritizer(cfg, dataset, def, nil)
	if err != nil {
		return nil, err
	}

	comparison, err := p.Compare(dataset.Items, strategies, prioritizer.CompareOptions{UseQueues: opts.UseQueues, TopN: opts.TopN})
	if err != nil {
		return nil, fmt.Errorf("failed to compare strategies: %w", err)
	}
	logger.Info("Comparison complete",
		zap.Int("strategies", len(comparison.Strategies)),
		zap.Int("rows", len(comparison.Rows)))

	if opts.OutputPath == "" {
		return comparison, nil
	}

	writer, err := exporter.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := writer.WriteComparison(opts.OutputPath, comparison); err != nil {
		return nil, err
	}
	logger.Debug("Comparison written", zap.String("file", opts.OutputPath))

	return comparison, nil
}
