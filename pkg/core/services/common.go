package services

import (
	"context"
	"fmt"
	"maps"

	"go.uber.org/zap"

	"github.com/jakechorley/demand-prioritizer/internal/config"
	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
	"github.com/jakechorley/demand-prioritizer/pkg/core/prioritizer"
	"github.com/jakechorley/demand-prioritizer/pkg/loader"
)

// DemandSource provides validated demand input from files or a spreadsheet
type DemandSource interface {
	LoadDataset(ctx context.Context) (*loader.Dataset, error)
	Describe() map[string]string
}

// modelQueues converts the configured queues into engine queues
func modelQueues(cfg *config.Config) []model.Queue {
	queues := make([]model.Queue, len(cfg.Queues))
	for i, q := range cfg.Queues {
		queues[i] = model.Queue{Name: q.Name, Phases: q.Phases, Rankable: q.Prioritize}
	}
	return queues
}

// resolveStrategies picks the default strategy (the configured one when strategy is empty)
// and merges per-queue overrides on top of the configured ones
func resolveStrategies(cfg *config.Config, strategy string, overrides map[string]string) (prioritizer.Strategy, map[string]prioritizer.Strategy, error) {
	if strategy == "" {
		strategy = cfg.Prioritization.DefaultStrategy
	}
	def, err := prioritizer.ParseStrategy(strategy)
	if err != nil {
		return "", nil, err
	}

	merged := maps.Clone(cfg.Prioritization.QueueStrategies)
	if merged == nil {
		merged = make(map[string]string)
	}
	maps.Copy(merged, overrides)

	queueStrategies := make(map[string]prioritizer.Strategy, len(merged))
	for queue, name := range merged {
		s, err := prioritizer.ParseStrategy(name)
		if err != nil {
			return "", nil, fmt.Errorf("queue %s: %w", queue, err)
		}
		queueStrategies[queue] = s
	}
	return def, queueStrategies, nil
}

// newPrioritizer builds an engine for the dataset's weights
func newPrioritizer(cfg *config.Config, dataset *loader.Dataset, def prioritizer.Strategy, queueStrategies map[string]prioritizer.Strategy) (*prioritizer.Prioritizer, error) {
	p, err := prioritizer.New(prioritizer.Config{
		Queues:          modelQueues(cfg),
		DefaultStrategy: def,
		QueueStrategies: queueStrategies,
		AreaWeights:     dataset.AreaTables(),
		StreamWeights:   dataset.StreamTable(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure prioritizer: %w", err)
	}
	return p, nil
}

func loadDataset(ctx context.Context, source DemandSource, logger *zap.Logger) (*loader.Dataset, error) {
	logger.Debug("Loading demand data", zap.Any("inputs", source.Describe()))
	dataset, err := source.LoadDataset(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load demand data: %w", err)
	}
	for _, warning := range dataset.Warnings {
		logger.Warn("Input warning", zap.String("warning", warning))
	}
	logger.Debug("Demand data loaded",
		zap.Int("items", len(dataset.Items)),
		zap.Int("area_weights", len(dataset.AreaWeights)),
		zap.Int("stream_weights", len(dataset.StreamWeights)),
		zap.Bool("normalized", dataset.Normalized))
	return dataset, nil
}

func logExclusions(logger *zap.Logger, strategy prioritizer.Strategy, exclusions []prioritizer.Exclusion) {
	for _, e := range exclusions {
		logger.Warn("Item not ranked normally",
			zap.String("strategy", string(strategy)),
			zap.String("item_id", e.ItemID),
			zap.String("level", e.Level.String()),
			zap.String("queue", e.Queue),
			zap.String("entity", e.Entity),
			zap.String("reason", string(e.Reason)),
			zap.Bool("ranked_last", e.RankedLast))
	}
}

// strategiesToRun returns every strategy when all is set, otherwise just def
func strategiesToRun(def prioritizer.Strategy, all bool) []prioritizer.Strategy {
	if !all {
		return []prioritizer.Strategy{def}
	}
	return prioritizer.Strategies()
}
