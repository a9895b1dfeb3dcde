package services

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/jakechorley/demand-prioritizer/internal/config"
	"github.com/jakechorley/demand-prioritizer/pkg/core/model"
)

// ValidationSummary describes demand data that passed validation
type ValidationSummary struct {
	Items          int
	RevenueStreams []string
	AreaCount      int
	AreaWeights    int
	StreamWeights  int
	AverageSize    float64
	ItemsPerQueue  map[string]int
	Unqueued       int
	Warnings       []string
	Normalized     bool
}

// Validate loads and cross-validates the demand data and summarises it.
// Invalid data is returned as an error listing every problem.
func Validate(ctx context.Context, source DemandSource, cfg *config.Config, logger *zap.Logger) (*ValidationSummary, error) {
	logger.Debug("Starting validate")

	dataset, err := loadDataset(ctx, source, logger)
	if err != nil {
		return nil, err
	}

	summary := &ValidationSummary{
		Items:         len(dataset.Items),
		AreaWeights:   len(dataset.AreaWeights),
		StreamWeights: len(dataset.StreamWeights),
		ItemsPerQueue: make(map[string]int),
		Warnings:      dataset.Warnings,
		Normalized:    dataset.Normalized,
	}

	queues := modelQueues(cfg)
	var areas []string
	totalSize := 0.0
	for _, item := range dataset.Items {
		if !slices.Contains(summary.RevenueStreams, item.RevenueStream) {
			summary.RevenueStreams = append(summary.RevenueStreams, item.RevenueStream)
		}
		if !slices.Contains(areas, item.RequestingArea) {
			areas = append(areas, item.RequestingArea)
		}
		totalSize += item.Size

		if queue := model.ResolveQueue(queues, item); queue != "" {
			summary.ItemsPerQueue[queue]++
		} else {
			summary.Unqueued++
		}
	}
	summary.AreaCount = len(areas)
	if summary.Items > 0 {
		summary.AverageSize = totalSize / float64(summary.Items)
	}

	logger.Info("Validation passed",
		zap.Int("items", summary.Items),
		zap.Int("warnings", len(summary.Warnings)),
		zap.Int("unqueued", summary.Unqueued))
	return summary, nil
}
