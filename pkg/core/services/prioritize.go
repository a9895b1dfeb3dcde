package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/demand-prioritizer/internal/config"
	"github.com/jakechorley/demand-prioritizer/pkg/core/prioritizer"
	"github.com/jakechorley/demand-prioritizer/pkg/db"
	"github.com/jakechorley/demand-prioritizer/pkg/exporter"
)

// RunRecorder defines the database operations needed to record a run
type RunRecorder interface {
	InsertRun(ctx context.Context, run *db.Run) error
	InsertRankings(ctx context.Context, rankings []db.Ranking) error
}

// PrioritizeOptions controls a full prioritization run
type PrioritizeOptions struct {
	// Strategy is the default strategy; empty uses the configured one
	Strategy string

	// AllStrategies runs every strategy over every queue, ignoring per-queue overrides
	AllStrategies bool

	// QueueStrategies overrides the configured per-queue strategies
	QueueStrategies map[string]string

	// OutputDir receives the exported files; empty uses the configured directory
	OutputDir string

	// DryRun ranks and reports without writing files or recording the run
	DryRun bool
}

// PrioritizeResult is the outcome of a prioritization run
type PrioritizeResult struct {
	RunID         string
	Runs          []exporter.StrategyRun
	Files         []string
	Warnings      []string
	PlanningCycle *exporter.PlanningCycle
}

// Prioritize loads demand data, sequences it through the queues with the selected
// strategies, exports the rankings and records the run
func Prioritize(
	ctx context.Context,
	source DemandSource,
	store RunRecorder,
	cfg *config.Config,
	logger *zap.Logger,
	opts PrioritizeOptions,
) (*PrioritizeResult, error) {
	logger.Debug("Starting prioritize",
		zap.String("strategy", opts.Strategy),
		zap.Bool("all_strategies", opts.AllStrategies),
		zap.Bool("dry_run", opts.DryRun))

	dataset, err := loadDataset(ctx, source, logger)
	if err != nil {
		return nil, err
	}

	def, queueStrategies, err := resolveStrategies(cfg, opts.Strategy, opts.QueueStrategies)
	if err != nil {
		return nil, err
	}
	p, err := newPrioritizer(cfg, dataset, def, queueStrategies)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := &PrioritizeResult{
		RunID:    uuid.New().String(),
		Warnings: dataset.Warnings,
	}

	for _, strategy := range strategiesToRun(def, opts.AllStrategies) {
		logger.Debug("Sequencing queues", zap.String("strategy", string(strategy)))

		var outcome *prioritizer.Outcome
		if opts.AllStrategies {
			outcome, err = p.SequenceWith(dataset.Items, strategy)
		} else {
			outcome, err = p.Sequence(dataset.Items)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to prioritize with %s: %w", strategy, err)
		}

		logExclusions(logger, strategy, outcome.Exclusions)
		for _, q := range outcome.Queues {
			logger.Debug("Queue sequenced",
				zap.String("strategy", string(strategy)),
				zap.String("queue", q.Name),
				zap.String("queue_strategy", string(q.Strategy)),
				zap.Int("items", q.ItemCount),
				zap.Int("first_rank", q.FirstRank),
				zap.Int("last_rank", q.LastRank))
		}
		logger.Info("Prioritization complete",
			zap.String("strategy", strategy.DisplayName()),
			zap.Int("ranked", outcome.Ranked()),
			zap.Int("excluded", len(outcome.Exclusions)))

		result.Runs = append(result.Runs, exporter.StrategyRun{Strategy: strategy, Outcome: outcome})
	}

	if result.PlanningCycle, err = planningCycle(cfg.PlanningCadence, now); err != nil {
		return nil, err
	}

	if opts.DryRun {
		logger.Info("Dry run, skipping export and run history", zap.String("run_id", result.RunID))
		return result, nil
	}

	writer, err := exporter.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = cfg.Output.Dir
	}
	overrides := p.QueueStrategies()
	if opts.AllStrategies {
		overrides = nil
	}
	result.Files, err = writer.WriteAll(outputDir, result.Runs, exporter.Export{
		RunID:           result.RunID,
		Inputs:          source.Describe(),
		Queues:          p.Queues(),
		QueueStrategies: overrides,
		PlanningCycle:   result.PlanningCycle,
		Now:             now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export rankings: %w", err)
	}
	logger.Debug("Rankings exported", zap.Strings("files", result.Files))

	if store == nil {
		return result, nil
	}

	run := newRun(result, def, overrides, len(dataset.Items), now)
	if err := store.InsertRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	rankings := rankingsFor(result.RunID, result.Runs)
	if err := store.InsertRankings(ctx, rankings); err != nil {
		return nil, fmt.Errorf("failed to record rankings: %w", err)
	}
	logger.Info("Run recorded", zap.String("run_id", run.ID), zap.Int("rankings", len(rankings)))

	return result, nil
}

// newRun builds the run record. Counts come from the default strategy's outcome.
func newRun(result *PrioritizeResult, def prioritizer.Strategy, overrides map[string]prioritizer.Strategy, itemCount int, now time.Time) *db.Run {
	run := &db.Run{
		ID:              result.RunID,
		CreatedAt:       now,
		DefaultStrategy: string(def),
		ItemCount:       itemCount,
	}

	if len(overrides) > 0 {
		run.QueueStrategies = make(map[string]string, len(overrides))
		for queue, s := range overrides {
			run.QueueStrategies[queue] = string(s)
		}
	}

	var counted *prioritizer.Outcome
	for _, r := range result.Runs {
		run.Strategies = append(run.Strategies, string(r.Strategy))
		if counted == nil || r.Strategy == def {
			counted = r.Outcome
		}
	}
	if counted != nil {
		run.RankedCount = counted.Ranked()
		run.ExcludedCount = len(counted.Exclusions)
	}

	if cycle := result.PlanningCycle; cycle != nil {
		start := cycle.Start
		run.CycleStart = &start
		if !cycle.NextReview.IsZero() {
			next := cycle.NextReview
			run.NextReview = &next
		}
	}
	return run
}

// rankingsFor flattens the outcomes into ranking records, one per item and strategy run
func rankingsFor(runID string, runs []exporter.StrategyRun) []db.Ranking {
	var rankings []db.Ranking
	for _, r := range runs {
		for _, item := range r.Outcome.Items {
			rankings = append(rankings, db.Ranking{
				RunID:          runID,
				ItemID:         item.ID,
				Name:           item.Name,
				RevenueStream:  item.RevenueStream,
				RequestingArea: item.RequestingArea,
				Queue:          item.Queue,
				Strategy:       string(r.Strategy),
				StreamRank:     item.StreamRank,
				GlobalRank:     item.GlobalRank,
				Score:          item.Score,
				FinalScore:     item.FinalScore,
			})
		}
	}
	return rankings
}
