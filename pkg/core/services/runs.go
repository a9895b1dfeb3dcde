package services

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/jakechorley/demand-prioritizer/internal/config"
	"github.com/jakechorley/demand-prioritizer/pkg/clients/sheetsclient"
	"github.com/jakechorley/demand-prioritizer/pkg/db"
	"github.com/jakechorley/demand-prioritizer/pkg/loader"
)

// RunLister defines the database operations needed to list runs
type RunLister interface {
	GetRuns(ctx context.Context) ([]db.Run, error)
}

// ListRuns returns recorded runs, newest first. A positive limit keeps only the latest runs.
func ListRuns(ctx context.Context, database RunLister, logger *zap.Logger, limit int) ([]db.Run, error) {
	logger.Debug("Fetching runs", zap.Int("limit", limit))
	runs, err := database.GetRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}

	slices.SortStableFunc(runs, func(a, b db.Run) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// PublishRankingStore defines the database operations needed to publish a ranking
type PublishRankingStore interface {
	GetRuns(ctx context.Context) ([]db.Run, error)
	GetRankings(ctx context.Context, runID string) ([]db.Ranking, error)
}

// RankingPublisher writes a ranking to a spreadsheet tab
type RankingPublisher interface {
	PublishRanking(ctx context.Context, spreadsheetID string, ranking *sheetsclient.PublishedRanking) (string, error)
}

// PublishRanking copies a recorded ranking into a new tab of the ranking spreadsheet.
// An empty runID selects the latest run; an empty strategy selects the run's default strategy.
func PublishRanking(
	ctx context.Context,
	database PublishRankingStore,
	publisher RankingPublisher,
	cfg *config.Config,
	logger *zap.Logger,
	runID string,
	strategy string,
) (*sheetsclient.PublishedRanking, string, error) {
	logger.Debug("Starting publishRanking", zap.String("run_id", runID), zap.String("strategy", strategy))

	if cfg.Sheets.RankingSheetID == "" {
		return nil, "", fmt.Errorf("sheets.rankingSheetID is not configured")
	}

	runs, err := ListRuns(ctx, database, logger, 0)
	if err != nil {
		return nil, "", err
	}
	if len(runs) == 0 {
		return nil, "", fmt.Errorf("no runs found")
	}

	var run *db.Run
	if runID == "" {
		run = &runs[0]
		logger.Debug("No run ID provided, using latest run", zap.String("id", run.ID))
	} else {
		for i := range runs {
			if runs[i].ID == runID {
				run = &runs[i]
				break
			}
		}
		if run == nil {
			return nil, "", fmt.Errorf("run not found: %s", runID)
		}
	}

	if strategy == "" {
		strategy = run.DefaultStrategy
	}

	rankings, err := database.GetRankings(ctx, run.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch rankings: %w", err)
	}

	published := &sheetsclient.PublishedRanking{
		RunID:     run.ID,
		Strategy:  strategy,
		CreatedAt: run.CreatedAt,
	}
	for _, r := range rankings {
		if r.Strategy != strategy {
			continue
		}
		published.Rows = append(published.Rows, sheetsclient.PublishedRankingRow{
			GlobalRank:     formatRank(r.GlobalRank),
			ItemID:         r.ItemID,
			Name:           r.Name,
			RevenueStream:  r.RevenueStream,
			RequestingArea: r.RequestingArea,
			Queue:          r.Queue,
			StreamRank:     formatRank(r.StreamRank),
			Score:          loader.FormatNumber(r.Score, cfg.Output.DecimalPrecision, cfg.Locale.DecimalSeparator),
		})
	}
	if len(published.Rows) == 0 {
		return nil, "", fmt.Errorf("run %s has no rankings for strategy %s", run.ID, strategy)
	}

	title, err := publisher.PublishRanking(ctx, cfg.Sheets.RankingSheetID, published)
	if err != nil {
		return nil, "", fmt.Errorf("failed to publish ranking: %w", err)
	}
	logger.Info("Ranking published", zap.String("run_id", run.ID), zap.String("tab", title), zap.Int("rows", len(published.Rows)))

	return published, title, nil
}

func formatRank(rank *int) string {
	if rank == nil {
		return ""
	}
	return strconv.Itoa(*rank)
}
