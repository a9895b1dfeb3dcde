package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/demand-prioritizer/pkg/db"
)

// InsertRun inserts a new run record
func (d *DB) InsertRun(ctx context.Context, run *db.Run) error {
	strategies := run.Strategies
	if strategies == nil {
		strategies = []string{}
	}
	queueStrategies := run.QueueStrategies
	if queueStrategies == nil {
		queueStrategies = map[string]string{}
	}

	_, err := d.pool.Exec(ctx, `
		INSERT INTO run (id, created_at, default_strategy, strategies, queue_strategies,
			item_count, ranked_count, excluded_count, cycle_start, next_review)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, run.ID, run.CreatedAt.UTC(), run.DefaultStrategy, strategies, queueStrategies,
		run.ItemCount, run.RankedCount, run.ExcludedCount, run.CycleStart, run.NextReview)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetRuns retrieves all runs, newest first
func (d *DB) GetRuns(ctx context.Context) ([]db.Run, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, created_at, default_strategy, strategies, queue_strategies,
			item_count, ranked_count, excluded_count, cycle_start, next_review
		FROM run
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []db.Run
	for rows.Next() {
		var r db.Run
		var cycleStart, nextReview *time.Time
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.DefaultStrategy, &r.Strategies, &r.QueueStrategies,
			&r.ItemCount, &r.RankedCount, &r.ExcludedCount, &cycleStart, &nextReview); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if len(r.Strategies) == 0 {
			r.Strategies = nil
		}
		if len(r.QueueStrategies) == 0 {
			r.QueueStrategies = nil
		}
		r.CycleStart = cycleStart
		r.NextReview = nextReview
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// InsertRankings inserts ranking records in one batch
func (d *DB) InsertRankings(ctx context.Context, rankings []db.Ranking) error {
	if len(rankings) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range rankings {
		batch.Queue(`
			INSERT INTO ranking (run_id, item_id, name, revenue_stream, requesting_area, queue,
				strategy, stream_rank, global_rank, score, final_score)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, r.RunID, r.ItemID, r.Name, r.RevenueStream, r.RequestingArea, r.Queue,
			r.Strategy, r.StreamRank, r.GlobalRank, r.Score, r.FinalScore)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert rankings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRankings retrieves the rankings of a run ordered by strategy, then global rank with unranked items last
func (d *DB) GetRankings(ctx context.Context, runID string) ([]db.Ranking, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT run_id, item_id, name, revenue_stream, requesting_area, queue,
			strategy, stream_rank, global_rank, score, final_score
		FROM ranking
		WHERE run_id = $1
		ORDER BY strategy, global_rank NULLS LAST, item_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rankings: %w", err)
	}
	defer rows.Close()

	var rankings []db.Ranking
	for rows.Next() {
		var r db.Ranking
		if err := rows.Scan(&r.RunID, &r.ItemID, &r.Name, &r.RevenueStream, &r.RequestingArea, &r.Queue,
			&r.Strategy, &r.StreamRank, &r.GlobalRank, &r.Score, &r.FinalScore); err != nil {
			return nil, fmt.Errorf("failed to scan ranking: %w", err)
		}
		rankings = append(rankings, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rankings: %w", err)
	}
	return rankings, nil
}

var _ db.Database = (*DB)(nil)
