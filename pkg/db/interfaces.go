package db

import "context"

// RunStore records prioritization runs
type RunStore interface {
	GetRuns(ctx context.Context) ([]Run, error)
	InsertRun(ctx context.Context, run *Run) error
}

// RankingStore records the per-item results of a run
type RankingStore interface {
	GetRankings(ctx context.Context, runID string) ([]Ranking, error)
	InsertRankings(ctx context.Context, rankings []Ranking) error
}

// Database is a run history store.
// Both the SQLite-backed db.SQLiteDB and postgres.DB implement it.
type Database interface {
	RunStore
	RankingStore
	Close() error
}
