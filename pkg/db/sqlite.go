package db

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored times sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteDB provides database operations using a local SQLite file
type SQLiteDB struct {
	db *sql.DB
}

// OpenSQLite opens the SQLite database at path with foreign keys on and applies pending migrations
func OpenSQLite(ctx context.Context, path string) (*SQLiteDB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &SQLiteDB{db: conn}
	if err := db.RunMigrations(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database
func (db *SQLiteDB) Close() error {
	return db.db.Close()
}

// RunMigrations applies the embedded migrations missing from schema_migrations
func (db *SQLiteDB) RunMigrations(ctx context.Context) error {
	if _, err := db.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	applied, err := db.appliedMigrations(ctx)
	if err != nil {
		return err
	}
	pending, err := PendingMigrations(migrationsFS, applied)
	if err != nil {
		return err
	}

	for _, filename := range pending {
		content, err := fs.ReadFile(migrationsFS, path.Join("migrations", filename))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}
		if err := db.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(content)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (filename) VALUES (?)`, filename)
			return err
		}); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", filename, err)
		}
	}
	return nil
}

func (db *SQLiteDB) appliedMigrations(ctx context.Context) ([]string, error) {
	rows, err := db.db.QueryContext(ctx, `SELECT filename FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	var applied []string
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, fmt.Errorf("failed to scan migration filename: %w", err)
		}
		applied = append(applied, filename)
	}
	return applied, rows.Err()
}

// inTx runs fn in a transaction, committing when it returns nil
func (db *SQLiteDB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// PendingMigrations lists the migrations/*.sql files of fsys missing from applied, sorted by name
func PendingMigrations(fsys fs.FS, applied []string) ([]string, error) {
	files, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	var pending []string
	for _, file := range files {
		if name := path.Base(file); !slices.Contains(applied, name) {
			pending = append(pending, name)
		}
	}
	slices.Sort(pending)
	return pending, nil
}

// InsertRun inserts a new run record
func (db *SQLiteDB) InsertRun(ctx context.Context, run *Run) error {
	queueStrategies, err := EncodeQueueStrategies(run.QueueStrategies)
	if err != nil {
		return err
	}

	_, err = db.db.ExecContext(ctx, `
		INSERT INTO run (id, created_at, default_strategy, strategies, queue_strategies,
			item_count, ranked_count, excluded_count, cycle_start, next_review)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, formatTime(&run.CreatedAt), run.DefaultStrategy, strings.Join(run.Strategies, ","), queueStrategies,
		run.ItemCount, run.RankedCount, run.ExcludedCount, formatTime(run.CycleStart), formatTime(run.NextReview))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetRuns retrieves all runs, newest first
func (db *SQLiteDB) GetRuns(ctx context.Context) ([]Run, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, created_at, default_strategy, strategies, queue_strategies,
			item_count, ranked_count, excluded_count, cycle_start, next_review
		FROM run
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var createdAt, strategies, queueStrategies string
		var cycleStart, nextReview sql.NullString
		if err := rows.Scan(&r.ID, &createdAt, &r.DefaultStrategy, &strategies, &queueStrategies,
			&r.ItemCount, &r.RankedCount, &r.ExcludedCount, &cycleStart, &nextReview); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at of run %s: %w", r.ID, err)
		}
		if strategies != "" {
			r.Strategies = strings.Split(strategies, ",")
		}
		if r.QueueStrategies, err = DecodeQueueStrategies(queueStrategies); err != nil {
			return nil, err
		}
		if r.CycleStart, err = parseTime(cycleStart); err != nil {
			return nil, err
		}
		if r.NextReview, err = parseTime(nextReview); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// InsertRankings inserts the rankings of a run in one transaction
func (db *SQLiteDB) InsertRankings(ctx context.Context, rankings []Ranking) error {
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO ranking (run_id, item_id, name, revenue_stream, requesting_area, queue,
				strategy, stream_rank, global_rank, score, final_score)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare ranking insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range rankings {
			if _, err := stmt.ExecContext(ctx, r.RunID, r.ItemID, r.Name, r.RevenueStream, r.RequestingArea, r.Queue,
				r.Strategy, r.StreamRank, r.GlobalRank, r.Score, r.FinalScore); err != nil {
				return fmt.Errorf("failed to insert ranking for item %s: %w", r.ItemID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record rankings: %w", err)
	}
	return nil
}

// GetRankings retrieves the rankings of a run ordered by strategy, then global rank with unranked items last
func (db *SQLiteDB) GetRankings(ctx context.Context, runID string) ([]Ranking, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT run_id, item_id, name, revenue_stream, requesting_area, queue,
			strategy, stream_rank, global_rank, score, final_score
		FROM ranking
		WHERE run_id = ?
		ORDER BY strategy, global_rank IS NULL, global_rank, item_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rankings: %w", err)
	}
	defer rows.Close()

	var rankings []Ranking
	for rows.Next() {
		var r Ranking
		var streamRank, globalRank sql.NullInt64
		if err := rows.Scan(&r.RunID, &r.ItemID, &r.Name, &r.RevenueStream, &r.RequestingArea, &r.Queue,
			&r.Strategy, &streamRank, &globalRank, &r.Score, &r.FinalScore); err != nil {
			return nil, fmt.Errorf("failed to scan ranking: %w", err)
		}
		r.StreamRank = nullableInt(streamRank)
		r.GlobalRank = nullableInt(globalRank)
		rankings = append(rankings, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rankings: %w", err)
	}
	return rankings, nil
}

// EncodeQueueStrategies serializes per-queue overrides for storage
func EncodeQueueStrategies(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode queue strategies: %w", err)
	}
	return string(data), nil
}

// DecodeQueueStrategies parses stored per-queue overrides. An empty object yields nil.
func DecodeQueueStrategies(s string) (map[string]string, error) {
	var m map[string]string
	if s == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("failed to decode queue strategies: %w", err)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse time %q: %w", s.String, err)
	}
	return &t, nil
}

func nullableInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
var _ Database = (*SQLiteDB)(nil)
