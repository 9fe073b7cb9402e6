// Package storage persists judge run history in PostgreSQL. Persistence is
// optional; the judge works fully without it.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// DB wraps a PostgreSQL connection pool for run history.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database DSN: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	log.Info().Msg("connected to PostgreSQL")
	return &DB{pool: pool}, nil
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Healthy checks database connectivity.
func (db *DB) Healthy(ctx context.Context) bool {
	return db.pool.Ping(ctx) == nil
}

// SaveRun inserts a run record and its per-case results.
func (db *DB) SaveRun(ctx context.Context, run *RunRecord, cases []CaseRecord) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO runs (id, source_path, language, verdict, test_count,
			passed, duration_ms, compiled, cache_hit, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.SourcePath, run.Language, run.Verdict, run.TestCount,
		run.Passed, run.DurationMS, run.Compiled, run.CacheHit, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for i := range cases {
		c := &cases[i]
		_, err = tx.Exec(ctx, `
			INSERT INTO run_cases (run_id, test_case_id, verdict, exit_code,
				signal, duration_ms, output, message)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.RunID, c.TestCaseID, c.Verdict, c.ExitCode, c.Signal,
			c.DurationMS,
			truncateForDB(c.Output, 65535),
			truncateForDB(c.Message, 65535),
		)
		if err != nil {
			return fmt.Errorf("inserting run case: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetRun retrieves a single run with its per-case results.
func (db *DB) GetRun(ctx context.Context, id string) (*RunRecord, []CaseRecord, error) {
	var run RunRecord
	err := db.pool.QueryRow(ctx, `
		SELECT id, source_path, language, verdict, test_count, passed,
			duration_ms, compiled, cache_hit, created_at
		FROM runs WHERE id = $1`, id).Scan(
		&run.ID, &run.SourcePath, &run.Language, &run.Verdict, &run.TestCount,
		&run.Passed, &run.DurationMS, &run.Compiled, &run.CacheHit, &run.CreatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("querying run %s: %w", id, err)
	}

	rows, err := db.pool.Query(ctx, `
		SELECT run_id, test_case_id, verdict, exit_code, signal,
			duration_ms, output, message
		FROM run_cases WHERE run_id = $1`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("querying run cases: %w", err)
	}
	defer rows.Close()

	var cases []CaseRecord
	for rows.Next() {
		var c CaseRecord
		if err := rows.Scan(
			&c.RunID, &c.TestCaseID, &c.Verdict, &c.ExitCode, &c.Signal,
			&c.DurationMS, &c.Output, &c.Message,
		); err != nil {
			return nil, nil, fmt.Errorf("scanning run case row: %w", err)
		}
		cases = append(cases, c)
	}

	return &run, cases, rows.Err()
}

// ListRuns queries run history with optional filters, newest first.
func (db *DB) ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := db.pool.Query(ctx, `
		SELECT id, source_path, language, verdict, test_count, passed,
			duration_ms, compiled, cache_hit, created_at
		FROM runs
		WHERE ($1 = '' OR source_path = $1)
		  AND ($2 = '' OR language = $2)
		  AND ($3 = '' OR verdict = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`,
		filter.SourcePath, filter.Language, filter.Verdict, limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var results []RunRecord
	for rows.Next() {
		var run RunRecord
		if err := rows.Scan(
			&run.ID, &run.SourcePath, &run.Language, &run.Verdict, &run.TestCount,
			&run.Passed, &run.DurationMS, &run.Compiled, &run.CacheHit, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		results = append(results, run)
	}

	return results, rows.Err()
}

func truncateForDB(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
