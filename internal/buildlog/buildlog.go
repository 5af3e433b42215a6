// Package buildlog records build runs in a SQLite history database so
// operators can inspect recent pipeline outcomes.
package buildlog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists build run records.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Run is one build pipeline execution.
type Run struct {
	ID               string
	StartedAt        time.Time
	DurationMS       int64
	ArtifactsWritten int
	WriteFailures    int
	ArticlesIndexed  int
	Outcome          string // success|warning|failed
}

// Open opens (or creates) the history database. Use ":memory:" in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open build log database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize build log schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		artifacts_written INTEGER NOT NULL,
		write_failures INTEGER NOT NULL,
		articles_indexed INTEGER NOT NULL,
		outcome TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append stores one run record.
func (s *Store) Append(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, duration_ms, artifacts_written, write_failures, articles_indexed, outcome)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Unix(), run.DurationMS, run.ArtifactsWritten, run.WriteFailures, run.ArticlesIndexed, run.Outcome)
	if err != nil {
		return fmt.Errorf("append build run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, artifacts_written, write_failures, articles_indexed, outcome
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query build runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started int64
		if err := rows.Scan(&run.ID, &started, &run.DurationMS, &run.ArtifactsWritten,
			&run.WriteFailures, &run.ArticlesIndexed, &run.Outcome); err != nil {
			return nil, fmt.Errorf("scan build run: %w", err)
		}
		run.StartedAt = time.Unix(started, 0).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
