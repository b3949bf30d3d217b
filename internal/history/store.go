// Package history persists finished conversion runs so past work can be
// reviewed from the command line.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"reframe/internal/batch"
	"reframe/internal/config"
)

// Store manages history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	keep int
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the history database in the state
// directory and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.StateDir, "history.db"), cfg.History.Keep)
}

// OpenPath opens a history database at an explicit location. keep bounds how
// many runs are retained; zero or negative keeps everything.
func OpenPath(dbPath string, keep int) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, keep: keep}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the on-disk location of the database.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) applyMigrations(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
            id TEXT PRIMARY KEY,
            created_at TEXT NOT NULL,
            duration_ms INTEGER NOT NULL,
            total INTEGER NOT NULL,
            succeeded INTEGER NOT NULL,
            failed INTEGER NOT NULL,
            cancelled INTEGER NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS jobs (
            id TEXT PRIMARY KEY,
            run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
            source_path TEXT NOT NULL,
            output_path TEXT NOT NULL,
            zoom REAL NOT NULL,
            quality TEXT NOT NULL,
            status TEXT NOT NULL,
            error TEXT,
            started_at TEXT,
            finished_at TEXT
        )`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_run ON jobs(run_id)`,
	}
	for _, statement := range statements {
		if err := s.execWithoutResultRetry(ctx, statement); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

// RunRecord is one persisted batch run.
type RunRecord struct {
	ID        string
	CreatedAt time.Time
	Duration  time.Duration
	Total     int
	Succeeded int
	Failed    int
	Cancelled int
}

// JobRecord is one persisted job outcome.
type JobRecord struct {
	ID         string
	RunID      string
	SourcePath string
	OutputPath string
	Zoom       float64
	Quality    string
	Status     batch.Status
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// RecordRun persists a finished run and its job outcomes, then prunes runs
// beyond the retention limit.
func (s *Store) RecordRun(ctx context.Context, run *batch.Run, summary batch.Summary) error {
	ctx = ensureContext(ctx)
	created := run.CreatedAt.UTC().Format(time.RFC3339Nano)

	if err := s.execWithoutResultRetry(ctx,
		`INSERT INTO runs (id, created_at, duration_ms, total, succeeded, failed, cancelled)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, created, summary.Duration.Milliseconds(),
		summary.Total, summary.Succeeded, summary.Failed, summary.Cancelled,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, job := range run.Jobs() {
		snap := job.Snapshot()
		if err := s.execWithoutResultRetry(ctx,
			`INSERT INTO jobs (id, run_id, source_path, output_path, zoom, quality, status, error, started_at, finished_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.ID, run.ID, snap.SourcePath, snap.OutputPath,
			snap.Zoom, string(snap.Quality), string(snap.Status),
			nullableString(snap.Error),
			nullableTime(snap.StartedAt), nullableTime(snap.FinishedAt),
		); err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
	}

	return s.prune(ctx)
}

// ListRuns returns the most recent runs, newest first, up to limit. A
// non-positive limit returns everything.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	ctx = ensureContext(ctx)
	query := `SELECT id, created_at, duration_ms, total, succeeded, failed, cancelled
              FROM runs ORDER BY rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			record     RunRecord
			created    string
			durationMS int64
		)
		if err := rows.Scan(&record.ID, &created, &durationMS,
			&record.Total, &record.Succeeded, &record.Failed, &record.Cancelled); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		record.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		record.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, record)
	}
	return records, rows.Err()
}

// ListJobs returns the job outcomes of one run in insertion order.
func (s *Store) ListJobs(ctx context.Context, runID string) ([]JobRecord, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, source_path, output_path, zoom, quality, status, error, started_at, finished_at
         FROM jobs WHERE run_id = ? ORDER BY rowid`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		var (
			record   JobRecord
			status   string
			errText  sql.NullString
			started  sql.NullString
			finished sql.NullString
		)
		if err := rows.Scan(&record.ID, &record.RunID, &record.SourcePath, &record.OutputPath,
			&record.Zoom, &record.Quality, &status, &errText, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		if parsed, ok := batch.ParseStatus(status); ok {
			record.Status = parsed
		}
		record.Error = errText.String
		if started.Valid {
			record.StartedAt, _ = time.Parse(time.RFC3339Nano, started.String)
		}
		if finished.Valid {
			record.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished.String)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// prune deletes runs past the retention limit, oldest first.
func (s *Store) prune(ctx context.Context) error {
	if s.keep <= 0 {
		return nil
	}
	return s.execWithoutResultRetry(ctx,
		`DELETE FROM runs WHERE id NOT IN (
            SELECT id FROM runs ORDER BY rowid DESC LIMIT ?
        )`,
		s.keep,
	)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}
