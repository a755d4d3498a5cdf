// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps an audit log of rename runs in SQLite. Each run gets
// a UUID and its renames are stored with a content checksum of the renamed
// file, so a later reader can tell which files a run touched. The log is
// informational only; nothing reads it back to undo a rename.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ocr-flagger/internal/checksum"
	"github.com/pdiddy/ocr-flagger/pkg/types"
)

const (
	defaultListLimit = 20
	// timeLayout is fixed-width so stored timestamps sort chronologically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// RunEntry is one row of the runs table.
type RunEntry struct {
	ID            string    `json:"id" yaml:"id"`
	Root          string    `json:"root" yaml:"root"`
	Recursive     bool      `json:"recursive" yaml:"recursive"`
	DryRun        bool      `json:"dry_run" yaml:"dry_run"`
	StartedAt     time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt    time.Time `json:"finished_at" yaml:"finished_at"`
	Renamed       int       `json:"renamed" yaml:"renamed"`
	AlreadyMarked int       `json:"already_marked" yaml:"already_marked"`
	NoText        int       `json:"no_text" yaml:"no_text"`
	Unreadable    int       `json:"unreadable" yaml:"unreadable"`
	Failed        int       `json:"failed" yaml:"failed"`
}

// RenameEntry is one rename recorded for a run.
type RenameEntry struct {
	Seq      int    `json:"seq" yaml:"seq"`
	Dir      string `json:"dir" yaml:"dir"`
	OldName  string `json:"old_name" yaml:"old_name"`
	NewName  string `json:"new_name" yaml:"new_name"`
	Checksum string `json:"checksum,omitempty" yaml:"checksum,omitempty"`
}

// Open opens or creates the history database at path and ensures the schema
// exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			root TEXT NOT NULL,
			recursive INTEGER NOT NULL,
			dry_run INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			renamed INTEGER NOT NULL,
			already_marked INTEGER NOT NULL,
			no_text INTEGER NOT NULL,
			unreadable INTEGER NOT NULL,
			failed INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS renames (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			seq INTEGER NOT NULL,
			dir TEXT NOT NULL,
			old_name TEXT NOT NULL,
			new_name TEXT NOT NULL,
			checksum TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_renames_run_id ON renames(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores run and its renames in one transaction. If run.ID is empty a
// new UUID is assigned; the ID used is returned. Checksums are taken from
// the file under its new name, or its old name for dry runs; a file that
// cannot be read is stored without a checksum.
func (s *Store) Record(ctx context.Context, run types.RunSummary) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, root, recursive, dry_run, started_at, finished_at,
			renamed, already_marked, no_text, unreadable, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Root, run.Recursive, run.DryRun,
		formatTime(run.StartedAt), formatTime(run.FinishedAt),
		len(run.Renamed), run.AlreadyMarked, run.NoText, run.Unreadable, len(run.Failures),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO renames (run_id, seq, dir, old_name, new_name, checksum) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing rename insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range run.Renamed {
		name := rec.NewName
		if run.DryRun {
			name = rec.OldName
		}
		var sum sql.NullString
		if h, err := checksum.File(filepath.Join(rec.Dir, name)); err == nil {
			sum = sql.NullString{String: h, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i+1, rec.Dir, rec.OldName, rec.NewName, sum); err != nil {
			return "", fmt.Errorf("inserting rename %s: %w", rec.OldName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// Runs lists the most recent runs, newest first. A non-positive limit uses
// the default of 20.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, root, recursive, dry_run, started_at, finished_at,
			renamed, already_marked, no_text, unreadable, failed
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunEntry
	for rows.Next() {
		var r RunEntry
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Root, &r.Recursive, &r.DryRun, &started, &finished,
			&r.Renamed, &r.AlreadyMarked, &r.NoText, &r.Unreadable, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Renames returns the renames recorded for runID in their original order.
func (s *Store) Renames(ctx context.Context, runID string) ([]RenameEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, dir, old_name, new_name, checksum FROM renames WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying renames for %s: %w", runID, err)
	}
	defer rows.Close()

	var entries []RenameEntry
	for rows.Next() {
		var e RenameEntry
		var sum sql.NullString
		if err := rows.Scan(&e.Seq, &e.Dir, &e.OldName, &e.NewName, &sum); err != nil {
			return nil, fmt.Errorf("scanning rename: %w", err)
		}
		e.Checksum = sum.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
