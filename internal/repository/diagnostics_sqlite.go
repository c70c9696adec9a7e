package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"MacroPull/pkg/logger"
)

var sqliteDialect = sqlDialect{
	name: "sqlite",
	schema: []string{
		`PRAGMA journal_mode = WAL;`,
		`CREATE TABLE IF NOT EXISTS series_points (
			run_id TEXT NOT NULL,
			series TEXT NOT NULL,
			month TEXT NOT NULL,
			date TEXT NOT NULL,
			value REAL,
			cached_at TEXT NOT NULL,
			PRIMARY KEY (series, month, date)
		);`,
		`CREATE TABLE IF NOT EXISTS series_runs (
			run_id TEXT NOT NULL,
			series TEXT NOT NULL,
			month TEXT NOT NULL,
			source TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			cached_at TEXT NOT NULL,
			PRIMARY KEY (run_id, series)
		);`,
	},
	insertPoint: `INSERT INTO series_points (run_id, series, month, date, value, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(series, month, date) DO UPDATE SET
			run_id = excluded.run_id,
			value = excluded.value,
			cached_at = excluded.cached_at`,
	insertRun: `INSERT OR REPLACE INTO series_runs (run_id, series, month, source, row_count, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
	date:  func(t time.Time) any { return t.UTC().Format("2006-01-02") },
	stamp: func(t time.Time) any { return t.UTC().Format(time.RFC3339Nano) },
}

// NewSQLiteDiagnostics opens (or creates) the audit database at path.
func NewSQLiteDiagnostics(ctx context.Context, path string, log *logger.Logger) (*SQLDiagnostics, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := newSQLDiagnostics(db, sqliteDialect, true, log)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
