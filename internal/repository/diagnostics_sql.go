package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"MacroPull/internal/domain/models"
	"MacroPull/pkg/logger"
)

// sqlDialect holds the statements one engine needs for the two audit
// tables: series_points (one row per month-end) and series_runs (one row
// per series per run).
type sqlDialect struct {
	name        string
	schema      []string
	insertPoint string
	insertRun   string
	date        func(time.Time) any
	stamp       func(time.Time) any
}

// SQLDiagnostics writes diagnostics into a database/sql backend.
type SQLDiagnostics struct {
	db      *sql.DB
	dialect sqlDialect
	owns    bool
	log     *logger.Logger
}

func newSQLDiagnostics(db *sql.DB, d sqlDialect, owns bool, log *logger.Logger) *SQLDiagnostics {
	if log == nil {
		log = logger.Nop()
	}
	return &SQLDiagnostics{db: db, dialect: d, owns: owns, log: log}
}

// Migrate creates the audit tables if missing.
func (s *SQLDiagnostics) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s migrate: %w", s.dialect.name, err)
		}
	}
	return nil
}

func (s *SQLDiagnostics) Write(ctx context.Context, series models.NormalizedSeries, rec models.CacheRecord) error {
	start := time.Now()

	cachedAt := s.dialect.stamp(rec.CachedAt)
	if len(series.Points) > 0 {
		if err := s.insertPoints(ctx, series, rec, cachedAt); err != nil {
			return err
		}
	}

	// The run row goes in only once its points are committed. ClickHouse
	// batches a transaction per prepared insert, so it cannot share the tx.
	if _, err := s.db.ExecContext(ctx, s.dialect.insertRun, rec.RunID, rec.Name, rec.Window, rec.Source, rec.RowCount, cachedAt); err != nil {
		return fmt.Errorf("%s insert run %s: %w", s.dialect.name, rec.Name, err)
	}

	s.log.Debug("diagnostics stored",
		logger.String("sink", s.dialect.name),
		logger.Series(rec.Name),
		logger.Int("rows", len(series.Points)),
		logger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *SQLDiagnostics) insertPoints(ctx context.Context, series models.NormalizedSeries, rec models.CacheRecord, cachedAt any) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s begin: %w", s.dialect.name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, s.dialect.insertPoint)
	if err != nil {
		return fmt.Errorf("%s prepare points: %w", s.dialect.name, err)
	}
	defer stmt.Close()

	for _, p := range series.Points {
		var v any
		if p.Value != nil {
			v = *p.Value
		}
		if _, err = stmt.ExecContext(ctx, rec.RunID, rec.Name, rec.Window, s.dialect.date(p.Date), v, cachedAt); err != nil {
			return fmt.Errorf("%s insert point %s: %w", s.dialect.name, rec.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s commit: %w", s.dialect.name, err)
	}
	return nil
}

// Close closes the database when the sink opened it.
func (s *SQLDiagnostics) Close() error {
	if s.owns && s.db != nil {
		return s.db.Close()
	}
	return nil
}
