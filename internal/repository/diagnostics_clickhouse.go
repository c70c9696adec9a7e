package repository

import (
	"database/sql"
	"time"

	"MacroPull/pkg/logger"
)

// ClickHouseSchema creates the audit tables. Re-running a month replaces
// its points on merge.
var ClickHouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS series_points (
		run_id    String,
		series    LowCardinality(String),
		month     FixedString(7),
		date      Date,
		value     Nullable(Float64),
		cached_at DateTime64(3, 'UTC')
	) ENGINE = ReplacingMergeTree(cached_at)
	ORDER BY (series, month, date)`,
	`CREATE TABLE IF NOT EXISTS series_runs (
		run_id    String,
		series    LowCardinality(String),
		month     FixedString(7),
		source    LowCardinality(String),
		row_count UInt32,
		cached_at DateTime64(3, 'UTC')
	) ENGINE = MergeTree
	ORDER BY (series, cached_at)`,
}

var clickhouseDialect = sqlDialect{
	name:        "clickhouse",
	schema:      ClickHouseSchema,
	insertPoint: `INSERT INTO series_points (run_id, series, month, date, value, cached_at) VALUES (?, ?, ?, ?, ?, ?)`,
	insertRun:   `INSERT INTO series_runs (run_id, series, month, source, row_count, cached_at) VALUES (?, ?, ?, ?, ?, ?)`,
	date:        func(t time.Time) any { return t.UTC() },
	stamp:       func(t time.Time) any { return t.UTC() },
}

// NewClickHouseDiagnostics writes through db, which the caller owns. Tables
// are created by pkg/clickhouse Client.InitSchema with ClickHouseSchema.
func NewClickHouseDiagnostics(db *sql.DB, log *logger.Logger) *SQLDiagnostics {
	return newSQLDiagnostics(db, clickhouseDialect, false, log)
}
