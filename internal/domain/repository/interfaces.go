package repository

import (
	"context"

	"MacroPull/internal/domain/models"
)

// SourceAdapter wraps one external data source.
//
// Fetch returns an error wrapping models.ErrSourceEmpty when the provider
// answered without usable rows, and a *models.SourceError for transient
// failures. Both advance the fallback chain.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context, id string, w models.MonthWindow, lookbackMonths int) (models.RawSeries, error)
}

// AdapterLookup resolves adapters by source name.
type AdapterLookup interface {
	Adapter(name string) (SourceAdapter, bool)
}

// DiagnosticsWriter persists normalized series for post-run audit.
// Implementations must accept concurrent writes for distinct names.
type DiagnosticsWriter interface {
	Write(ctx context.Context, s models.NormalizedSeries, rec models.CacheRecord) error
	Close() error
}

// DatasetPublisher hands a finished dataset to downstream consumers.
type DatasetPublisher interface {
	Publish(ctx context.Context, d *models.Dataset) error
	Close() error
}

type Metrics interface {
	RecordAttempt(series, adapter, outcome string)
	RecordAvailability(series string, available bool)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
