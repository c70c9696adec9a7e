package repository

import (
	"context"
	"errors"

	"MacroPull/internal/domain/models"
	drepo "MacroPull/internal/domain/repository"
)

// MultiDiagnostics fans every write out to all sinks. A failing sink does
// not stop the others; errors are joined.
type MultiDiagnostics struct {
	sinks []drepo.DiagnosticsWriter
}

// NewMultiDiagnostics ignores nil sinks.
func NewMultiDiagnostics(sinks ...drepo.DiagnosticsWriter) *MultiDiagnostics {
	m := &MultiDiagnostics{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len returns the number of sinks.
func (m *MultiDiagnostics) Len() int { return len(m.sinks) }

func (m *MultiDiagnostics) Write(ctx context.Context, s models.NormalizedSeries, rec models.CacheRecord) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Write(ctx, s, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiDiagnostics) Close() error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
