package service

import (
	"context"
	"time"

	"MacroPull/internal/domain/models"
)

// WindowResolver turns a month specifier into calendar boundaries.
type WindowResolver interface {
	Resolve(spec string) (models.MonthWindow, error)
}

// Normalizer canonicalizes raw provider output onto a month-end grid.
type Normalizer interface {
	Normalize(raw models.RawSeries) models.NormalizedSeries
	Trim(s models.NormalizedSeries, upto time.Time, n int) models.NormalizedSeries
}

// MetricCalculator derives point and change statistics for a window.
type MetricCalculator interface {
	Compute(s models.NormalizedSeries, w models.MonthWindow, kind models.MetricKind, freq models.Frequency) models.Metric
}

// SeriesResolver drives one logical series through its fallback chain. It
// returns the dataset entry and the full normalized series behind it.
type SeriesResolver interface {
	Resolve(ctx context.Context, ls models.LogicalSeries, w models.MonthWindow) (*models.SeriesResult, models.NormalizedSeries)
}
