package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MacroPull/internal/domain/models"
	drepo "MacroPull/internal/domain/repository"
	domsvc "MacroPull/internal/domain/service"
	"MacroPull/internal/services/timeseries"
	"MacroPull/pkg/logger"
)

// FallbackOrchestrator resolves a logical series by trying its candidates
// in order until one yields a non-empty series inside the declared range.
// Each candidate is tried at most once per call.
type FallbackOrchestrator struct {
	adapters    drepo.AdapterLookup
	normalizer  domsvc.Normalizer
	calc        domsvc.MetricCalculator
	metrics     drepo.Metrics
	log         *logger.Logger
	callTimeout time.Duration
	lookback    int
	history     int
}

// NewFallbackOrchestrator creates a new FallbackOrchestrator instance.
func NewFallbackOrchestrator(
	adapters drepo.AdapterLookup,
	normalizer domsvc.Normalizer,
	calc domsvc.MetricCalculator,
	metrics drepo.Metrics,
	log *logger.Logger,
	callTimeout time.Duration,
	lookbackMonths int,
	historyMonths int,
) *FallbackOrchestrator {
	if log == nil {
		log = logger.Nop()
	}
	if callTimeout <= 0 {
		callTimeout = 45 * time.Second
	}
	return &FallbackOrchestrator{
		adapters:    adapters,
		normalizer:  normalizer,
		calc:        calc,
		metrics:     metrics,
		log:         log,
		callTimeout: callTimeout,
		lookback:    lookbackMonths,
		history:     historyMonths,
	}
}

// Resolve never fails: an exhausted chain yields an unavailable result with
// empty history and null metric fields.
func (o *FallbackOrchestrator) Resolve(ctx context.Context, ls models.LogicalSeries, w models.MonthWindow) (*models.SeriesResult, models.NormalizedSeries) {
	res := &models.SeriesResult{
		Name:     ls.Name,
		Label:    ls.Label,
		Group:    ls.Group,
		Unit:     ls.Unit,
		Attempts: make([]models.Attempt, 0, len(ls.Candidates)),
		History:  models.NormalizedSeries{Name: ls.Name},
		Metric:   models.Metric{Kind: ls.Kind},
	}
	log := o.log.With(logger.Series(ls.Name))

	for _, cand := range ls.Candidates {
		series, attempt := o.try(ctx, ls, cand, w)
		res.Attempts = append(res.Attempts, attempt)
		o.recordAttempt(ls.Name, attempt)

		switch attempt.Outcome {
		case models.OutcomeOK:
			series.Name = ls.Name
			res.Available = true
			res.Source = cand.Source
			res.History = o.normalizer.Trim(series, w.End, o.history)
			res.Metric = o.calc.Compute(series, w, ls.Kind, ls.Frequency)
			log.Debug("series resolved",
				logger.Adapter(cand.Source),
				logger.String("id", cand.ID),
				logger.Int("months", len(series.Points)),
			)
			o.recordAvailability(ls.Name, true)
			return res, series
		case models.OutcomeError, models.OutcomeInvalid:
			log.Warn("source attempt failed, falling back",
				logger.Adapter(cand.Source),
				logger.String("id", cand.ID),
				logger.String("outcome", attempt.Outcome),
				logger.String("error", attempt.Error),
			)
		default:
			log.Info("source returned no data, falling back",
				logger.Adapter(cand.Source),
				logger.String("id", cand.ID),
			)
		}
	}

	log.Warn("series unavailable", logger.Int("attempts", len(res.Attempts)))
	o.recordAvailability(ls.Name, false)
	return res, models.NormalizedSeries{Name: ls.Name}
}

func (o *FallbackOrchestrator) try(ctx context.Context, ls models.LogicalSeries, cand models.Candidate, w models.MonthWindow) (models.NormalizedSeries, models.Attempt) {
	attempt := models.Attempt{Adapter: cand.Source, ID: cand.ID}
	start := time.Now()

	finish := func(outcome string, err error) (models.NormalizedSeries, models.Attempt) {
		attempt.Outcome = outcome
		if err != nil {
			attempt.Error = err.Error()
		}
		attempt.Duration = time.Since(start)
		return models.NormalizedSeries{}, attempt
	}

	adapter, ok := o.adapters.Adapter(cand.Source)
	if !ok {
		return finish(models.OutcomeError, models.NewSourceError(cand.Source, cand.ID, errors.New("no adapter registered")))
	}

	raw, err := o.fetch(ctx, adapter, cand.ID, w)
	if err != nil {
		if errors.Is(err, models.ErrSourceEmpty) {
			return finish(models.OutcomeEmpty, err)
		}
		return finish(models.OutcomeError, err)
	}

	series := o.normalizer.Normalize(timeseries.Scale(raw, cand.Scale))
	if series.IsEmpty() {
		return finish(models.OutcomeEmpty, models.Empty(cand.Source, cand.ID, "no values after normalization"))
	}
	if lo, hi, _ := timeseries.Bounds(series); !ls.Range.Contains(lo) || !ls.Range.Contains(hi) {
		return finish(models.OutcomeInvalid, fmt.Errorf("values [%g, %g] outside plausible range [%g, %g] %s",
			lo, hi, ls.Range.Min, ls.Range.Max, ls.Unit))
	}

	attempt.Outcome = models.OutcomeOK
	attempt.Duration = time.Since(start)
	return series, attempt
}

// fetch calls the adapter under the per-call timeout and turns panics into
// source errors.
func (o *FallbackOrchestrator) fetch(ctx context.Context, a drepo.SourceAdapter, id string, w models.MonthWindow) (raw models.RawSeries, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = models.NewSourceError(a.Name(), id, fmt.Errorf("panic: %v", r))
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	raw, err = a.Fetch(callCtx, id, w, o.lookback)
	if err != nil {
		var se *models.SourceError
		if !errors.Is(err, models.ErrSourceEmpty) && !errors.As(err, &se) {
			err = models.NewSourceError(a.Name(), id, err)
		}
		return models.RawSeries{}, err
	}
	return raw, nil
}

func (o *FallbackOrchestrator) recordAttempt(series string, a models.Attempt) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordAttempt(series, a.Adapter, a.Outcome)
	o.metrics.RecordLatency("fetch_"+a.Adapter, a.Duration.Seconds())
	if a.Outcome == models.OutcomeError {
		o.metrics.RecordError("source_" + a.Adapter)
	}
}

func (o *FallbackOrchestrator) recordAvailability(series string, ok bool) {
	if o.metrics != nil {
		o.metrics.RecordAvailability(series, ok)
	}
}
