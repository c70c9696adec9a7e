package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"MacroPull/internal/domain/models"
	drepo "MacroPull/internal/domain/repository"
	domsvc "MacroPull/internal/domain/service"
	"MacroPull/pkg/config"
	"MacroPull/pkg/logger"
)

// RunRequest selects the reporting month and markets for one run.
type RunRequest struct {
	Month   string
	Markets []string
}

// Pipeline assembles a Dataset: resolve the window once, resolve every
// logical series in parallel, hand normalized series to diagnostics and
// publish the result.
type Pipeline struct {
	cfg       *config.Config
	window    domsvc.WindowResolver
	series    domsvc.SeriesResolver
	diag      drepo.DiagnosticsWriter
	publisher drepo.DatasetPublisher
	metrics   drepo.Metrics
	log       *logger.Logger
	now       func() time.Time
	newID     func() string
}

// NewPipeline creates a new Pipeline instance. diag and publisher may be nil.
func NewPipeline(
	cfg *config.Config,
	window domsvc.WindowResolver,
	series domsvc.SeriesResolver,
	diag drepo.DiagnosticsWriter,
	publisher drepo.DatasetPublisher,
	metrics drepo.Metrics,
	log *logger.Logger,
) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		cfg:       cfg,
		window:    window,
		series:    series,
		diag:      diag,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Run fails only for bad input detected before any fetch: the month
// specifier or the market selection. Source failures stay per series.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*models.Dataset, error) {
	start := time.Now()

	w, err := p.window.Resolve(req.Month)
	if err != nil {
		return nil, fmt.Errorf("resolve window: %w", err)
	}

	selection := req.Markets
	if len(selection) == 0 {
		selection = p.cfg.Pipeline.Markets
	}
	markets, err := p.cfg.SelectMarkets(selection)
	if err != nil {
		return nil, fmt.Errorf("select markets: %w", err)
	}

	catalog := BuildCatalog(p.cfg, markets)
	runID := p.newID()
	log := p.log.With(logger.String("run_id", runID), logger.String("month", w.Label))
	log.Info("pipeline run started", logger.Int("series", len(catalog)))

	results := make([]*models.SeriesResult, len(catalog))

	workers := p.cfg.Pipeline.Workers
	if workers < 1 {
		workers = 1
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, ls := range catalog {
		i, ls := i, ls
		g.Go(func() error {
			results[i] = p.resolveOne(ctx, log, runID, ls, w)
			return nil
		})
	}
	_ = g.Wait()

	ds := models.NewDataset(runID, w, p.now())
	for _, r := range results {
		ds.Add(r)
	}

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, ds); err != nil {
			log.Warn("dataset publish failed", logger.Error(err))
			p.recordError("publish")
		}
	}

	if p.metrics != nil {
		p.metrics.RecordLatency("pipeline_run", time.Since(start).Seconds())
	}
	log.Info("pipeline run finished",
		logger.Int("available", len(ds.Order)-len(ds.Unavailable())),
		logger.Strings("unavailable", ds.Unavailable()),
		logger.Duration("duration_ms", time.Since(start)),
	)
	return ds, nil
}

// resolveOne owns one result slot. A panic outside the adapters still only
// costs this series.
func (p *Pipeline) resolveOne(ctx context.Context, log *logger.Logger, runID string, ls models.LogicalSeries, w models.MonthWindow) (res *models.SeriesResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("series resolution panicked", logger.Series(ls.Name), logger.Any("panic", r))
			p.recordError("series_panic")
			res = &models.SeriesResult{
				Name:    ls.Name,
				Label:   ls.Label,
				Group:   ls.Group,
				Unit:    ls.Unit,
				History: models.NormalizedSeries{Name: ls.Name},
				Metric:  models.Metric{Kind: ls.Kind},
			}
		}
	}()

	res, series := p.series.Resolve(ctx, ls, w)
	p.writeDiagnostics(ctx, log, runID, w, res, series)
	return res
}

// writeDiagnostics records every series of the run. An unavailable series
// leaves an empty payload and a zero-row record with no source.
func (p *Pipeline) writeDiagnostics(ctx context.Context, log *logger.Logger, runID string, w models.MonthWindow, res *models.SeriesResult, series models.NormalizedSeries) {
	if p.diag == nil {
		return
	}
	rec := models.CacheRecord{
		Name:     res.Name,
		RowCount: series.ValidCount(),
		CachedAt: p.now(),
		RunID:    runID,
		Window:   w.Label,
		Source:   res.Source,
	}
	if err := p.diag.Write(ctx, series, rec); err != nil {
		log.Warn("diagnostics write failed", logger.Series(res.Name), logger.Error(err))
		p.recordError("diagnostics")
	}
}

func (p *Pipeline) recordError(kind string) {
	if p.metrics != nil {
		p.metrics.RecordError(kind)
	}
}
