package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/singleflight"

	"MacroPull/internal/domain/models"
	domsvc "MacroPull/internal/domain/service"
	"MacroPull/internal/usecase"
	"MacroPull/pkg/cache"
	xhttp "MacroPull/pkg/http"
	"MacroPull/pkg/logger"
)

// DatasetRunner produces a dataset for one request.
type DatasetRunner interface {
	Run(ctx context.Context, req usecase.RunRequest) (*models.Dataset, error)
}

// DatasetEchoHandler serves datasets over HTTP, memoised per month and
// market selection.
type DatasetEchoHandler struct {
	logger *logger.Logger
	runner DatasetRunner
	window domsvc.WindowResolver
	cache  cache.Service
	ttl    time.Duration
	group  singleflight.Group
}

func NewDatasetEchoHandler(log *logger.Logger, runner DatasetRunner, window domsvc.WindowResolver, c cache.Service, ttl time.Duration) *DatasetEchoHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DatasetEchoHandler{logger: log, runner: runner, window: window, cache: c, ttl: ttl}
}

func (h *DatasetEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/dataset", h.Dataset)
	g.GET("/dataset/series/:name", h.Series)
}

func (h *DatasetEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *DatasetEchoHandler) Dataset(c echo.Context) error {
	req := &models.DatasetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ds, err := h.load(c.Request().Context(), req.Month, req.Markets)
	if err != nil {
		return h.fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return xhttp.SuccessResponse(c, ds)
}

func (h *DatasetEchoHandler) Series(c echo.Context) error {
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ds, err := h.load(c.Request().Context(), req.Month, req.Markets)
	if err != nil {
		return h.fail(c, err)
	}
	res, ok := ds.Get(req.Name)
	if !ok {
		return h.fail(c, models.ErrSeriesNotFound)
	}
	return xhttp.SuccessResponse(c, res)
}

// load resolves the month first so that "auto" and the explicit label share
// one cache entry.
func (h *DatasetEchoHandler) load(ctx context.Context, month, markets string) (*models.Dataset, error) {
	w, err := h.window.Resolve(month)
	if err != nil {
		return nil, err
	}
	selection := xhttp.ParseList(markets)
	key := cache.GenerateKeyWithParams("dataset", w.Label, cache.SetKey(selection))

	// Callers share the run, so one client going away must not cancel it.
	runCtx := context.WithoutCancel(ctx)
	v, err, shared := h.group.Do(key, func() (interface{}, error) {
		return cache.GetOrLoad(runCtx, h.cache, key, h.ttl, func(ctx context.Context) (*models.Dataset, error) {
			return h.runner.Run(ctx, usecase.RunRequest{Month: w.Label, Markets: selection})
		})
	})
	if err != nil {
		return nil, err
	}
	if shared {
		h.logger.Debug("dataset request coalesced", logger.String("key", key))
	}
	return v.(*models.Dataset), nil
}

func (h *DatasetEchoHandler) fail(c echo.Context, err error) error {
	var appErr *xhttp.AppError
	switch {
	case errors.Is(err, models.ErrInvalidWindowSpec):
		appErr = xhttp.BadRequestError("month", err.Error())
	case errors.Is(err, models.ErrNoMarketsSelected):
		appErr = xhttp.BadRequestError("markets", err.Error())
	case errors.Is(err, models.ErrSeriesNotFound):
		appErr = xhttp.NotFoundErrorf("series %q not found", c.Param("name")).WithError(err)
	default:
		h.logger.Error("dataset request failed", logger.String("uri", c.Request().RequestURI), logger.Error(err))
		appErr = xhttp.InternalError(http.StatusText(http.StatusInternalServerError)).WithError(err)
	}
	return xhttp.AppErrorResponse(c, appErr)
}
