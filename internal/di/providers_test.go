package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/repository"
	"MacroPull/pkg/cache"
	"MacroPull/pkg/config"
	"MacroPull/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Pipeline: config.PipelineConfig{Workers: 2, LookbackMonths: 24, HistoryMonths: 12, CallTimeout: time.Second},
		Diagnostics: config.DiagnosticsConfig{
			Sinks:  []string{"file", "sqlite"},
			Dir:    filepath.Join(dir, "cache"),
			SQLite: filepath.Join(dir, "diag.db"),
		},
		Server:  config.ServerConfig{Port: 8080, DatasetTTL: time.Minute, ShutdownTimeout: time.Second},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func TestProvideAdaptersRegistersEverySource(t *testing.T) {
	cfg := testConfig(t)
	log := logger.Nop()
	reg := ProvideAdapters(cfg, ProvideLimiter(), ProvideBreakers(cfg, log), log)
	assert.Equal(t, []string{"fred", "manual", "statfeed", "tradingeconomics", "yahoo"}, reg.Names())
}

func TestProvideDiagnosticsFansOut(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	diag, cleanup, err := ProvideDiagnostics(ctx, cfg, nil, logger.Nop())
	require.NoError(t, err)
	defer cleanup()

	multi, ok := diag.(*repository.MultiDiagnostics)
	require.True(t, ok)
	assert.Equal(t, 2, multi.Len())

	v := 1.5
	s := models.NormalizedSeries{Name: "gold", Points: []models.Point{
		{Date: time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC), Value: &v},
	}}
	rec := models.CacheRecord{Name: "gold", RowCount: 1, CachedAt: time.Now().UTC(), RunID: "r", Window: "2025-09", Source: "yahoo"}
	require.NoError(t, diag.Write(ctx, s, rec))
	assert.FileExists(t, filepath.Join(cfg.Diagnostics.Dir, "gold.csv"))
	assert.FileExists(t, cfg.Diagnostics.SQLite)
}

func TestProvideDiagnosticsRejectsUnavailableSinks(t *testing.T) {
	cfg := testConfig(t)

	cfg.Diagnostics.Sinks = []string{"file", "redis"}
	_, _, err := ProvideDiagnostics(context.Background(), cfg, nil, logger.Nop())
	assert.Error(t, err)

	cfg.Diagnostics.Sinks = []string{"s3"}
	_, _, err = ProvideDiagnostics(context.Background(), cfg, nil, logger.Nop())
	assert.Error(t, err)
}

func TestProvidePublisherDisabled(t *testing.T) {
	pub, cleanup, err := ProvidePublisher(testConfig(t), ProvideRegistry())
	require.NoError(t, err)
	defer cleanup()
	assert.Nil(t, pub)
}

func TestProvideDatasetCacheWithoutRedis(t *testing.T) {
	c, cleanup := ProvideDatasetCache(nil)
	defer cleanup()
	_, ok := c.(*cache.MemoryCache)
	assert.True(t, ok)
}

func TestProvideHTTPServerRoutes(t *testing.T) {
	cfg := testConfig(t)
	log := logger.Nop()
	reg := ProvideRegistry()
	rec := ProvideMetrics(reg)
	c, cleanup := ProvideDatasetCache(nil)
	defer cleanup()

	w := ProvideWindowResolver()
	orch := ProvideOrchestrator(cfg, ProvideAdapters(cfg, ProvideLimiter(), ProvideBreakers(cfg, log), log), rec, log)
	p := ProvidePipeline(cfg, w, orch, nil, nil, rec, log)
	srv := ProvideHTTPServer(cfg, log, ProvideDatasetHandler(cfg, log, p, w, c), rec)

	for _, path := range []string{"/healthz", "/metrics"} {
		resp := httptest.NewRecorder()
		srv.Echo().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, resp.Code, path)
	}

	resp := httptest.NewRecorder()
	srv.Echo().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/dataset?month=2025-13", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestProvideHTTPServerCORS(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.CORSOrigins = []string{"https://dash.example.com"}
	log := logger.Nop()
	rec := ProvideMetrics(ProvideRegistry())
	c, cleanup := ProvideDatasetCache(nil)
	defer cleanup()

	w := ProvideWindowResolver()
	orch := ProvideOrchestrator(cfg, ProvideAdapters(cfg, ProvideLimiter(), ProvideBreakers(cfg, log), log), rec, log)
	p := ProvidePipeline(cfg, w, orch, nil, nil, rec, log)
	srv := ProvideHTTPServer(cfg, log, ProvideDatasetHandler(cfg, log, p, w, c), rec)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	resp := httptest.NewRecorder()
	srv.Echo().ServeHTTP(resp, req)
	assert.Equal(t, "https://dash.example.com", resp.Header().Get("Access-Control-Allow-Origin"))
}
