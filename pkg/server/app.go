package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/usecase"
	"MacroPull/pkg/config"
	xhttp "MacroPull/pkg/http"
	"MacroPull/pkg/logger"
)

// DatasetFile is the name of the dataset written under <out>/<month>/.
const DatasetFile = "dataset.json"

// Runner produces one dataset.
type Runner interface {
	Run(ctx context.Context, req usecase.RunRequest) (*models.Dataset, error)
}

// App encapsulates the application lifecycle: a single run or the HTTP
// service.
type App struct {
	cfg    *config.Config
	log    *logger.Logger
	runner Runner
	http   *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *logger.Logger, runner Runner, srv *xhttp.Server) *App {
	if log == nil {
		log = logger.Nop()
	}
	return &App{cfg: cfg, log: log, runner: runner, http: srv}
}

// Logger returns the application logger.
func (a *App) Logger() *logger.Logger { return a.log }

// RunOnce builds the dataset for req and writes it to
// <outDir>/<month>/dataset.json. An empty outDir uses server.out_dir.
func (a *App) RunOnce(ctx context.Context, req usecase.RunRequest, outDir string) (*models.Dataset, string, error) {
	ds, err := a.runner.Run(ctx, req)
	if err != nil {
		return nil, "", err
	}
	if outDir == "" {
		outDir = a.cfg.Server.OutDir
	}
	path, err := writeDataset(outDir, ds)
	if err != nil {
		return ds, "", err
	}
	a.log.Info("dataset written",
		logger.String("path", path),
		logger.String("month", ds.Window.Label),
		logger.Strings("unavailable", ds.Unavailable()),
	)
	return ds, path, nil
}

// Serve runs the HTTP service until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	if a.http == nil {
		return fmt.Errorf("http server not configured")
	}
	start := time.Now()
	err := a.http.Run(ctx)
	a.log.Info("service stopped", logger.Duration("uptime", time.Since(start)))
	return err
}

func writeDataset(outDir string, ds *models.Dataset) (string, error) {
	dir := filepath.Join(outDir, ds.Window.Label)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	b, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode dataset: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+DatasetFile+"-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close dataset: %w", err)
	}

	path := filepath.Join(dir, DatasetFile)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename dataset: %w", err)
	}
	return path, nil
}
