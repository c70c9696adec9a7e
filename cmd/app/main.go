package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"MacroPull/internal/di"
	"MacroPull/internal/domain/models"
	"MacroPull/internal/usecase"
	"MacroPull/pkg/config"
	"MacroPull/pkg/logger"
	"MacroPull/pkg/util"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitBadInput = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	month := flag.String("month", "auto", "reporting month as YYYY-MM, or auto for the previous month")
	markets := flag.String("markets", "", "comma-separated market codes; empty means all configured")
	serve := flag.Bool("serve", false, "serve datasets over HTTP instead of a single run")
	outDir := flag.String("out", "", "output directory for dataset.json (default server.out_dir)")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Printf("config load failed: %v", err)
		return exitBadInput
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := di.InitializeApp(ctx, cfg)
	if err != nil {
		log.Printf("app initialization failed: %v", err)
		return exitFailure
	}
	defer cleanup()
	l := app.Logger()

	if *serve {
		if err := app.Serve(ctx); err != nil {
			l.Error("service error", logger.Error(err))
			return exitFailure
		}
		return exitOK
	}

	req := usecase.RunRequest{Month: *month, Markets: util.SplitList(*markets)}
	ds, path, err := app.RunOnce(ctx, req, *outDir)
	switch {
	case errors.Is(err, models.ErrInvalidWindowSpec), errors.Is(err, models.ErrNoMarketsSelected):
		l.Error("invalid run request", logger.Error(err))
		return exitBadInput
	case err != nil:
		l.Error("run failed", logger.Error(err))
		return exitFailure
	}

	l.Info("run complete",
		logger.String("run_id", ds.RunID),
		logger.String("path", path),
		logger.Int("series", len(ds.Order)),
		logger.Int("unavailable", len(ds.Unavailable())),
	)
	return exitOK
}
