//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	drepo "MacroPull/internal/domain/repository"
	"MacroPull/internal/handler/api"
	"MacroPull/internal/usecase"
	"MacroPull/pkg/config"
	"MacroPull/pkg/metrics"
	"MacroPull/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(ctx context.Context, cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,
		wire.Bind(new(drepo.Metrics), new(*metrics.Recorder)),

		// Sources
		ProvideLimiter,
		ProvideBreakers,
		ProvideAdapters,
		ProvideWindowResolver,
		ProvideOrchestrator,

		// Storage and delivery
		ProvideRedis,
		ProvideDatasetCache,
		ProvideDiagnostics,
		ProvidePublisher,

		// Use cases
		ProvidePipeline,
		wire.Bind(new(api.DatasetRunner), new(*usecase.Pipeline)),

		// HTTP and application
		ProvideDatasetHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
