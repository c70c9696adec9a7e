package di

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	drepo "MacroPull/internal/domain/repository"
	"MacroPull/internal/handler/api"
	"MacroPull/internal/repository"
	"MacroPull/internal/service/fred"
	"MacroPull/internal/service/manual"
	"MacroPull/internal/service/provider"
	"MacroPull/internal/service/ratelimit"
	"MacroPull/internal/service/statfeed"
	"MacroPull/internal/service/tradingeconomics"
	"MacroPull/internal/service/window"
	"MacroPull/internal/service/yahoo"
	"MacroPull/internal/services/analytics"
	"MacroPull/internal/services/timeseries"
	"MacroPull/internal/usecase"
	"MacroPull/pkg/cache"
	pkgch "MacroPull/pkg/clickhouse"
	"MacroPull/pkg/config"
	xhttp "MacroPull/pkg/http"
	pkgkafka "MacroPull/pkg/kafka"
	"MacroPull/pkg/logger"
	"MacroPull/pkg/metrics"
	"MacroPull/pkg/server"
)

// ProvideLogger builds the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the registry served on the metrics endpoint.
func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.New(metrics.WithRegistry(reg), metrics.WithRuntimeCollectors())
}

// ProvideLimiter creates the shared per-host limiter. Adapters set their
// own host rates at construction.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New(1, 2)
}

func ProvideBreakers(cfg *config.Config, log *logger.Logger) *provider.Breakers {
	return provider.NewBreakers(provider.BreakerSettings{
		MaxFailures: cfg.Providers.Breaker.MaxFailures,
		OpenTimeout: cfg.Providers.Breaker.OpenTimeout,
	}, log)
}

// ProvideAdapters registers every source adapter by name.
func ProvideAdapters(cfg *config.Config, limiter *ratelimit.Limiter, breakers *provider.Breakers, log *logger.Logger) *provider.Registry {
	opt := provider.WithLogger(log)
	return provider.NewRegistry(
		yahoo.NewClient(cfg.Providers.Yahoo, limiter, breakers, opt),
		fred.NewClient(cfg.Providers.FRED, limiter, breakers, opt),
		statfeed.NewClient(cfg.Providers.Feeds, limiter, breakers, opt),
		tradingeconomics.NewClient(cfg.Providers.TradingEconomics, limiter, breakers, opt),
		manual.NewReader(cfg.Providers.Manual),
	)
}

func ProvideWindowResolver() *window.Resolver {
	return window.NewResolver()
}

// ProvideOrchestrator creates the fallback orchestrator.
func ProvideOrchestrator(cfg *config.Config, adapters *provider.Registry, m drepo.Metrics, log *logger.Logger) *usecase.FallbackOrchestrator {
	return usecase.NewFallbackOrchestrator(
		adapters,
		timeseries.NewNormalizer(),
		analytics.NewCalculator(),
		m,
		log,
		cfg.Pipeline.CallTimeout,
		cfg.Pipeline.LookbackMonths,
		cfg.Pipeline.HistoryMonths,
	)
}

// ProvideRedis connects to Redis when enabled; otherwise it returns nil.
func ProvideRedis(cfg *config.Config) (*cache.RedisCache, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideDatasetCache fronts Redis with an in-process layer, or falls back
// to memory alone.
func ProvideDatasetCache(rc *cache.RedisCache) (cache.Service, func()) {
	var c cache.Service
	if rc != nil {
		c = cache.NewLayeredCache(rc)
	} else {
		c = cache.NewMemoryCache()
	}
	return c, func() { _ = c.Close() }
}

// ProvideDiagnostics opens every configured sink and fans out to them.
// Cleanup closes the sinks before the clients they write through.
func ProvideDiagnostics(ctx context.Context, cfg *config.Config, rc *cache.RedisCache, log *logger.Logger) (drepo.DiagnosticsWriter, func(), error) {
	var (
		sinks   []drepo.DiagnosticsWriter
		clients []*pkgch.Client
	)
	closeAll := func(multi *repository.MultiDiagnostics) {
		if err := multi.Close(); err != nil {
			log.Warn("diagnostics close failed", logger.Error(err))
		}
		for _, c := range clients {
			_ = c.Close()
		}
	}
	fail := func(err error) (drepo.DiagnosticsWriter, func(), error) {
		closeAll(repository.NewMultiDiagnostics(sinks...))
		return nil, nil, err
	}

	for _, name := range cfg.Diagnostics.Sinks {
		switch name {
		case "file":
			f, err := repository.NewFileDiagnostics(cfg.Diagnostics.Dir, log)
			if err != nil {
				return fail(fmt.Errorf("file diagnostics: %w", err))
			}
			sinks = append(sinks, f)
		case "redis":
			if rc == nil {
				return fail(fmt.Errorf("redis diagnostics: redis is disabled"))
			}
			sinks = append(sinks, repository.NewRedisDiagnostics(rc, cfg.Diagnostics.RedisTTL))
		case "clickhouse":
			client, err := pkgch.NewClient(ctx,
				pkgch.WithHost(cfg.ClickHouse.Host),
				pkgch.WithPort(cfg.ClickHouse.Port),
				pkgch.WithDatabase(cfg.ClickHouse.Database),
				pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
				pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
				pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
				pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecution),
				pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, true),
			)
			if err != nil {
				return fail(fmt.Errorf("clickhouse client: %w", err))
			}
			clients = append(clients, client)
			if err := client.InitSchema(ctx, repository.ClickHouseSchema); err != nil {
				return fail(fmt.Errorf("clickhouse schema: %w", err))
			}
			sinks = append(sinks, repository.NewClickHouseDiagnostics(client.DB(), log))
		case "sqlite":
			s, err := repository.NewSQLiteDiagnostics(ctx, cfg.Diagnostics.SQLite, log)
			if err != nil {
				return fail(fmt.Errorf("sqlite diagnostics: %w", err))
			}
			sinks = append(sinks, s)
		default:
			return fail(fmt.Errorf("unknown diagnostics sink %q", name))
		}
	}

	multi := repository.NewMultiDiagnostics(sinks...)
	log.Info("diagnostics sinks ready", logger.Strings("sinks", cfg.Diagnostics.Sinks))
	return multi, func() { closeAll(multi) }, nil
}

// ProvidePublisher creates the Kafka dataset publisher, or nil when Kafka
// is disabled.
func ProvidePublisher(cfg *config.Config, reg *prometheus.Registry) (drepo.DatasetPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := repository.NewKafkaDatasetPublisher(producer, cfg.Kafka.Topic)
	return pub, func() { _ = pub.Close() }, nil
}

// ProvidePipeline creates the dataset pipeline.
func ProvidePipeline(
	cfg *config.Config,
	w *window.Resolver,
	orch *usecase.FallbackOrchestrator,
	diag drepo.DiagnosticsWriter,
	pub drepo.DatasetPublisher,
	m drepo.Metrics,
	log *logger.Logger,
) *usecase.Pipeline {
	return usecase.NewPipeline(cfg, w, orch, diag, pub, m, log)
}

func ProvideDatasetHandler(cfg *config.Config, log *logger.Logger, runner api.DatasetRunner, w *window.Resolver, c cache.Service) *api.DatasetEchoHandler {
	return api.NewDatasetEchoHandler(log, runner, w, c, cfg.Server.DatasetTTL)
}

// ProvideHTTPServer assembles the Echo server with the dataset routes.
func ProvideHTTPServer(cfg *config.Config, log *logger.Logger, h *api.DatasetEchoHandler, rec *metrics.Recorder) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		opts = append(opts, xhttp.WithCORS(cfg.Server.CORSOrigins...))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(rec, cfg.Metrics.Path, rec.Handler()))
	}
	return xhttp.NewServer(log, []xhttp.Handler{h}, opts...)
}

// ProvideApp creates the application.
func ProvideApp(cfg *config.Config, log *logger.Logger, p *usecase.Pipeline, srv *xhttp.Server) *server.App {
	return server.New(cfg, log, p, srv)
}
