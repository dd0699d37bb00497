package di

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/repository"
	domsvc "StockCast/internal/domain/service"
	"StockCast/internal/handler/api"
	internalrepo "StockCast/internal/repository"
	"StockCast/internal/scheduler"
	"StockCast/internal/services/forecast"
	"StockCast/internal/usecase"
	"StockCast/pkg/cache"
	pkgch "StockCast/pkg/clickhouse"
	"StockCast/pkg/config"
	xhttp "StockCast/pkg/http"
	pkgkafka "StockCast/pkg/kafka"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/metrics"
	"StockCast/pkg/postgres"
	"StockCast/pkg/ratelimit"
	"StockCast/pkg/server"
	"StockCast/pkg/sqlite"
)

const initTimeout = 10 * time.Second

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the series cache: in-process LRU, layered over Redis when enabled.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	mem := cache.NewMemoryCache(
		cache.WithMemoryMaxSize(cfg.Cache.MemorySize),
		cache.WithMemoryDefaultTTL(cfg.Cache.TTL),
	)
	if !cfg.Cache.Redis.Enabled {
		return mem, func() { _ = mem.Close() }, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	rc, err := cache.NewRedisCache(ctx,
		cache.WithRedisAddr(cfg.Cache.Redis.Addr),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		_ = mem.Close()
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache connected", applogger.String("addr", cfg.Cache.Redis.Addr))

	layered := cache.NewLayeredCache(mem, rc, cfg.Cache.TTL/2)
	return layered, func() {
		if err := layered.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}, nil
}

// ProvideSeriesSource opens the configured upstream and wraps it in the cache decorator.
func ProvideSeriesSource(cfg *config.Config, c cache.Service, m repository.Metrics, l *applogger.Logger) (repository.SeriesSource, func(), error) {
	base, cleanup, err := openSource(cfg, l)
	if err != nil {
		return nil, nil, err
	}
	l.Info("series source ready", applogger.String("source", base.Name()))
	if !cfg.Cache.Enabled {
		return base, cleanup, nil
	}
	cached := internalrepo.NewCachedSource(base, c, cfg.Cache.TTL, m)
	cached.SetLogger(l)
	return cached, cleanup, nil
}

func openSource(cfg *config.Config, l *applogger.Logger) (repository.SeriesSource, func(), error) {
	nop := func() {}
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	sc := cfg.Source
	switch sc.Type {
	case config.SourceSynthetic:
		return internalrepo.NewSyntheticSource(sc.Synthetic.Seed), nop, nil

	case config.SourceYahoo:
		opts := []internalrepo.YahooOption{internalrepo.WithYahooSymbols(sc.Yahoo.Symbols)}
		if sc.Yahoo.BaseURL != "" {
			opts = append(opts, internalrepo.WithYahooBaseURL(sc.Yahoo.BaseURL))
		}
		src := internalrepo.NewYahooSource(xhttp.NewClient(xhttp.WithTimeout(sc.Timeout)), opts...)
		src.SetLogger(l)
		return src, nop, nil

	case config.SourceAlpaca:
		return internalrepo.NewAlpacaSource(sc.Alpaca.APIKey, sc.Alpaca.APISecret, sc.Alpaca.Feed), nop, nil

	case config.SourceClickHouse:
		ch, err := pkgch.NewClient(ctx,
			pkgch.WithHost(sc.ClickHouse.Host),
			pkgch.WithPort(sc.ClickHouse.Port),
			pkgch.WithDatabase(sc.ClickHouse.Database),
			pkgch.WithCredentials(sc.ClickHouse.User, sc.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(sc.ClickHouse.UseHTTP),
			pkgch.WithTimeouts(sc.ClickHouse.DialTimeout, sc.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(sc.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		if err := ch.InitSchema(ctx, []string{pkgch.DailyPricesDDL(sc.ClickHouse.Table)}); err != nil {
			_ = ch.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		src, err := internalrepo.NewClickHouseSource(ch, sc.ClickHouse.Table)
		if err != nil {
			_ = ch.Close()
			return nil, nil, err
		}
		src.SetLogger(l)
		return src, closeWith(l, "clickhouse", ch.Close), nil

	case config.SourceSQLite:
		db, err := sqlite.Open(ctx, sc.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		if err := sqlite.Migrate(ctx, db, sqlite.DailyPricesDDL(sc.SQLite.Table)...); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("sqlite schema: %w", err)
		}
		src, err := internalrepo.NewSQLiteSource(db, sc.SQLite.Table)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		src.SetLogger(l)
		return src, closeWith(l, "sqlite", db.Close), nil

	case config.SourcePostgres:
		pool, err := postgres.Connect(ctx, sc.Postgres.DSN, postgres.PoolConfig{MaxConns: sc.Postgres.MaxConns})
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		if _, err := pool.Exec(ctx, postgres.DailyPricesDDL(sc.Postgres.Table)); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres schema: %w", err)
		}
		src, err := internalrepo.NewPostgresSource(pool, sc.Postgres.Table)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return src, pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown source type %q", sc.Type)
}

func closeWith(l *applogger.Logger, name string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			l.Warn("close error", applogger.String("resource", name), applogger.Error(err))
		}
	}
}

// ProvideForecasterFactory builds the factory for forecast.model.
func ProvideForecasterFactory(cfg *config.Config) (domsvc.ForecasterFactory, error) {
	f, err := forecast.NewFactory(forecast.Config{
		Model:      cfg.Forecast.Model,
		Seed:       cfg.Forecast.Seed,
		Lookback:   cfg.Forecast.Lookback,
		ServiceURL: cfg.Forecast.ServiceURL,
		Timeout:    cfg.Forecast.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("forecaster: %w", err)
	}
	return f, nil
}

// ProvidePredictionUseCase creates the prediction orchestrator.
func ProvidePredictionUseCase(
	src repository.SeriesSource,
	factory domsvc.ForecasterFactory,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.PredictionUseCase {
	return usecase.NewPredictionUseCase(src, factory, m, l,
		usecase.WithEpochs(cfg.Forecast.Epochs),
		usecase.WithSourceTimeout(cfg.Source.Timeout),
		usecase.WithMaxHorizon(cfg.Forecast.MaxHorizon),
	)
}

// ProvideHTTPServer registers the API handlers on an echo server.
func ProvideHTTPServer(cfg *config.Config, uc *usecase.PredictionUseCase, l *applogger.Logger) *xhttp.Server {
	handler := api.NewPredictEchoHandler(l, uc,
		api.WithStreamOrigins(cfg.Server.CORS.Origins...),
		api.WithStreamTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
	)
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS.Enabled, cfg.Server.CORS.Origins...),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.Path),
	}
	if cfg.Server.Host != "" {
		opts = append(opts, xhttp.WithHost(cfg.Server.Host))
	}
	if cfg.RateLimit.Enabled {
		opts = append(opts, xhttp.WithRateLimit(ratelimit.New(cfg.RateLimit.Burst, cfg.RateLimit.PerSec)))
	}
	return xhttp.NewServer(handler, l, opts...)
}

// ProvideScheduler registers the cache prewarm job. Returns nil when disabled.
func ProvideScheduler(cfg *config.Config, src repository.SeriesSource, c cache.Service, l *applogger.Logger) (*scheduler.Scheduler, error) {
	if !cfg.Prewarm.Enabled {
		return nil, nil
	}
	s := scheduler.New(l)
	job := usecase.NewPrewarmer(src, c, cfg.Prewarm.Tickers, cfg.Prewarm.LookbackDays, cfg.Prewarm.Timeout, l)
	if err := s.Register("prewarm", cfg.Prewarm.Schedule, job); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideKafkaProducer creates the log shipping producer. Returns nil when disabled.
// The cleanup runs after the app has flushed its log collector.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithClientID(cfg.Kafka.ClientID),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, closeWith(l, "kafka", producer.Close), nil
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	producer *pkgkafka.Producer,
) *server.App {
	return server.New(cfg, l, httpServer, sched, producer)
}
