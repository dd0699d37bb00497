package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockCast/internal/scheduler"
	"StockCast/pkg/config"
	xhttp "StockCast/pkg/http"
	pkgkafka "StockCast/pkg/kafka"
	applogger "StockCast/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	scheduler  *scheduler.Scheduler
	producer   *pkgkafka.Producer
	signals    chan os.Signal
}

// New creates a new App instance. scheduler and producer may be nil.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	producer *pkgkafka.Producer,
) *App {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		scheduler:  sched,
		producer:   producer,
		signals:    make(chan os.Signal, 1),
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	l := a.logger

	// Ship aggregated error logs to Kafka if configured
	if a.producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   a.cfg.Kafka.FlushInterval,
			CountThreshold: a.cfg.Kafka.FlushCount,
			Topic:          a.cfg.Kafka.Topic,
			Publisher:      a.producer,
			PublishTimeout: a.cfg.Kafka.WriteTimeout,
		})
		l.Info("log shipping enabled",
			applogger.Strings("brokers", a.cfg.Kafka.Brokers),
			applogger.String("topic", a.cfg.Kafka.Topic))
	}

	if a.scheduler != nil {
		a.scheduler.Start()
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("stockcast started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("source", a.cfg.Source.Type),
		applogger.String("model", a.cfg.Forecast.Model),
		applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	signal.Notify(a.signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(a.signals)
	<-a.signals

	l.Info("shutdown signal received")
	return a.shutdown(context.Background())
}

// Shutdown triggers the same path as SIGTERM.
func (a *App) Shutdown() {
	select {
	case a.signals <- syscall.SIGTERM:
	default:
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.scheduler != nil {
		if err := a.scheduler.Stop(shutdownCtx); err != nil {
			l.Warn("scheduler stop error", applogger.Error(err))
		}
	}

	// Flush pending error entries; the producer itself is closed by the injector cleanup
	if a.producer != nil {
		l.RemoveCollector()
	}

	l.Info("shutdown complete")
	return nil
}
