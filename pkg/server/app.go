package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MarinePulse/internal/domain/repository"
	"MarinePulse/internal/handler/api"
	"MarinePulse/internal/usecase"
	pkgch "MarinePulse/pkg/clickhouse"
	"MarinePulse/pkg/config"
	xhttp "MarinePulse/pkg/http"
	pkgkafka "MarinePulse/pkg/kafka"
	applogger "MarinePulse/pkg/logger"
	"MarinePulse/pkg/queue"

	"github.com/redis/go-redis/v9"
)

// App encapsulates the entire application lifecycle: the polling scheduler,
// the read-only HTTP surface, and the infrastructure clients that must be
// closed on the way out.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	scheduler  *usecase.Scheduler
	providers  []repository.ProviderClient
	handler    *api.StateEchoHandler
	producer   *pkgkafka.Producer
	chClient   *pkgch.Client
	rdb        *redis.Client
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	sched *usecase.Scheduler,
	providers []repository.ProviderClient,
	handler *api.StateEchoHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	rdb *redis.Client,
) *App {
	return &App{
		cfg:       cfg,
		logger:    lgr,
		scheduler: sched,
		providers: providers,
		handler:   handler,
		producer:  producer,
		chClient:  chClient,
		rdb:       rdb,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Aggregate repeated error logs into Redis for the ops dashboard.
	if a.rdb != nil {
		a.logger.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "ops.errors",
			Publisher:      queue.NewRedisPublisher(a.logger, a.rdb),
		})
	}

	a.scheduler.Start(ctx)
	a.logger.Info("scheduler started",
		applogger.Duration("interval", a.cfg.Scheduler.PollInterval),
		applogger.Int("providers", len(a.providers)),
		applogger.Strings("ports", a.cfg.Providers.Ports),
	)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(cancel)
}

// shutdown gracefully stops all services. The in-flight cycle gets up to
// the configured scheduler shutdown timeout to finish before clients close.
func (a *App) shutdown(cancel context.CancelFunc) error {
	cancel()
	if !a.scheduler.StopWait(a.cfg.Scheduler.ShutdownTimeout) {
		a.logger.Warn("cycle still running at shutdown deadline, abandoning it",
			applogger.Duration("timeout", a.cfg.Scheduler.ShutdownTimeout))
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer done()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	for _, p := range a.providers {
		if err := p.Close(); err != nil {
			a.logger.Warn("provider close error",
				applogger.String("provider", p.Name()), applogger.Error(err))
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	a.logger.RemoveCollector()
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("redis close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
