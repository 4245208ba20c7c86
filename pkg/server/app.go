package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RateCast/internal/handler/api"
	"RateCast/internal/usecase"
	pkgch "RateCast/pkg/clickhouse"
	"RateCast/pkg/config"
	xhttp "RateCast/pkg/http"
	pkgkafka "RateCast/pkg/kafka"
	applogger "RateCast/pkg/logger"
	pkgqueue "RateCast/pkg/queue"

	"github.com/redis/go-redis/v9"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.EventCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	orch        *usecase.ForecastOrchestrator
	diag        *usecase.DiagnosticsUseCase
	hist        *usecase.HistoryUseCase
	l           *applogger.Logger
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	refitQueue  *pkgqueue.Worker
	EventProc   *usecase.EventProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.EventCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	orch *usecase.ForecastOrchestrator,
	diag *usecase.DiagnosticsUseCase,
	hist *usecase.HistoryUseCase,
	l *applogger.Logger,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		orch:      orch,
		diag:      diag,
		hist:      hist,
		l:         l,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.l
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	// Serving restores the last snapshot when one exists; a fresh deployment
	// trains from the event store instead.
	if err := a.orch.WarmStart(ctx, "latest"); err != nil {
		l.Warn("cold refit failed, serving unfitted", applogger.Error(err))
	}

	// Setup Echo HTTP server using pkg/http and register routes via handler
	httpHandler := a.httpHandler
	if httpHandler == nil {
		httpHandler = api.NewForecastEchoHandler(l, a.orch, a.diag, a.hist)
	}

	a.httpServer = xhttp.NewServer(l, xhttp.ServerConfig{
		Port:            a.cfg.Server.Port,
		ReadTimeout:     a.cfg.Server.ReadTimeout,
		WriteTimeout:    a.cfg.Server.WriteTimeout,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
	}, httpHandler)

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("series", a.cfg.RateFeed.Series))

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start the refit queue if configured
	if a.cfg.RefitQueue.Enabled {
		if err := a.startRefitQueue(ctx, l); err != nil {
			l.Error("refit queue start error", applogger.Error(err))
		}
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// startRefitQueue wires the Redis-backed refit queue: a worker consuming
// refit requests plus a ticker enqueueing scheduled ones.
func (a *App) startRefitQueue(ctx context.Context, l *applogger.Logger) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	qc := pkgqueue.Config{
		Workers:    a.cfg.RefitQueue.Workers,
		RetryLimit: a.cfg.RefitQueue.RetryLimit,
		RetryDelay: a.cfg.RefitQueue.RetryDelay,
	}
	q := pkgqueue.New(l, qc, rdb, usecase.NewRefitJob(a.orch, l))
	if err := q.Start(); err != nil {
		return err
	}
	a.refitQueue = q

	interval := a.cfg.RefitQueue.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := q.Enqueue(ctx, usecase.RefitMessageType, usecase.RefitPayload{
					Reason:       "scheduled",
					SnapshotName: "latest",
				})
				if err != nil {
					l.Warn("refit enqueue error", applogger.Error(err))
				}
			}
		}
	}()
	l.Info("refit queue started", applogger.Duration("interval", interval))
	return nil
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.l
	if l == nil {
		var err error
		l, err = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
		if err != nil {
			log.Printf("failed to create logger: %v", err)
			return err
		}
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop refit queue
	if a.refitQueue != nil {
		if err := a.refitQueue.Stop(shutdownCtx); err != nil {
			l.Warn("refit queue stop error", applogger.Error(err))
		}
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close event processor resources (publisher/storage)
	if a.EventProc != nil {
		a.EventProc.Close()
	}

	l.Info("shutdown complete")
	return nil
}
