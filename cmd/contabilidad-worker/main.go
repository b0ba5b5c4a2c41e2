package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/EleazarRC/contabilidad-personal/internal/amqp"
	"github.com/EleazarRC/contabilidad-personal/internal/cache"
	"github.com/EleazarRC/contabilidad-personal/internal/cli"
	"github.com/EleazarRC/contabilidad-personal/internal/config"
	applog "github.com/EleazarRC/contabilidad-personal/internal/log"
	"github.com/EleazarRC/contabilidad-personal/internal/services"
	"github.com/EleazarRC/contabilidad-personal/internal/worker"
)

const reconcileInterval = time.Hour

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger, err := cli.LoadAndValidateConfig(cfg, applog.ComponentWorker)
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if err := run(logger, cfg); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(logger *applog.Logger, cfg *config.Config) error {
	logger.Info("Starting contabilidad-worker", "sheets_backend", cfg.SheetsBackend)

	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the worker")
	}

	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	ledger := services.NewLedgerService(repo, nil)
	defer cli.CloseQuietly("ledger", ledger)

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	mirror, err := cli.NewMirror(ctx, logger, cfg)
	if err != nil {
		return err
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPPrefetch)
	if err != nil {
		return err
	}
	defer cli.CloseQuietly("amqp", consumer)

	w := worker.NewLedgerWorker(ledger, mirror)

	caches := cache.NewManager()
	caches.Register(w.ProcessedCache())
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	// catch up on events missed while the worker was down
	if _, err := w.Reconcile(ctx, time.Now().Year()); err != nil {
		logger.Error("Startup reconcile failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Consume(gctx, w.HandleLedgerEvent)
	})
	g.Go(func() error {
		ticker := time.NewTicker(reconcileInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if _, err := w.Reconcile(gctx, time.Now().Year()); err != nil {
					logger.Error("Periodic reconcile failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); !cli.IsShutdown(err) {
		return err
	}
	return nil
}
