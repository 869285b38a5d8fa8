// Package main is the entry point for the back-office background worker.
// It reports degraded-mode and malformed references and prunes expired
// idempotency keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"backoffice/internal/config"
	"backoffice/internal/infrastructure/numerator"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting backoffice worker")

	pool, err := postgres.NewPool(ctx, cfg.Database.Pool)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool.Pool, cfg.Database.StatementTimeout)
	reconciler := numerator.NewReconciler(numerator.New(txManager), log)
	idempotency := postgres.NewIdempotencyStore(txManager, cfg.Server.IdempotencyTTL)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reconciler.Run(gctx, cfg.Worker.ReconcileInterval)
		return nil
	})
	g.Go(func() error {
		runHousekeeping(gctx, pool, idempotency, time.Hour, log.WithComponent("housekeeping"))
		return nil
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	if err := g.Wait(); err != nil {
		log.Errorw("worker stopped with error", "error", err)
	}
	log.Info("worker stopped")
}

// runHousekeeping deletes expired idempotency keys and logs pool stats.
func runHousekeeping(ctx context.Context, pool *postgres.Pool, store *postgres.IdempotencyStore, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.CleanupExpired(ctx)
			if err != nil {
				log.Errorw("idempotency cleanup failed", "error", err)
			} else if deleted > 0 {
				log.Infow("expired idempotency keys removed", "count", deleted)
			}
			pool.LogStats(ctx)
		}
	}
}
