// Package main is the entry point for the back-office API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backoffice/internal/config"
	"backoffice/internal/core/identifier"
	v1 "backoffice/internal/infrastructure/http/v1"
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

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting backoffice server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, cfg.Database.Pool)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool.Pool, cfg.Database.StatementTimeout)

	if cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, txManager); err != nil {
			log.Fatalw("migration failed", "error", err)
		}
	}

	// --- Reference generation ---
	store := numerator.New(txManager)

	var watermarks identifier.Watermarks
	opts := []identifier.SequencerOption{}
	if cfg.Identifier.Watermarks {
		watermarks = store
		opts = append(opts, identifier.WithWatermarks(store))
	}
	issuer := identifier.NewIssuer(identifier.NewSequencer(store, opts...), cfg.Identifier.Issuer)

	log.Infow("identifier issuer ready",
		"max_attempts", cfg.Identifier.Issuer.MaxAttempts,
		"fallback", !cfg.Identifier.Issuer.DisableFallback,
		"watermarks", cfg.Identifier.Watermarks,
	)

	// --- Router ---
	routerCfg := v1.RouterConfig{
		Pool:       pool,
		TxManager:  txManager,
		Logger:     log,
		Issuer:     issuer,
		Watermarks: watermarks,
	}

	if cfg.Identifier.Audit {
		audit, err := postgres.NewAuditLog(txManager)
		if err != nil {
			log.Fatalw("failed to create audit log", "error", err)
		}
		defer audit.Close()
		routerCfg.Audit = audit
	}
	if cfg.Server.IdempotencyTTL > 0 {
		routerCfg.Idempotency = postgres.NewIdempotencyStore(txManager, cfg.Server.IdempotencyTTL)
	}

	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
