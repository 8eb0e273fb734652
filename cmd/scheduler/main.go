package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ovidio_backend/internal/catalog"
	catalogservice "ovidio_backend/internal/catalog/service"
	"ovidio_backend/internal/identity"
	"ovidio_backend/internal/inventory"
	quoterepo "ovidio_backend/internal/quotes/repository"
	"ovidio_backend/internal/scheduler"
	"ovidio_backend/internal/whatsapp"
	"ovidio_backend/platform/config"
	"ovidio_backend/platform/db"
	"ovidio_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	// ========================================================================
	// Job Dependencies
	// ========================================================================

	inventoryClient := inventory.NewClient(cfg, log)
	var remoteCatalog catalogservice.RemoteSource
	if inventoryClient != nil {
		remoteCatalog = inventoryClient
	}
	catalogModule := catalog.NewModule(pool, remoteCatalog, log)
	identityModule := identity.NewModule(pool, cfg, log)

	var sender scheduler.TextSender
	if waClient := whatsapp.NewClient(cfg, log); waClient != nil {
		sender = waClient
	} else {
		log.Warn("WhatsApp credentials not configured; greeting jobs will only log")
	}

	// ========================================================================
	// Queue Producer + Consumer
	// ========================================================================

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task client", "error", err)
		panic("failed to initialize task client: " + err.Error())
	}
	defer client.Close()

	loops, err := scheduler.NewLoops(client, cfg, log)
	if err != nil {
		log.Error("failed to initialize trigger loops", "error", err)
		panic("failed to initialize trigger loops: " + err.Error())
	}

	worker, err := scheduler.NewWorker(cfg, catalogModule.Service(), identityModule.Service(),
		identityModule.Repository(), quoterepo.New(pool), sender, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	workerErr := make(chan error, 1)
	go func() {
		workerErr <- worker.Run(ctx)
	}()

	go loops.Run(ctx)

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		<-workerErr
	case err := <-workerErr:
		if err != nil {
			log.Error("worker error", "error", err)
			panic("worker error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
