package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ovidio_backend/internal/admin"
	"ovidio_backend/internal/ai"
	"ovidio_backend/internal/catalog"
	catalogservice "ovidio_backend/internal/catalog/service"
	"ovidio_backend/internal/chat"
	"ovidio_backend/internal/documents"
	"ovidio_backend/internal/email"
	apphttp "ovidio_backend/internal/http"
	"ovidio_backend/internal/http/router"
	"ovidio_backend/internal/identity"
	"ovidio_backend/internal/inventory"
	"ovidio_backend/internal/notify"
	"ovidio_backend/internal/pdf"
	"ovidio_backend/internal/quotes"
	"ovidio_backend/internal/search"
	"ovidio_backend/internal/webhook"
	"ovidio_backend/internal/whatsapp"
	"ovidio_backend/migrations"
	"ovidio_backend/platform/config"
	"ovidio_backend/platform/db"
	"ovidio_backend/platform/logger"
	"ovidio_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	redisOpt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid redis url", "error", err)
		panic("invalid redis url: " + err.Error())
	}
	rdb := redis.NewClient(redisOpt)
	defer rdb.Close()

	// ========================================================================
	// Domain Modules
	// ========================================================================

	inventoryClient := inventory.NewClient(cfg, log)
	var remoteCatalog catalogservice.RemoteSource
	if inventoryClient != nil {
		remoteCatalog = inventoryClient
	}
	catalogModule := catalog.NewModule(pool, remoteCatalog, log)

	identityModule := identity.NewModule(pool, cfg, log)

	docStore, err := documents.New(cfg)
	if err != nil {
		log.Error("failed to initialize document storage", "error", err)
		panic("failed to initialize document storage: " + err.Error())
	}
	if docStore != nil {
		if err := withRetry(ctx, log, "ensure quote documents bucket", 5, 2*time.Second, func() error {
			return docStore.EnsureBucket(ctx)
		}); err != nil {
			log.Error("failed to ensure quote documents bucket", "error", err)
			panic("failed to ensure quote documents bucket: " + err.Error())
		}
	}

	renderer := pdf.NewQuoteRenderer(pdf.NewGotenbergClient(cfg), docStore.DocumentURL)
	quotesModule := quotes.NewModule(pool, renderer, docStore, cfg, log)

	waClient := whatsapp.NewClient(cfg, log)
	if waClient == nil {
		log.Warn("WhatsApp credentials not configured; outbound messaging disabled")
	}
	emailSender := email.NewSender(cfg)
	notifier := notify.New(waClient, emailSender, cfg.GetSalespersonPhone(), log)

	// ========================================================================
	// Resolution + Chat Pipeline
	// ========================================================================

	ruleExtractor := ai.NewRuleExtractor()
	var extractor search.TermExtractor = ruleExtractor
	genaiExtractor, err := ai.NewGenAIExtractor(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize genai extractor", "error", err)
	} else if genaiExtractor != nil {
		extractor = ai.NewFallbackExtractor(genaiExtractor, ruleExtractor, log)
	}

	var live search.Store
	if inventoryClient != nil {
		live = inventoryClient
	}
	engine := search.NewEngine(catalogModule.Service(), live, extractor, log)

	var responder chat.Responder
	genaiResponder, err := ai.NewGenAIResponder(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize genai responder", "error", err)
	} else if genaiResponder != nil {
		responder = genaiResponder
	}

	chatService := chat.NewService(chat.NewDeduper(rdb, log), identityModule.Service(),
		extractor, engine, quotesModule.Service(), waClient, notifier, responder, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: pool,
		Modules: []apphttp.Module{
			webhook.NewModule(cfg, chatService, log),
			admin.NewModule(identityModule.Repository(), quotesModule.Repository(),
				identityModule.CRM(), validator.New()),
		},
	}

	engineHTTP := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engineHTTP.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
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
