package scheduler

import (
	"context"
	"fmt"
	"time"

	identrepo "ovidio_backend/internal/identity/repository"
	identservice "ovidio_backend/internal/identity/service"
	quoterepo "ovidio_backend/internal/quotes/repository"
	"ovidio_backend/platform/config"
	"ovidio_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const (
	// followUpInactiveDays is how long a quoted customer may stay silent
	// before the daily follow-up reaches out.
	followUpInactiveDays = 2
	followUpBatch        = 50
	weeklyGreetingBatch  = 100
)

// CatalogSyncer refreshes the product snapshot from the remote source.
type CatalogSyncer interface {
	Sync(ctx context.Context) (int, error)
}

// IdentitySyncer imports the full CRM customer base.
type IdentitySyncer interface {
	FullSync(ctx context.Context) (int, error)
}

// TextSender delivers outbound WhatsApp texts.
type TextSender interface {
	SendText(ctx context.Context, to, body string) error
}

// WorkerConfig combines the config interfaces the worker needs.
type WorkerConfig interface {
	config.RedisConfig
	config.ScheduleConfig
}

// Worker executes the periodic jobs dequeued from asynq.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	catalog   CatalogSyncer
	identity  IdentitySyncer
	customers *identrepo.Repository
	quotes    *quoterepo.Repository
	sender    TextSender
	loc       *time.Location
	log       *logger.Logger
}

// NewWorker creates the asynq consumer with all job handlers registered.
// sender may be nil; greeting jobs then only log what they would send.
func NewWorker(cfg WorkerConfig, catalog CatalogSyncer, identity IdentitySyncer,
	customers *identrepo.Repository, quotes *quoterepo.Repository, sender TextSender,
	log *logger.Logger) (*Worker, error) {

	opt, err := redisClientOpt(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 5
	}

	loc, err := time.LoadLocation(cfg.GetTimezone())
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.GetTimezone(), err)
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
	})

	w := &Worker{
		server:    server,
		mux:       asynq.NewServeMux(),
		catalog:   catalog,
		identity:  identity,
		customers: customers,
		quotes:    quotes,
		sender:    sender,
		loc:       loc,
		log:       log,
	}

	w.mux.HandleFunc(TaskCatalogSync, w.handleCatalogSync)
	w.mux.HandleFunc(TaskIdentityFullSync, w.handleIdentityFullSync)
	w.mux.HandleFunc(TaskFollowUps, w.handleFollowUps)
	w.mux.HandleFunc(TaskBirthdayGreetings, w.handleBirthdayGreetings)
	w.mux.HandleFunc(TaskWeeklyGreeting, w.handleWeeklyGreeting)

	return w, nil
}

// Run serves the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}

func (w *Worker) handleCatalogSync(ctx context.Context, _ *asynq.Task) error {
	count, err := w.catalog.Sync(ctx)
	w.log.SyncResult("catalog_sync", count, err)
	return err
}

func (w *Worker) handleIdentityFullSync(ctx context.Context, _ *asynq.Task) error {
	count, err := w.identity.FullSync(ctx)
	w.log.SyncResult("identity_full_sync", count, err)
	return err
}

// handleFollowUps messages customers who received a quotation but have been
// silent for a while. Per-customer failures are logged and skipped.
func (w *Worker) handleFollowUps(ctx context.Context, _ *asynq.Task) error {
	cutoff := identservice.LastContactCutoff(time.Now(), followUpInactiveDays)
	customers, err := w.customers.LastContactBefore(ctx, cutoff, followUpBatch)
	if err != nil {
		return err
	}

	sent := 0
	for _, c := range customers {
		quotations, err := w.quotes.ListForCustomer(ctx, c.ID, 1)
		if err != nil {
			w.log.DatabaseError("follow_up_quotations", err)
			continue
		}
		if len(quotations) == 0 {
			continue
		}
		if w.send(ctx, c.Phone, followUpMessage(c.DisplayName)) {
			sent++
		}
	}

	w.log.SyncResult("follow_ups", sent, nil)
	return nil
}

func (w *Worker) handleBirthdayGreetings(ctx context.Context, _ *asynq.Task) error {
	today := time.Now().In(w.loc)
	customers, err := w.customers.BirthdaysOn(ctx, today.Month(), today.Day())
	if err != nil {
		return err
	}

	sent := 0
	for _, c := range customers {
		if w.send(ctx, c.Phone, birthdayMessage(c.DisplayName)) {
			sent++
		}
	}

	w.log.SyncResult("birthday_greetings", sent, nil)
	return nil
}

func (w *Worker) handleWeeklyGreeting(ctx context.Context, _ *asynq.Task) error {
	customers, err := w.customers.ListRecent(ctx, weeklyGreetingBatch)
	if err != nil {
		return err
	}

	sent := 0
	for _, c := range customers {
		if w.send(ctx, c.Phone, weeklyMessage(c.DisplayName)) {
			sent++
		}
	}

	w.log.SyncResult("weekly_greeting", sent, nil)
	return nil
}

func (w *Worker) send(ctx context.Context, to, body string) bool {
	if w.sender == nil {
		w.log.Debug("outbound sender not configured", "to", to)
		return false
	}
	if err := w.sender.SendText(ctx, to, body); err != nil {
		w.log.RemoteCallFailed("whatsapp", "send_text", err)
		return false
	}
	return true
}

func followUpMessage(name string) string {
	return fmt.Sprintf("¡Hola %s! Te escribo de GRUPO SER. ¿Pudiste revisar el presupuesto que te pasamos? Cualquier duda estoy para ayudarte.", firstOrClient(name))
}

func birthdayMessage(name string) string {
	return fmt.Sprintf("¡Feliz cumpleaños, %s! Que tengas un excelente día. Un abrazo del equipo de GRUPO SER.", firstOrClient(name))
}

func weeklyMessage(name string) string {
	return fmt.Sprintf("¡Buen comienzo de semana, %s! Te recuerdo que estoy disponible las 24hs para consultas de stock y presupuestos de seguridad electrónica.", firstOrClient(name))
}

func firstOrClient(name string) string {
	if name == "" {
		return "cliente"
	}
	for i, r := range name {
		if r == ' ' {
			return name[:i]
		}
	}
	return name
}
