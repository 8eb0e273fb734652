// Package service implements the quotation lifecycle.
package service

import (
	"context"
	"time"

	"ovidio_backend/internal/quotes/transport"
	"ovidio_backend/platform/apperr"
	"ovidio_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence surface the lifecycle needs.
type Store interface {
	NextNumber(ctx context.Context) (int64, error)
	CreateWithItems(ctx context.Context, q *transport.Quotation) error
	PendingForCustomer(ctx context.Context, customerID uuid.UUID) (transport.Quotation, error)
	GetByID(ctx context.Context, id uuid.UUID) (transport.Quotation, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]transport.Quotation, error)
	MarkSent(ctx context.Context, id uuid.UUID, documentURL string) error
}

// Renderer turns a quotation into a PDF document.
type Renderer interface {
	RenderQuotation(ctx context.Context, q transport.Quotation, customerName string) ([]byte, error)
}

// DocumentStore persists a rendered document and returns its shareable URL.
type DocumentStore interface {
	StoreQuotationPDF(ctx context.Context, number int64, pdf []byte) (string, error)
}

// Config provides quotation settings.
type Config interface {
	GetQuoteValidityDays() int
}

// Service implements quotation creation and confirmation.
type Service struct {
	store     Store
	renderer  Renderer
	documents DocumentStore
	cfg       Config
	log       *logger.Logger
}

// New creates a new quotation service.
func New(store Store, renderer Renderer, documents DocumentStore, cfg Config, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		renderer:  renderer,
		documents: documents,
		cfg:       cfg,
		log:       log,
	}
}

// Create builds a numbered pending quotation for the customer. Any pending
// quotation the customer already holds is cancelled by the same
// transaction, so a new request always supersedes the old offer.
func (s *Service) Create(ctx context.Context, customerID uuid.UUID, items []transport.Item) (transport.Quotation, error) {
	if len(items) == 0 {
		return transport.Quotation{}, apperr.Validation("quotation needs at least one item")
	}

	items, totals := CalculateTotals(items)

	number, err := s.store.NextNumber(ctx)
	if err != nil {
		return transport.Quotation{}, err
	}

	days := s.cfg.GetQuoteValidityDays()
	now := time.Now()
	q := transport.Quotation{
		ID:           uuid.New(),
		Number:       number,
		CustomerID:   customerID,
		State:        transport.StatePending,
		Subtotal:     totals.Subtotal,
		TaxTotal:     totals.TaxTotal,
		Total:        totals.Total,
		ValidityDays: days,
		ValidUntil:   now.AddDate(0, 0, days),
		Items:        items,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateWithItems(ctx, &q); err != nil {
		return transport.Quotation{}, err
	}

	s.log.Info("quotation_created",
		"number", q.Number,
		"customer_id", q.CustomerID.String(),
		"total", q.Total,
	)
	return q, nil
}

// Pending returns the customer's current pending quotation, if any.
func (s *Service) Pending(ctx context.Context, customerID uuid.UUID) (transport.Quotation, error) {
	return s.store.PendingForCustomer(ctx, customerID)
}

// Get returns one quotation by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.Quotation, error) {
	return s.store.GetByID(ctx, id)
}

// History returns the customer's recent quotations.
func (s *Service) History(ctx context.Context, customerID uuid.UUID, limit int) ([]transport.Quotation, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.ListForCustomer(ctx, customerID, limit)
}

// Confirm renders the quotation document, stores it and marks the
// quotation sent. Render and upload failures leave the quotation pending
// so the customer can simply confirm again.
func (s *Service) Confirm(ctx context.Context, q transport.Quotation, customerName string) (transport.Quotation, error) {
	if q.State != transport.StatePending {
		return transport.Quotation{}, apperr.Conflict("quotation is not pending")
	}

	pdf, err := s.renderer.RenderQuotation(ctx, q, customerName)
	if err != nil {
		s.log.RemoteCallFailed("pdf", "render_quotation", err)
		return transport.Quotation{}, apperr.Unavailable("quotation document could not be rendered", err)
	}

	url, err := s.documents.StoreQuotationPDF(ctx, q.Number, pdf)
	if err != nil {
		s.log.RemoteCallFailed("documents", "store_quotation", err)
		return transport.Quotation{}, apperr.Unavailable("quotation document could not be stored", err)
	}

	if err := s.store.MarkSent(ctx, q.ID, url); err != nil {
		return transport.Quotation{}, err
	}

	q.State = transport.StateSent
	q.DocumentURL = url
	q.UpdatedAt = time.Now()

	s.log.Info("quotation_sent", "number", q.Number, "document_url", url)
	return q, nil
}
