package chat

import (
	"context"
	"fmt"
	"time"

	catalog "ovidio_backend/internal/catalog/transport"
	identrepo "ovidio_backend/internal/identity/repository"
	"ovidio_backend/internal/quotes/transport"
	"ovidio_backend/internal/search"
	"ovidio_backend/internal/webhook"
	"ovidio_backend/platform/apperr"
	"ovidio_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	sendAttempts    = 3
	sendBackoff     = 500 * time.Millisecond
	maxAlternatives = 3
)

// CustomerDirectory resolves and records the conversation counterpart.
type CustomerDirectory interface {
	ResolveCustomer(ctx context.Context, channelID, displayName, messageText string) (identrepo.Customer, error)
	RecordExchange(ctx context.Context, customerID uuid.UUID, userText, assistantText string) error
}

// ProductResolver turns a product phrase into catalog candidates.
type ProductResolver interface {
	Resolve(ctx context.Context, utterance string, preferInStock bool) (search.Result, error)
	FindAlternatives(ctx context.Context, item catalog.CatalogItem, desired int) ([]catalog.CatalogItem, error)
}

// QuotationDesk is the quotation lifecycle surface the pipeline needs.
type QuotationDesk interface {
	Create(ctx context.Context, customerID uuid.UUID, items []transport.Item) (transport.Quotation, error)
	Pending(ctx context.Context, customerID uuid.UUID) (transport.Quotation, error)
	Confirm(ctx context.Context, q transport.Quotation, customerName string) (transport.Quotation, error)
}

// MessageSender delivers outbound WhatsApp messages.
type MessageSender interface {
	SendText(ctx context.Context, to, body string) error
	SendDocument(ctx context.Context, to, link, caption, filename string) error
}

// Alerter pushes best-effort internal notifications.
type Alerter interface {
	QuotationSent(ctx context.Context, q transport.Quotation, customerName, customerPhone string)
	StockRequested(ctx context.Context, customer, product, inquiry string)
}

// Responder optionally rewrites a deterministic draft in the assistant's
// voice. The draft carries the verified facts; the responder only restyles.
type Responder interface {
	Compose(ctx context.Context, customerName, message, draft string) (string, error)
}

// Service is the conversation pipeline.
type Service struct {
	dedup     *Deduper
	locks     *channelLocks
	directory CustomerDirectory
	extractor search.TermExtractor
	resolver  ProductResolver
	quotes    QuotationDesk
	sender    MessageSender
	alerts    Alerter
	responder Responder
	log       *logger.Logger
}

// NewService wires the pipeline. responder may be nil; replies then stay
// on the deterministic templates.
func NewService(dedup *Deduper, directory CustomerDirectory, extractor search.TermExtractor,
	resolver ProductResolver, quotes QuotationDesk, sender MessageSender, alerts Alerter,
	responder Responder, log *logger.Logger) *Service {
	return &Service{
		dedup:     dedup,
		locks:     newChannelLocks(),
		directory: directory,
		extractor: extractor,
		resolver:  resolver,
		quotes:    quotes,
		sender:    sender,
		alerts:    alerts,
		responder: responder,
		log:       log,
	}
}

// Process runs one inbound message through the pipeline. Implements
// webhook.Processor. Reprocessing the same message ID is a no-op; turns of
// the same channel never interleave.
func (s *Service) Process(ctx context.Context, msg webhook.InboundMessage) error {
	if msg.Text == "" {
		return nil
	}
	if !s.dedup.FirstSight(ctx, msg.ID) {
		s.log.Debug("duplicate delivery dropped", "message_id", msg.ID)
		return nil
	}

	unlock := s.locks.acquire(msg.From)
	defer unlock()

	log := s.log.WithChannel(msg.From)

	customer, err := s.directory.ResolveCustomer(ctx, msg.From, msg.DisplayName, msg.Text)
	if err != nil {
		log.Error("customer resolution failed", "error", err)
		if serr := s.sendWithRetry(ctx, msg.From, apologyReply); serr != nil {
			log.RemoteCallFailed("whatsapp", "send_text", serr)
		}
		return err
	}

	draft, confirmed, pipeErr := s.respond(ctx, customer, msg.Text)
	reply := draft
	if pipeErr != nil {
		log.Error("pipeline failed", "message_id", msg.ID, "error", pipeErr)
		reply = apologyReply
	} else if s.responder != nil && confirmed == nil {
		// Confirmation replies precede a document send; those stay verbatim.
		polished, perr := s.responder.Compose(ctx, customerDisplay(customer), msg.Text, draft)
		if perr != nil {
			log.RemoteCallFailed("genai", "compose", perr)
		} else if polished != "" {
			reply = polished
		}
	}

	if serr := s.sendWithRetry(ctx, msg.From, reply); serr != nil {
		log.RemoteCallFailed("whatsapp", "send_text", serr)
		return serr
	}

	if confirmed != nil {
		caption := fmt.Sprintf("Presupuesto N° %06d", confirmed.Number)
		filename := fmt.Sprintf("presupuesto-%06d.pdf", confirmed.Number)
		if derr := s.sender.SendDocument(ctx, msg.From, confirmed.DocumentURL, caption, filename); derr != nil {
			log.RemoteCallFailed("whatsapp", "send_document", derr)
		}
	}

	if rerr := s.directory.RecordExchange(ctx, customer.ID, msg.Text, reply); rerr != nil {
		log.DatabaseError("record_exchange", rerr)
	}
	return pipeErr
}

// respond computes the reply draft. The returned quotation is non-nil only
// when a pending quotation was just confirmed and its document should
// follow the text reply.
func (s *Service) respond(ctx context.Context, customer identrepo.Customer, text string) (string, *transport.Quotation, error) {
	if isConfirmation(text) {
		pending, err := s.quotes.Pending(ctx, customer.ID)
		switch {
		case err == nil:
			confirmed, cerr := s.quotes.Confirm(ctx, pending, customerDisplay(customer))
			if cerr != nil {
				// The quotation stays pending; the customer can retry.
				s.log.Error("quotation confirmation failed", "quotation", pending.Number, "error", cerr)
				return confirmFailedReply(), nil, nil
			}
			s.alerts.QuotationSent(ctx, confirmed, customerDisplay(customer), customer.Phone)
			return confirmationReply(confirmed), &confirmed, nil
		case !apperr.Is(err, apperr.KindNotFound):
			return "", nil, err
		}
		// No pending quotation: the phrase is ordinary conversation.
	}

	term, err := s.extractor.ExtractTerm(ctx, text)
	if err != nil {
		s.log.RemoteCallFailed("ai", "extract_term", err)
		term = ""
	}
	if term == "" {
		if isGreeting(text) {
			return greetingReply(customer.DisplayName), nil, nil
		}
		return genericReply(), nil, nil
	}

	result, err := s.resolver.Resolve(ctx, term, false)
	if err != nil {
		return "", nil, err
	}

	switch result.Kind {
	case search.NotFound:
		return notFoundReply(term), nil, nil
	case search.Multiple:
		return optionsReply(result.Options, result.TotalMatches), nil, nil
	}

	item := result.Item
	if !item.InStock() {
		alternatives, aerr := s.resolver.FindAlternatives(ctx, item, maxAlternatives)
		if aerr != nil {
			s.log.RemoteCallFailed("catalog", "find_alternatives", aerr)
			alternatives = nil
		}
		if len(alternatives) == 0 {
			s.alerts.StockRequested(ctx, customerDisplay(customer), item.Name, text)
		}
		return outOfStockReply(item, alternatives), nil, nil
	}

	if wantsQuotation(text) {
		q, qerr := s.quotes.Create(ctx, customer.ID, []transport.Item{{
			Name:      item.Name,
			UnitPrice: unitPrice(item),
			Quantity:  extractQuantity(text),
			TaxRate:   item.TaxRate,
		}})
		if qerr != nil {
			return "", nil, qerr
		}
		return quotationReply(q, customerDisplay(customer)), nil, nil
	}

	return productReply(item), nil, nil
}

// sendWithRetry attempts an outbound text a bounded number of times with
// increasing backoff.
func (s *Service) sendWithRetry(ctx context.Context, to, body string) error {
	var err error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		if err = s.sender.SendText(ctx, to, body); err == nil {
			return nil
		}
		if attempt < sendAttempts {
			time.Sleep(time.Duration(attempt) * sendBackoff)
		}
	}
	return err
}

func customerDisplay(c identrepo.Customer) string {
	if c.LegalName != "" {
		return c.LegalName
	}
	return c.DisplayName
}

func unitPrice(item catalog.CatalogItem) float64 {
	if item.PriceARS > 0 {
		return item.PriceARS
	}
	return item.PriceUSD
}
