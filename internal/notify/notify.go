// Package notify fans out best-effort internal notifications. Delivery
// failures are logged and swallowed: a missed heads-up must never fail a
// customer turn.
package notify

import (
	"context"
	"fmt"

	"ovidio_backend/internal/email"
	"ovidio_backend/internal/quotes/service"
	"ovidio_backend/internal/quotes/transport"
	"ovidio_backend/platform/logger"
)

// TextSender delivers a WhatsApp text message.
type TextSender interface {
	SendText(ctx context.Context, to, body string) error
}

// EmailSender delivers internal emails.
type EmailSender interface {
	SendStockRequest(ctx context.Context, req email.StockRequest) error
}

// Notifier delivers internal notifications to the sales and purchasing
// desks.
type Notifier struct {
	whatsapp         TextSender
	email            EmailSender
	salespersonPhone string
	log              *logger.Logger
}

// New creates a notifier. Either channel may be nil-backed; the notifier
// skips what is not configured.
func New(whatsapp TextSender, sender EmailSender, salespersonPhone string, log *logger.Logger) *Notifier {
	return &Notifier{
		whatsapp:         whatsapp,
		email:            sender,
		salespersonPhone: salespersonPhone,
		log:              log,
	}
}

// QuotationSent tells the salesperson a quotation went out.
func (n *Notifier) QuotationSent(ctx context.Context, q transport.Quotation, customerName, customerPhone string) {
	if n.whatsapp == nil || n.salespersonPhone == "" {
		return
	}

	body := fmt.Sprintf(
		"Presupuesto N° %06d enviado.\nCliente: %s (%s)\nTotal: %s",
		q.Number, customerName, customerPhone, service.FormatMoney(q.Total),
	)
	if err := n.whatsapp.SendText(ctx, n.salespersonPhone, body); err != nil {
		n.log.RemoteCallFailed("whatsapp", "notify_salesperson", err)
	}
}

// StockRequested tells the purchasing desk a customer wanted a product that
// is out of stock with no substitute on the shelf.
func (n *Notifier) StockRequested(ctx context.Context, customer, product, inquiry string) {
	if n.email == nil {
		return
	}

	err := n.email.SendStockRequest(ctx, email.StockRequest{
		Customer: customer,
		Product:  product,
		Inquiry:  inquiry,
	})
	if err != nil {
		n.log.RemoteCallFailed("email", "notify_purchasing", err)
	}
}
