// Package email delivers internal notification emails over SMTP.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"ovidio_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

const subjectStockRequest = "OVIDIO - Solicitud de Stock Urgente"

// stockRequestHTML is the purchasing-desk notification body.
var stockRequestHTML = template.Must(template.New("stock_request").Parse(`
<div style="font-family: Arial, sans-serif; padding: 20px; background: #f5f5f5;">
  <div style="background: white; padding: 20px; border-radius: 8px;">
    <h2 style="color: #00a6e0;">Solicitud Automática de Stock</h2>

    <p><strong>Cliente WhatsApp:</strong> {{.Customer}}</p>
    <p><strong>Producto solicitado:</strong> {{.Product}}</p>

    <div style="background: #f9f9f9; padding: 15px; border-left: 4px solid #00a6e0; margin: 20px 0;">
      <p><strong>Consulta original del cliente:</strong></p>
      <p style="font-style: italic;">&quot;{{.Inquiry}}&quot;</p>
    </div>

    <p style="color: #666; font-size: 12px; margin-top: 30px;">
      <em>Generado automáticamente por Ovidio Bot</em>
    </p>
  </div>
</div>
`))

// StockRequest is the payload of a purchasing-desk notification.
type StockRequest struct {
	Customer string
	Product  string
	Inquiry  string
}

// Sender delivers notification emails via the configured SMTP server.
type Sender struct {
	cfg config.EmailConfig
}

// NewSender creates a sender. Returns nil when email delivery is disabled.
func NewSender(cfg config.EmailConfig) *Sender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		return nil
	}
	return &Sender{cfg: cfg}
}

// SendStockRequest notifies the purchasing desk that a customer asked for a
// product that is out of stock with no substitute.
func (s *Sender) SendStockRequest(ctx context.Context, req StockRequest) error {
	if s == nil {
		return nil
	}

	var body bytes.Buffer
	if err := stockRequestHTML.Execute(&body, req); err != nil {
		return fmt.Errorf("render stock request email: %w", err)
	}
	return s.send(ctx, s.cfg.GetPurchasingAddress(), subjectStockRequest, body.String())
}

func (s *Sender) send(ctx context.Context, to, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.cfg.GetEmailFromName(), s.cfg.GetEmailFromAddress()); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.cfg.GetSMTPHost(),
		gomail.WithPort(s.cfg.GetSMTPPort()),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.GetSMTPUser()),
		gomail.WithPassword(s.cfg.GetSMTPPassword()),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
