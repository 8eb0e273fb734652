package pdf

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"

	"ovidio_backend/internal/quotes/service"
	"ovidio_backend/internal/quotes/transport"

	qrcode "github.com/skip2/go-qrcode"
)

// quoteHTML is the printable quotation layout.
var quoteHTML = template.Must(template.New("quote").
	Funcs(template.FuncMap{"money": service.FormatMoney}).
	Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<style>
  body { font-family: Arial, Helvetica, sans-serif; color: #222; margin: 0; }
  .header { border-bottom: 3px solid #00a6e0; padding-bottom: 12px; margin-bottom: 24px; }
  .header h1 { color: #00a6e0; margin: 0; font-size: 22px; }
  .meta { font-size: 13px; color: #555; margin-top: 6px; }
  table { width: 100%; border-collapse: collapse; font-size: 13px; }
  th { text-align: left; background: #f0f9fd; padding: 8px; border-bottom: 2px solid #00a6e0; }
  td { padding: 8px; border-bottom: 1px solid #e5e5e5; }
  td.num, th.num { text-align: right; }
  .totals { margin-top: 18px; width: 40%; margin-left: auto; font-size: 14px; }
  .totals td { border: none; padding: 4px 8px; }
  .totals .grand td { font-weight: bold; border-top: 2px solid #00a6e0; }
  .footer { margin-top: 36px; display: flex; justify-content: space-between; align-items: flex-end; }
  .validity { font-size: 12px; color: #777; }
  .qr img { width: 110px; height: 110px; }
</style>
</head>
<body>
  <div class="header">
    <h1>Presupuesto N° {{printf "%06d" .Quotation.Number}}</h1>
    <div class="meta">
      {{if .CustomerName}}Cliente: {{.CustomerName}} · {{end}}Fecha: {{.Quotation.CreatedAt.Format "02/01/2006"}}
    </div>
  </div>

  <table>
    <thead>
      <tr><th>Producto</th><th class="num">Cant.</th><th class="num">Precio unit.</th><th class="num">IVA</th></tr>
    </thead>
    <tbody>
      {{range .Quotation.Items}}
      <tr>
        <td>{{.Name}}</td>
        <td class="num">{{.Quantity}}</td>
        <td class="num">{{money .UnitPrice}}</td>
        <td class="num">{{money .TaxAmount}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>

  <table class="totals">
    <tr><td>Subtotal</td><td class="num">{{money .Quotation.Subtotal}}</td></tr>
    <tr><td>IVA</td><td class="num">{{money .Quotation.TaxTotal}}</td></tr>
    <tr class="grand"><td>Total</td><td class="num">{{money .Quotation.Total}}</td></tr>
  </table>

  <div class="footer">
    <div class="validity">Presupuesto válido hasta el {{.Quotation.ValidUntil.Format "02/01/2006"}}.</div>
    {{if .QRDataURI}}<div class="qr"><img src="{{.QRDataURI}}" alt=""></div>{{end}}
  </div>
</body>
</html>`))

// QuoteRenderer builds the quotation PDF. It implements the quote
// lifecycle's Renderer interface.
type QuoteRenderer struct {
	gotenberg *GotenbergClient
	// documentLink returns the stable download URL the QR code should
	// point at for a given quotation number.
	documentLink func(number int64) string
}

// NewQuoteRenderer creates a renderer. documentLink may be nil; the QR code
// is then omitted.
func NewQuoteRenderer(gotenberg *GotenbergClient, documentLink func(number int64) string) *QuoteRenderer {
	return &QuoteRenderer{gotenberg: gotenberg, documentLink: documentLink}
}

// RenderQuotation produces the PDF for one quotation.
func (r *QuoteRenderer) RenderQuotation(ctx context.Context, q transport.Quotation, customerName string) ([]byte, error) {
	if r.gotenberg == nil {
		return nil, fmt.Errorf("pdf renderer not configured")
	}

	html, err := buildQuoteHTML(q, customerName, r.qrDataURI(q.Number))
	if err != nil {
		return nil, err
	}
	return r.gotenberg.ConvertHTML(ctx, html)
}

// qrDataURI encodes the document link as an inline PNG, or "" when no link
// scheme is configured.
func (r *QuoteRenderer) qrDataURI(number int64) template.URL {
	if r.documentLink == nil {
		return ""
	}
	link := r.documentLink(number)
	if link == "" {
		return ""
	}

	png, err := qrcode.Encode(link, qrcode.Medium, 220)
	if err != nil {
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}

func buildQuoteHTML(q transport.Quotation, customerName string, qr template.URL) ([]byte, error) {
	var buf bytes.Buffer
	err := quoteHTML.Execute(&buf, struct {
		Quotation    transport.Quotation
		CustomerName string
		QRDataURI    template.URL
	}{q, customerName, qr})
	if err != nil {
		return nil, fmt.Errorf("render quote html: %w", err)
	}
	return buf.Bytes(), nil
}
