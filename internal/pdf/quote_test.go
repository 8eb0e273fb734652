package pdf

import (
	"strings"
	"testing"
	"time"

	"ovidio_backend/internal/quotes/transport"
)

func TestBuildQuoteHTML(t *testing.T) {
	q := transport.Quotation{
		Number:     12,
		Subtotal:   400,
		TaxTotal:   84,
		Total:      484,
		CreatedAt:  time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
		ValidUntil: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		Items: []transport.Item{
			{Name: "Camara Bullet Dahua 2MP", UnitPrice: 100, Quantity: 2, TaxRate: 21, TaxAmount: 42},
		},
	}

	html, err := buildQuoteHTML(q, "Seguridad Integral SRL", "")
	if err != nil {
		t.Fatalf("buildQuoteHTML: %v", err)
	}

	out := string(html)
	for _, want := range []string{
		"Presupuesto N° 000012",
		"Seguridad Integral SRL",
		"Camara Bullet Dahua 2MP",
		"$484,00",
		"15/09/2026",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q", want)
		}
	}
	if strings.Contains(out, "data:image/png") {
		t.Error("QR rendered without a document link")
	}
}

func TestQRDataURI(t *testing.T) {
	r := NewQuoteRenderer(nil, func(number int64) string {
		return "https://docs.example.com/presupuesto-000012.pdf"
	})

	uri := r.qrDataURI(12)
	if !strings.HasPrefix(string(uri), "data:image/png;base64,") {
		t.Fatalf("unexpected QR uri prefix: %.40s", uri)
	}
}

func TestQRDataURIWithoutLink(t *testing.T) {
	r := NewQuoteRenderer(nil, nil)
	if uri := r.qrDataURI(12); uri != "" {
		t.Fatalf("expected empty uri, got %.40s", uri)
	}
}
