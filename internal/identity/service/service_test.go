package service

import (
	"testing"

	"ovidio_backend/internal/identity/crm"
)

func TestExtractCUIT(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mi cuit es 20-12345678-9", "20123456789"},
		{"cuit 20123456789 gracias", "20123456789"},
		{"factura A por favor", ""},
		{"llamame al 3415551234", ""},
	}
	for _, tt := range tests {
		if got := extractCUIT(tt.in); got != tt.want {
			t.Errorf("extractCUIT(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mi mail es Compras@Empresa.com.ar", "compras@empresa.com.ar"},
		{"escribime a juan.perez+ventas@gmail.com", "juan.perez+ventas@gmail.com"},
		{"no tengo correo", ""},
	}
	for _, tt := range tests {
		if got := extractEmail(tt.in); got != tt.want {
			t.Errorf("extractEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMapCustomer(t *testing.T) {
	remote := &crm.Customer{
		ID:        42,
		LegalName: "Seguridad Integral SRL",
		TaxID:     "30123456789",
		Email:     " Ventas@SegInt.com ",
		City:      "Rosario",
		Province:  "Santa Fe",
	}
	payments := &crm.PaymentSummary{Score: 91, Profile: "excelente"}

	c := mapCustomer("3415551234", "Carlos", remote, payments)

	if c.Phone != "3415551234" || c.DisplayName != "Carlos" {
		t.Fatalf("identity fields wrong: %+v", c)
	}
	if !c.CRMLinked || c.CRMID == nil || *c.CRMID != 42 {
		t.Fatalf("CRM link not recorded: %+v", c)
	}
	if c.Email != "ventas@segint.com" {
		t.Fatalf("email not normalized: %q", c.Email)
	}
	if c.Location != "Rosario, Santa Fe" {
		t.Fatalf("location = %q", c.Location)
	}
	if c.PaymentScore == nil || *c.PaymentScore != 91 || c.PaymentProfile != "excelente" {
		t.Fatalf("payment snapshot missing: %+v", c)
	}
	if c.Status != "identified" {
		t.Fatalf("status = %q, want identified", c.Status)
	}
}

func TestMapCustomerWithoutPayments(t *testing.T) {
	c := mapCustomer("3415551234", "", &crm.Customer{ID: 1, City: "Rosario"}, nil)

	if c.PaymentScore != nil || c.PaymentProfile != "" {
		t.Fatalf("unexpected payment snapshot: %+v", c)
	}
	if c.Location != "Rosario" {
		t.Fatalf("location = %q", c.Location)
	}
}
