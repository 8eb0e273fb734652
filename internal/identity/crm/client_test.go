package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ovidio_backend/platform/apperr"
)

type staticAuth struct {
	token string
	calls int32
}

func (a *staticAuth) Credentials(context.Context) (Grant, error) {
	atomic.AddInt32(&a.calls, 1)
	return Grant{AccessToken: a.token, RefreshToken: "r-" + a.token, ExpiresIn: 3600}, nil
}

func (a *staticAuth) Refresh(context.Context, string) (Grant, error) {
	atomic.AddInt32(&a.calls, 1)
	return Grant{AccessToken: a.token + "-refreshed", ExpiresIn: 3600}, nil
}

func newTestClient(srv *httptest.Server, token string) *Client {
	return &Client{
		baseURL: srv.URL,
		http:    &http.Client{Timeout: time.Second},
		session: NewSession(&staticAuth{token: token}),
	}
}

func writeOK(w http.ResponseWriter, body interface{}) {
	raw, _ := json.Marshal(body)
	fmt.Fprintf(w, `{"status":"ok","body":%s}`, raw)
}

func TestFindByPhoneVerifiesExactMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") == "" {
			t.Error("request missing access token")
		}
		// The CRM answers with prefix matches; only the middle one really
		// carries the requested line.
		writeOK(w, []map[string]interface{}{
			{"id": 1, "razon": "Otro SA", "celular": "341555999"},
			{"id": 2, "razon": "Seguridad Integral SRL", "celular": "549 341 5551234"},
			{"id": 3, "razon": "Tercero SRL", "celular": ""},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv, "tok")
	customer, err := c.FindByPhone(context.Background(), "+549 341 555-1234")
	if err != nil {
		t.Fatalf("FindByPhone: %v", err)
	}
	if customer.ID != 2 {
		t.Fatalf("matched customer %d, want 2", customer.ID)
	}
}

func TestFindByPhoneNoExactMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, []map[string]interface{}{
			{"id": 1, "razon": "Otro SA", "celular": "341555999"},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv, "tok")
	_, err := c.FindByPhone(context.Background(), "3415551234")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestTokenErrorRetriesOnce(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			fmt.Fprint(w, `{"status":"error","message":"Token inválido"}`)
			return
		}
		writeOK(w, []map[string]interface{}{
			{"id": 7, "razon": "Cliente SA", "celular": "3415551234"},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv, "tok")
	customer, err := c.FindByPhone(context.Background(), "3415551234")
	if err != nil {
		t.Fatalf("FindByPhone: %v", err)
	}
	if customer.ID != 7 {
		t.Fatalf("matched customer %d, want 7", customer.ID)
	}
	if atomic.LoadInt32(&requests) != 2 {
		t.Fatalf("CRM saw %d requests, want 2", requests)
	}
}

func TestPersistentTokenErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","message":"token expirado"}`)
	}))
	defer srv.Close()

	c := newTestClient(srv, "tok")
	_, err := c.FindByPhone(context.Background(), "3415551234")
	if !apperr.Is(err, apperr.KindAuthExpired) {
		t.Fatalf("err = %v, want auth expired", err)
	}
}

func TestPaymentHistoryScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, []map[string]interface{}{
			{"tipo": "FAC A", "total": 1000, "saldo": 0, "fecha": "2026-05-01"},
			{"tipo": "FAC A", "total": 1000, "saldo": 0, "fecha": "2026-06-10"},
			{"tipo": "FAC B", "total": 1000, "saldo": 500, "fecha": "2026-07-02"},
			{"tipo": "REC X", "total": 400, "saldo": 0, "fecha": "2026-07-03"},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv, "tok")
	summary, err := c.PaymentHistory(context.Background(), 7)
	if err != nil {
		t.Fatalf("PaymentHistory: %v", err)
	}

	if summary.InvoiceCount != 3 {
		t.Errorf("InvoiceCount = %d, want 3 (receipts excluded)", summary.InvoiceCount)
	}
	if summary.PendingInvoices != 1 || summary.PendingAmount != 500 {
		t.Errorf("pending = %d/%v, want 1/500", summary.PendingInvoices, summary.PendingAmount)
	}
	// 2500 paid of 3000 owed.
	if summary.Score != 83 {
		t.Errorf("Score = %d, want 83", summary.Score)
	}
	if summary.Profile != "bueno" {
		t.Errorf("Profile = %q, want bueno", summary.Profile)
	}
	if summary.LastPurchase != "2026-07-02" {
		t.Errorf("LastPurchase = %q, want 2026-07-02", summary.LastPurchase)
	}
}

func TestSummarizePaymentsNoHistory(t *testing.T) {
	s := summarizePayments(nil)
	if s.Score != 50 || s.Profile != "regular" {
		t.Fatalf("empty history scored %d/%q, want 50/regular", s.Score, s.Profile)
	}
}
