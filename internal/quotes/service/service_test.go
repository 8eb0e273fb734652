package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ovidio_backend/internal/quotes/transport"
	"ovidio_backend/platform/apperr"
	"ovidio_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	nextNumber int64
	created    []transport.Quotation
	sentID     uuid.UUID
	sentURL    string
	markCalls  int
}

func (s *fakeStore) NextNumber(context.Context) (int64, error) {
	s.nextNumber++
	return s.nextNumber, nil
}

func (s *fakeStore) CreateWithItems(_ context.Context, q *transport.Quotation) error {
	s.created = append(s.created, *q)
	return nil
}

func (s *fakeStore) PendingForCustomer(context.Context, uuid.UUID) (transport.Quotation, error) {
	return transport.Quotation{}, apperr.NotFound("no pending quotation")
}

func (s *fakeStore) GetByID(context.Context, uuid.UUID) (transport.Quotation, error) {
	return transport.Quotation{}, apperr.NotFound("quotation not found")
}

func (s *fakeStore) ListForCustomer(context.Context, uuid.UUID, int) ([]transport.Quotation, error) {
	return nil, nil
}

func (s *fakeStore) MarkSent(_ context.Context, id uuid.UUID, url string) error {
	s.markCalls++
	s.sentID = id
	s.sentURL = url
	return nil
}

type fakeRenderer struct {
	err error
}

func (r *fakeRenderer) RenderQuotation(context.Context, transport.Quotation, string) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.4"), nil
}

type fakeDocuments struct {
	err error
}

func (d *fakeDocuments) StoreQuotationPDF(_ context.Context, number int64, _ []byte) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	return "https://docs.example.com/presupuesto-000001.pdf", nil
}

type fakeConfig struct{ days int }

func (c fakeConfig) GetQuoteValidityDays() int { return c.days }

func newTestService(store *fakeStore, r *fakeRenderer, d *fakeDocuments) *Service {
	return New(store, r, d, fakeConfig{days: 15}, logger.New("test"))
}

func TestCreateAssignsMonotonicNumbers(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeRenderer{}, &fakeDocuments{})
	customer := uuid.New()

	first, err := svc.Create(context.Background(), customer, []transport.Item{{Name: "camara", UnitPrice: 100}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := svc.Create(context.Background(), customer, []transport.Item{{Name: "dvr", UnitPrice: 300}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if second.Number != first.Number+1 {
		t.Fatalf("numbers %d, %d are not consecutive", first.Number, second.Number)
	}
	if first.State != transport.StatePending {
		t.Fatalf("state = %q, want pending", first.State)
	}
}

func TestCreateSetsValidity(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeRenderer{}, &fakeDocuments{})

	q, err := svc.Create(context.Background(), uuid.New(), []transport.Item{{Name: "camara", UnitPrice: 100}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := time.Now().AddDate(0, 0, 15)
	if q.ValidUntil.Before(want.Add(-time.Minute)) || q.ValidUntil.After(want.Add(time.Minute)) {
		t.Fatalf("ValidUntil = %v, want ~%v", q.ValidUntil, want)
	}
	if q.ValidityDays != 15 {
		t.Fatalf("ValidityDays = %d, want 15", q.ValidityDays)
	}
}

func TestCreateRejectsEmptyItems(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeRenderer{}, &fakeDocuments{})

	_, err := svc.Create(context.Background(), uuid.New(), nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestConfirmMarksSent(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeRenderer{}, &fakeDocuments{})

	q := transport.Quotation{ID: uuid.New(), Number: 7, State: transport.StatePending}
	confirmed, err := svc.Confirm(context.Background(), q, "Carlos")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	if confirmed.State != transport.StateSent {
		t.Fatalf("state = %q, want sent", confirmed.State)
	}
	if confirmed.DocumentURL == "" || store.sentURL != confirmed.DocumentURL {
		t.Fatalf("document URL not recorded: %q vs %q", confirmed.DocumentURL, store.sentURL)
	}
}

func TestConfirmRenderFailureLeavesPending(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeRenderer{err: errors.New("gotenberg down")}, &fakeDocuments{})

	q := transport.Quotation{ID: uuid.New(), Number: 7, State: transport.StatePending}
	_, err := svc.Confirm(context.Background(), q, "Carlos")

	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}
	if store.markCalls != 0 {
		t.Fatal("quotation transitioned despite render failure")
	}
}

func TestConfirmUploadFailureLeavesPending(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeRenderer{}, &fakeDocuments{err: errors.New("minio down")})

	q := transport.Quotation{ID: uuid.New(), Number: 7, State: transport.StatePending}
	_, err := svc.Confirm(context.Background(), q, "Carlos")

	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}
	if store.markCalls != 0 {
		t.Fatal("quotation transitioned despite upload failure")
	}
}

func TestConfirmRejectsTerminalStates(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeRenderer{}, &fakeDocuments{})

	for _, state := range []transport.State{transport.StateSent, transport.StateCancelled, transport.StateExpired} {
		q := transport.Quotation{ID: uuid.New(), State: state}
		if _, err := svc.Confirm(context.Background(), q, ""); !apperr.Is(err, apperr.KindConflict) {
			t.Errorf("state %q: err = %v, want conflict", state, err)
		}
	}
}

func TestFormatSummary(t *testing.T) {
	q := transport.Quotation{
		Number:     12,
		Subtotal:   400,
		TaxTotal:   84,
		Total:      484,
		ValidUntil: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		Items: []transport.Item{
			{Name: "Camara Bullet Dahua 2MP", UnitPrice: 100, Quantity: 2, TaxRate: 21},
			{Name: "Camara Domo Dahua 2MP", UnitPrice: 100, Quantity: 2, TaxRate: 21},
		},
	}

	out := FormatSummary(q, "Carlos")

	for _, want := range []string{
		"Presupuesto N° 000012",
		"Carlos",
		"Camara Bullet Dahua 2MP",
		"*Total: $484,00*",
		"15/09/2026",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0,00"},
		{484, "$484,00"},
		{1234567.5, "$1.234.567,50"},
		{-42.1, "-$42,10"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.in); got != tt.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
