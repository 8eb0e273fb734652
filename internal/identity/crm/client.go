// Package crm implements the client for the remote CRM REST API, including
// the token session it authenticates with.
//
// The API wraps every response in a {status, message, body} envelope and
// takes the access token as a query parameter. Token renewal is handled by
// Session; a request answered with a token error is retried exactly once
// after a forced renewal.
package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ovidio_backend/platform/apperr"
	"ovidio_backend/platform/config"
	"ovidio_backend/platform/logger"
	"ovidio_backend/platform/phone"
)

const requestTimeout = 30 * time.Second

// Customer is a CRM customer record.
type Customer struct {
	ID           int64      `json:"id"`
	LegalName    string     `json:"razon"`
	TaxCondition string     `json:"condicion"`
	TaxID        string     `json:"numero_documento"`
	Address      string     `json:"domicilio"`
	City         string     `json:"localidad"`
	Province     string     `json:"provincia"`
	Phone        string     `json:"telefono"`
	Mobile       string     `json:"celular"`
	Email        string     `json:"email"`
	HasAccount   bool       `json:"ctacte"`
	Balance      float64    `json:"saldo"`
	Discount     float64    `json:"descuento"`
	PriceLists   []int      `json:"listas_precio"`
}

// invoiceRecord is one entry of the customer's document history.
type invoiceRecord struct {
	Type  string  `json:"tipo"`
	Total float64 `json:"total"`
	Due   float64 `json:"saldo"`
	Date  string  `json:"fecha"`
}

// PaymentSummary condenses a customer's invoice history into a score.
type PaymentSummary struct {
	InvoiceCount    int
	PendingInvoices int
	PendingAmount   float64
	LastPurchase    string
	Score           int
	Profile         string
}

// envelope is the CRM's uniform response wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

// Client talks to the CRM API.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	log     *logger.Logger
}

// New creates a CRM client. Returns nil when no base URL is configured so
// callers can treat the CRM as an optional collaborator.
func New(cfg config.CRMConfig, log *logger.Logger) *Client {
	if cfg.GetCRMBaseURL() == "" {
		return nil
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.GetCRMBaseURL(), "/"),
		http:    &http.Client{Timeout: requestTimeout},
		log:     log,
	}
	c.session = NewSession(&credentialAuth{client: c, cfg: cfg})
	return c
}

// FindByPhone looks a customer up by mobile number. The CRM does prefix
// matching on its side, so candidates are verified for an exact or
// suffix-wise match before being accepted.
func (c *Client) FindByPhone(ctx context.Context, rawPhone string) (*Customer, error) {
	wanted := phone.Normalize(rawPhone)
	if wanted == "" {
		return nil, apperr.Validation("empty phone number")
	}

	var candidates []Customer
	if err := c.get(ctx, "clientes", url.Values{"celular": {wanted}}, &candidates); err != nil {
		return nil, err
	}

	for i := range candidates {
		have := phone.Normalize(candidates[i].Mobile)
		if have == "" {
			continue
		}
		if have == wanted || strings.HasSuffix(have, wanted) || strings.HasSuffix(wanted, have) {
			return &candidates[i], nil
		}
	}
	return nil, apperr.NotFound("no CRM customer with that phone")
}

// FindByTaxID looks a customer up by CUIT.
func (c *Client) FindByTaxID(ctx context.Context, taxID string) (*Customer, error) {
	cleaned := digitsOnly(taxID)
	if cleaned == "" {
		return nil, apperr.Validation("empty tax id")
	}

	var candidates []Customer
	if err := c.get(ctx, "clientes", url.Values{"numero_documento": {cleaned}}, &candidates); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, apperr.NotFound("no CRM customer with that tax id")
	}
	return &candidates[0], nil
}

// FindByEmail looks a customer up by email address.
func (c *Client) FindByEmail(ctx context.Context, email string) (*Customer, error) {
	cleaned := strings.ToLower(strings.TrimSpace(email))
	if cleaned == "" {
		return nil, apperr.Validation("empty email")
	}

	var candidates []Customer
	if err := c.get(ctx, "clientes", url.Values{"email": {cleaned}}, &candidates); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, apperr.NotFound("no CRM customer with that email")
	}
	return &candidates[0], nil
}

// ListCustomers returns one page of the CRM customer base, for the nightly
// full sync. An empty page means the listing is exhausted.
func (c *Client) ListCustomers(ctx context.Context, page, pageSize int) ([]Customer, error) {
	params := url.Values{
		"page":  {fmt.Sprint(page)},
		"limit": {fmt.Sprint(pageSize)},
	}

	var customers []Customer
	if err := c.get(ctx, "clientes", params, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// PaymentHistory summarizes the customer's recent invoices into a 0-100
// payment score. A customer without invoices scores a neutral 50.
func (c *Client) PaymentHistory(ctx context.Context, customerID int64) (PaymentSummary, error) {
	params := url.Values{
		"cliente_id": {fmt.Sprint(customerID)},
		"limit":      {"20"},
	}

	var records []invoiceRecord
	if err := c.get(ctx, "comprobantes", params, &records); err != nil {
		return PaymentSummary{}, err
	}
	return summarizePayments(records), nil
}

// ExchangeRate returns the CRM's current USD/ARS rate.
func (c *Client) ExchangeRate(ctx context.Context) (float64, error) {
	var rates []struct {
		Currency string  `json:"moneda"`
		Value    float64 `json:"valor"`
	}
	if err := c.get(ctx, "general/cotizaciones", nil, &rates); err != nil {
		return 0, err
	}
	if len(rates) == 0 {
		return 0, apperr.NotFound("no exchange rate published")
	}
	return rates[0].Value, nil
}

// summarizePayments derives the payment score from the invoice history.
func summarizePayments(records []invoiceRecord) PaymentSummary {
	var s PaymentSummary
	var paid float64

	for _, rec := range records {
		if !strings.Contains(strings.ToUpper(rec.Type), "FAC") {
			continue
		}
		s.InvoiceCount++
		paid += rec.Total - rec.Due
		if rec.Due > 0 {
			s.PendingInvoices++
			s.PendingAmount += rec.Due
		}
		if rec.Date > s.LastPurchase {
			s.LastPurchase = rec.Date
		}
	}

	if s.InvoiceCount == 0 {
		s.Score = 50
	} else if paid+s.PendingAmount > 0 {
		s.Score = int(paid / (paid + s.PendingAmount) * 100)
	} else {
		s.Score = 100
	}

	switch {
	case s.Score >= 90:
		s.Profile = "excelente"
	case s.Score >= 70:
		s.Profile = "bueno"
	case s.Score >= 50:
		s.Profile = "regular"
	default:
		s.Profile = "riesgoso"
	}
	return s
}

// get performs an authenticated GET and decodes the envelope body into out.
// A token-invalid answer forces one renewal and one retry.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	token, err := c.session.Token(ctx)
	if err != nil {
		return err
	}

	env, err := c.doGet(ctx, endpoint, params, token)
	if err != nil {
		return err
	}

	if isTokenError(env) {
		token, err = c.session.ForceRenew(ctx, token)
		if err != nil {
			return err
		}
		env, err = c.doGet(ctx, endpoint, params, token)
		if err != nil {
			return err
		}
		if isTokenError(env) {
			return apperr.AuthExpired("CRM rejected a freshly renewed token")
		}
	}

	if env.Status != "ok" {
		return apperr.Unavailable(fmt.Sprintf("CRM %s: %s", endpoint, env.Message), nil)
	}
	if out == nil || len(env.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Body, out); err != nil {
		return apperr.Unavailable(fmt.Sprintf("CRM %s: malformed body", endpoint), err)
	}
	return nil
}

func (c *Client) doGet(ctx context.Context, endpoint string, params url.Values, token string) (envelope, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", token)

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return envelope{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, apperr.Unavailable("CRM unreachable", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return envelope{}, apperr.Unavailable("CRM returned a malformed response", err)
	}
	return env, nil
}

func isTokenError(env envelope) bool {
	return env.Status == "error" && strings.Contains(strings.ToLower(env.Message), "token")
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
