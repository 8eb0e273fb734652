// Package admin exposes the back-office read surface: customer listing,
// search and the dashboard counters. All routes require the admin bearer
// token.
package admin

import (
	"net/http"
	"strconv"

	"ovidio_backend/internal/identity/crm"
	identrepo "ovidio_backend/internal/identity/repository"
	quoterepo "ovidio_backend/internal/quotes/repository"
	"ovidio_backend/internal/quotes/transport"
	"ovidio_backend/platform/httpkit"
	"ovidio_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Handler handles back-office HTTP requests.
type Handler struct {
	customers *identrepo.Repository
	quotes    *quoterepo.Repository
	crm       *crm.Client
	val       *validator.Validator
}

// NewHandler creates the admin handler. crmClient may be nil.
func NewHandler(customers *identrepo.Repository, quotes *quoterepo.Repository, crmClient *crm.Client, val *validator.Validator) *Handler {
	return &Handler{customers: customers, quotes: quotes, crm: crmClient, val: val}
}

// CustomerResponse is the transcript-free customer view.
type CustomerResponse struct {
	ID             uuid.UUID `json:"id"`
	Phone          string    `json:"phone"`
	DisplayName    string    `json:"displayName"`
	LegalName      string    `json:"legalName,omitempty"`
	TaxID          string    `json:"taxId,omitempty"`
	Email          string    `json:"email,omitempty"`
	Location       string    `json:"location,omitempty"`
	CRMLinked      bool      `json:"crmLinked"`
	PaymentProfile string    `json:"paymentProfile,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      string    `json:"createdAt"`
}

// StatsResponse is the dashboard counter set.
type StatsResponse struct {
	Customers struct {
		Total          int `json:"total"`
		Today          int `json:"today"`
		WithQuotations int `json:"withQuotations"`
		MissingData    int `json:"missingData"`
	} `json:"customers"`
	Quotations map[string]int `json:"quotations"`
}

// HandleListCustomers returns the most recently active customers.
// GET /api/admin/customers
func (h *Handler) HandleListCustomers(c *gin.Context) {
	customers, err := h.customers.ListRecent(c.Request.Context(), listLimit(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toCustomerResponses(customers))
}

// HandleSearchCustomers searches by phone fragment, name or email.
// GET /api/admin/customers/search?q=...
func (h *Handler) HandleSearchCustomers(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		httpkit.Error(c, http.StatusBadRequest, "missing search term")
		return
	}

	customers, err := h.customers.SearchAdmin(c.Request.Context(), term, listLimit(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toCustomerResponses(customers))
}

// HandleGetCustomer returns one customer with the recent transcript.
// GET /api/admin/customers/:id
func (h *Handler) HandleGetCustomer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid customer ID")
		return
	}

	customer, err := h.customers.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	turns, err := h.customers.RecentTurns(c.Request.Context(), id, 20)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{
		"customer": toCustomerResponse(customer),
		"turns":    turns,
	})
}

// HandleStats returns the dashboard counters.
// GET /api/admin/stats
func (h *Handler) HandleStats(c *gin.Context) {
	stats, err := h.customers.GetStats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	counts, err := h.quotes.CountByState(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	var resp StatsResponse
	resp.Customers.Total = stats.Total
	resp.Customers.Today = stats.Today
	resp.Customers.WithQuotations = stats.WithQuotations
	resp.Customers.MissingData = stats.MissingData
	resp.Quotations = make(map[string]int, len(counts))
	for state, n := range counts {
		resp.Quotations[string(state)] = n
	}
	// Every state shows up in the dashboard, zero included.
	for _, state := range []transport.State{
		transport.StatePending, transport.StateSent, transport.StateCancelled, transport.StateExpired,
	} {
		if _, ok := resp.Quotations[string(state)]; !ok {
			resp.Quotations[string(state)] = 0
		}
	}

	httpkit.OK(c, resp)
}

// AddNoteRequest is the request body for attaching a note to a customer.
type AddNoteRequest struct {
	Note string `json:"note" validate:"required,min=1,max=500"`
}

// HandleAddNote appends a free-form note to the customer record.
// POST /api/admin/customers/:id/notes
func (h *Handler) HandleAddNote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid customer ID")
		return
	}

	var req AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error")
		return
	}

	if err := h.customers.AddNote(c.Request.Context(), id, req.Note); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleExchangeRate returns the CRM's current USD/ARS rate.
// GET /api/admin/exchange-rate
func (h *Handler) HandleExchangeRate(c *gin.Context) {
	if h.crm == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "CRM not configured")
		return
	}

	rate, err := h.crm.ExchangeRate(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"currency": "USD", "rate": rate})
}

func listLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit < 1 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func toCustomerResponses(customers []identrepo.Customer) []CustomerResponse {
	out := make([]CustomerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, toCustomerResponse(c))
	}
	return out
}

func toCustomerResponse(c identrepo.Customer) CustomerResponse {
	return CustomerResponse{
		ID:             c.ID,
		Phone:          c.Phone,
		DisplayName:    c.DisplayName,
		LegalName:      c.LegalName,
		TaxID:          c.TaxID,
		Email:          c.Email,
		Location:       c.Location,
		CRMLinked:      c.CRMLinked,
		PaymentProfile: c.PaymentProfile,
		Status:         c.Status,
		CreatedAt:      c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
