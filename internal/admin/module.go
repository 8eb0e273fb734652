// Package admin provides the back-office bounded context module.
package admin

import (
	apphttp "ovidio_backend/internal/http"
	"ovidio_backend/internal/identity/crm"
	identrepo "ovidio_backend/internal/identity/repository"
	quoterepo "ovidio_backend/internal/quotes/repository"
	"ovidio_backend/platform/validator"
)

// Module is the back-office module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates the admin module. crmClient may be nil.
func NewModule(customers *identrepo.Repository, quotes *quoterepo.Repository, crmClient *crm.Client, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(customers, quotes, crmClient, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "admin"
}

// RegisterRoutes mounts the back-office routes under the JWT-protected group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/customers", m.handler.HandleListCustomers)
	ctx.Admin.GET("/customers/search", m.handler.HandleSearchCustomers)
	ctx.Admin.GET("/customers/:id", m.handler.HandleGetCustomer)
	ctx.Admin.POST("/customers/:id/notes", m.handler.HandleAddNote)
	ctx.Admin.GET("/stats", m.handler.HandleStats)
	ctx.Admin.GET("/exchange-rate", m.handler.HandleExchangeRate)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
