// Package webhook provides the inbound messaging bounded context module.
package webhook

import (
	apphttp "ovidio_backend/internal/http"
	"ovidio_backend/platform/config"
	"ovidio_backend/platform/logger"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates the webhook module.
func NewModule(cfg config.WhatsAppConfig, processor Processor, log *logger.Logger) *Module {
	return &Module{handler: NewHandler(cfg, processor, log)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the Meta webhook endpoints. They are public by
// necessity; the GET side is gated by the verify token and the POST side
// only trusts message IDs, which the dedup layer makes idempotent.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Root.GET("/webhook", m.handler.HandleVerify)
	ctx.Root.POST("/webhook", m.handler.HandleReceive)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
