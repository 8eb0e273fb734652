// Package identity provides the customer identity domain module.
package identity

import (
	"ovidio_backend/internal/identity/crm"
	"ovidio_backend/internal/identity/repository"
	"ovidio_backend/internal/identity/service"
	"ovidio_backend/platform/config"
	"ovidio_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires the customer store, the CRM client and the resolver.
type Module struct {
	service *service.Service
	repo    *repository.Repository
	crm     *crm.Client
}

// NewModule creates a new identity module. The CRM client is nil when not
// configured; resolution then works purely on the local cache.
func NewModule(pool *pgxpool.Pool, cfg config.CRMConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	client := crm.New(cfg, log)

	var remote service.CRM
	if client != nil {
		remote = client
	}
	svc := service.New(repo, remote, log)

	return &Module{
		service: svc,
		repo:    repo,
		crm:     client,
	}
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// CRM returns the raw CRM client, or nil when not configured.
func (m *Module) CRM() *crm.Client {
	return m.crm
}
