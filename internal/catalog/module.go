// Package catalog provides the catalog snapshot bounded context.
package catalog

import (
	"ovidio_backend/internal/catalog/repository"
	"ovidio_backend/internal/catalog/service"
	"ovidio_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires the catalog snapshot store and its sync service.
type Module struct {
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the catalog module.
func NewModule(pool *pgxpool.Pool, remote service.RemoteSource, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, remote, log)

	return &Module{
		service: svc,
		repo:    repo,
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
