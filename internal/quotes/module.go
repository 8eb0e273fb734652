// Package quotes provides the quotation lifecycle domain module.
package quotes

import (
	"ovidio_backend/internal/quotes/repository"
	"ovidio_backend/internal/quotes/service"
	"ovidio_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires quotation persistence and lifecycle.
type Module struct {
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates a new quotes module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, renderer service.Renderer, documents service.DocumentStore, cfg service.Config, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, renderer, documents, cfg, log)

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
