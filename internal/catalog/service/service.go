// Package service provides catalog snapshot business logic.
package service

import (
	"context"

	"ovidio_backend/internal/catalog/repository"
	"ovidio_backend/internal/catalog/transport"
	"ovidio_backend/platform/apperr"
	"ovidio_backend/platform/logger"
)

// RemoteSource is the remote inventory the snapshot is built from.
type RemoteSource interface {
	Search(ctx context.Context, term string) ([]transport.CatalogItem, error)
}

// Service wraps the snapshot store and its sync job.
type Service struct {
	repo   *repository.Repository
	remote RemoteSource
	log    *logger.Logger
}

// New creates the catalog service. remote may be nil when no inventory API
// is configured; Sync then reports unavailable and the snapshot keeps
// serving its last contents.
func New(repo *repository.Repository, remote RemoteSource, log *logger.Logger) *Service {
	return &Service{repo: repo, remote: remote, log: log}
}

// SearchTerm queries the active snapshot.
func (s *Service) SearchTerm(ctx context.Context, term string) ([]transport.CatalogItem, error) {
	return s.repo.SearchTerm(ctx, term)
}

// Info returns active-snapshot metadata for the admin surface.
func (s *Service) Info(ctx context.Context) (transport.SnapshotInfo, error) {
	return s.repo.Info(ctx)
}

// Sync pulls the full remote catalog and replaces the local snapshot.
// Returns the number of items written.
func (s *Service) Sync(ctx context.Context) (int, error) {
	if s.remote == nil {
		return 0, apperr.Unavailable("inventory API not configured", nil)
	}

	items, err := s.remote.Search(ctx, "")
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		// An empty remote answer is far more likely an upstream hiccup than
		// a genuinely empty catalog; keep the previous snapshot.
		return 0, apperr.Unavailable("inventory API returned empty catalog", nil)
	}

	if err := s.repo.ReplaceSnapshot(ctx, items); err != nil {
		return 0, err
	}
	return len(items), nil
}
