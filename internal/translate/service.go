package translate

import (
	"context"
	"strings"

	"github.com/babelboard/babelboard/internal/shared"
)

// RepositoryPort defines data access methods for the translation catalog.
type RepositoryPort interface {
	Locales(ctx context.Context) ([]string, error)
	ListEntries(ctx context.Context, locale string, page, perPage int) ([]Entry, shared.Pagination, error)
	UpsertEntry(ctx context.Context, locale, key, message string, updatedBy int64) (Entry, error)
	DeleteEntry(ctx context.Context, locale, key string) error
}

// Service handles translation catalog business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Locales returns the locales present in the catalog.
func (s *Service) Locales(ctx context.Context) ([]string, error) {
	return s.repo.Locales(ctx)
}

// ListEntries returns one page of a locale's catalog.
func (s *Service) ListEntries(ctx context.Context, locale string, page, perPage int) ([]Entry, shared.Pagination, error) {
	return s.repo.ListEntries(ctx, locale, page, perPage)
}

// SaveEntry upserts a message. Keys are trimmed; empty keys are rejected by
// the handler before reaching here.
func (s *Service) SaveEntry(ctx context.Context, locale, key, message string, updatedBy int64) (Entry, error) {
	return s.repo.UpsertEntry(ctx, locale, strings.TrimSpace(key), message, updatedBy)
}

// DeleteEntry removes a message from a locale's catalog.
func (s *Service) DeleteEntry(ctx context.Context, locale, key string) error {
	return s.repo.DeleteEntry(ctx, locale, key)
}
