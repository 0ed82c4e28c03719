// Package categories manages the expense and income category catalogue.
package categories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/family-finance-tracker/internal/domain/import/normalizer"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrEmptyName        = errors.New("category name is required")
	ErrInvalidKind      = errors.New("category kind must be expense or income")
)

// Store is the persistence surface the service needs
type Store interface {
	List(ctx context.Context, kind Kind) ([]Category, error)
	FindByName(ctx context.Context, name string, kind Kind) (*Category, error)
	FindOrCreate(ctx context.Context, name string, kind Kind) (*Category, bool, error)
}

// Service provides category operations
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new category service
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// List returns all categories, or only those of kind when it is non-empty.
func (s *Service) List(ctx context.Context, kind Kind) ([]Category, error) {
	if kind != "" && !kind.Valid() {
		return nil, ErrInvalidKind
	}
	return s.store.List(ctx, kind)
}

// Get finds a category by name (case and surrounding space insensitive).
func (s *Service) Get(ctx context.Context, name string, kind Kind) (*Category, error) {
	name = normalizer.CategoryName(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	return s.store.FindByName(ctx, name, kind)
}

// FindOrCreate resolves a category, creating it on first use.
func (s *Service) FindOrCreate(ctx context.Context, name string, kind Kind) (*Category, error) {
	name = normalizer.CategoryName(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}

	category, created, err := s.store.FindOrCreate(ctx, name, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category %q: %w", name, err)
	}
	if created {
		s.logger.Info("category created",
			slog.String("name", category.Name),
			slog.String("kind", string(category.Kind)),
		)
	}
	return category, nil
}
