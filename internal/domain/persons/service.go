// Package persons manages the family members expenses and incomes can be
// attributed to.
package persons

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrPersonNotFound = errors.New("person not found")
	ErrDuplicateName  = errors.New("a person with that name already exists")
	ErrEmptyName      = errors.New("person name is required")
	ErrInvalidColor   = errors.New("color must be a hex value like #1f77b4")
)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Store is the persistence surface the service needs
type Store interface {
	List(ctx context.Context) ([]Person, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Person, error)
	Create(ctx context.Context, p *Person) error
	Update(ctx context.Context, p *Person) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Input carries the editable fields of a person
type Input struct {
	Name  string
	Icon  string
	Color string
}

// Service provides person CRUD
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new person service
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]Person, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Person, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (*Person, error) {
	p := &Person{}
	if err := apply(p, in); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("person created", slog.String("id", p.ID.String()), slog.String("name", p.Name))
	return p, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*Person, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(p, in); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("person deleted", slog.String("id", id.String()))
	return nil
}

func apply(p *Person, in Input) error {
	name := strings.Join(strings.Fields(in.Name), " ")
	if name == "" {
		return ErrEmptyName
	}
	color := strings.TrimSpace(in.Color)
	if color != "" && !hexColor.MatchString(color) {
		return ErrInvalidColor
	}

	p.Name = name
	p.Icon = optional(in.Icon)
	p.Color = optional(color)
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
