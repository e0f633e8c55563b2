package suppliers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bengkel-erp/bengkel-erp/internal/masterdata/shared"
)

var ErrAlreadyExists = errors.New("supplier code already exists")

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, sup Supplier) (*Supplier, error) {
	if err := s.validate(sup); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByCode(ctx, sup.Code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check supplier code: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}
	sup.ID = uuid.New()
	sup.IsActive = true
	if err := s.repo.Create(ctx, sup); err != nil {
		return nil, fmt.Errorf("create supplier: %w", err)
	}
	return &sup, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, sup Supplier) (*Supplier, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sup.ID = existing.ID
	sup.Code = existing.Code
	if err := s.validate(sup); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, sup); err != nil {
		return nil, fmt.Errorf("update supplier: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	existing.IsActive = false
	return s.repo.Update(ctx, *existing)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Supplier, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	return s.repo.List(ctx, filters)
}
