package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bengkel-erp/bengkel-erp/internal/masterdata/shared"
)

var ErrAlreadyExists = errors.New("service code already exists")

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, it ServiceItem) (*ServiceItem, error) {
	if err := s.validate(it); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByCode(ctx, it.Code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check service code: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}
	it.ID = uuid.New()
	it.IsActive = true
	if err := s.repo.Create(ctx, it); err != nil {
		return nil, fmt.Errorf("create service item: %w", err)
	}
	return &it, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, it ServiceItem) (*ServiceItem, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	it.ID = existing.ID
	it.Code = existing.Code
	if err := s.validate(it); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, it); err != nil {
		return nil, fmt.Errorf("update service item: %w", err)
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

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ServiceItem, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]ServiceItem, int, error) {
	return s.repo.List(ctx, filters)
}
