package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles client business logic.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService builds Service instance.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create registers a new client. An empty code gets a generated CLI-NNNNN one.
func (s *Service) Create(ctx context.Context, req CreateClientRequest, actorID uuid.UUID) (*Client, error) {
	code := req.Code
	if code == "" {
		var err error
		code, err = s.repo.GenerateCode(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate client code: %w", err)
		}
	}

	existing, err := s.repo.GetByCode(ctx, code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing client: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: client code already exists", ErrAlreadyExists)
	}

	client := Client{
		ID:       uuid.New(),
		Code:     code,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Notes:    req.Notes,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	s.recordAudit(ctx, actorID, "client:create", client.ID, map[string]any{"code": client.Code})
	return &client, nil
}

// Update patches an existing client.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateClientRequest, actorID uuid.UUID) (*Client, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return existing, nil
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	s.recordAudit(ctx, actorID, "client:update", id, map[string]any{"fields": len(updates)})
	return s.repo.Get(ctx, id)
}

// Deactivate soft-deletes a client so history stays intact.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	if err := s.repo.Update(ctx, id, map[string]interface{}{"is_active": false}); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "client:deactivate", id, nil)
	return nil
}

// Get returns one client.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Client, error) {
	return s.repo.Get(ctx, id)
}

// List returns clients with a total count.
func (s *Service) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) recordAudit(ctx context.Context, actorID uuid.UUID, action string, entityID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "client",
		EntityID: entityID.String(),
		Meta:     meta,
	})
}
