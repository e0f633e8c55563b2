package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bengkel-erp/bengkel-erp/internal/auth"
	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// Service handles staff account management.
type Service struct {
	repo  Repository
	audit AuditPort
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// NewService builds Service instance.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create registers a new staff account.
func (s *Service) Create(ctx context.Context, req CreateUserRequest, actorID uuid.UUID) (*auth.User, error) {
	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already registered", ErrAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := auth.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         auth.Role(req.Role),
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.recordAudit(ctx, actorID, "user:create", user.ID, map[string]any{"email": user.Email, "role": string(user.Role)})
	return &user, nil
}

// Update patches an existing account.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest, actorID uuid.UUID) (*auth.User, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password_hash"] = string(hash)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	s.recordAudit(ctx, actorID, "user:update", id, map[string]any{"fields": len(updates)})
	return s.repo.Get(ctx, id)
}

// Deactivate disables login without destroying history.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	if err := s.repo.Update(ctx, id, map[string]interface{}{"is_active": false}); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "user:deactivate", id, nil)
	return nil
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return s.repo.Get(ctx, id)
}

// List returns accounts with a total count.
func (s *Service) List(ctx context.Context, req ListUsersRequest) ([]auth.User, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) recordAudit(ctx context.Context, actorID uuid.UUID, action string, entityID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: entityID.String(),
		Meta:     meta,
	})
}
