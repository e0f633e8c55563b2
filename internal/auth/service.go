package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bengkel-erp/bengkel-erp/internal/shared"
)

// TokenPair bundles the credentials returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service wraps authentication business rules.
type Service struct {
	repo    Repository
	tokens  *TokenManager
	refresh *RefreshStore
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager, refresh *RefreshStore) *Service {
	return &Service{repo: repo, tokens: tokens, refresh: refresh}
}

// Login validates email/password credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*User, *TokenPair, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, shared.ErrInvalidCredentials
	}
	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh rotates a refresh token into a fresh token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.refresh.Redeem(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.Get(ctx, userID)
	if err != nil || !user.IsActive {
		return nil, ErrTokenInvalid
	}
	return s.issuePair(ctx, user)
}

// Logout revokes the presented refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.refresh.Revoke(ctx, refreshToken)
}

// Me loads the account behind an identity.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *Service) issuePair(ctx context.Context, user *User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccess(user.ID, user.Role, time.Now())
	if err != nil {
		return nil, err
	}
	refresh, err := s.refresh.Issue(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth: issue refresh: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
