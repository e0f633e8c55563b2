package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrTokenInvalid covers expired, malformed and revoked tokens.
var ErrTokenInvalid = errors.New("auth: token invalid")

const tokenIssuer = "bengkel"

// Claims is the access-token payload.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies access tokens.
type TokenManager struct {
	secret    []byte
	accessTTL time.Duration
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret string, accessTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL}
}

// IssueAccess signs a short-lived access token for the user.
func (m *TokenManager) IssueAccess(userID uuid.UUID, role Role, now time.Time) (string, error) {
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// VerifyAccess parses and validates an access token.
func (m *TokenManager) VerifyAccess(raw string) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Identity{}, ErrTokenInvalid
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, ErrTokenInvalid
	}
	if !claims.Role.Valid() {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{UserID: userID, Role: claims.Role}, nil
}

// RefreshStore keeps opaque refresh tokens in redis so logout can revoke them.
type RefreshStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRefreshStore constructs a RefreshStore.
func NewRefreshStore(client *redis.Client, ttl time.Duration) *RefreshStore {
	return &RefreshStore{client: client, ttl: ttl}
}

func refreshKey(token string) string {
	return "auth:refresh:" + token
}

// Issue creates and stores a new refresh token for the user.
func (s *RefreshStore) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, refreshKey(token), userID.String(), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store refresh token: %w", err)
	}
	return token, nil
}

// Redeem resolves a refresh token to its user and rotates it out.
func (s *RefreshStore) Redeem(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.GetDel(ctx, refreshKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrTokenInvalid
		}
		return uuid.Nil, fmt.Errorf("auth: redeem refresh token: %w", err)
	}
	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}
	return userID, nil
}

// Revoke drops a refresh token. Missing tokens are not an error.
func (s *RefreshStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, refreshKey(token)).Err()
}
