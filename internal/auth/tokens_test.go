package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundtrip(t *testing.T) {
	mgr := NewTokenManager("test-secret", 15*time.Minute)
	userID := uuid.New()

	token, err := mgr.IssueAccess(userID, RoleManager, time.Now())
	require.NoError(t, err)

	identity, err := mgr.VerifyAccess(token)
	require.NoError(t, err)
	require.Equal(t, userID, identity.UserID)
	require.Equal(t, RoleManager, identity.Role)
}

func TestExpiredTokenRejected(t *testing.T) {
	mgr := NewTokenManager("test-secret", time.Minute)

	token, err := mgr.IssueAccess(uuid.New(), RoleAdmin, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = mgr.VerifyAccess(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenSignedWithOtherSecretRejected(t *testing.T) {
	issuer := NewTokenManager("secret-a", 15*time.Minute)
	verifier := NewTokenManager("secret-b", 15*time.Minute)

	token, err := issuer.IssueAccess(uuid.New(), RoleAdmin, time.Now())
	require.NoError(t, err)

	_, err = verifier.VerifyAccess(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestGarbageTokenRejected(t *testing.T) {
	mgr := NewTokenManager("test-secret", 15*time.Minute)
	_, err := mgr.VerifyAccess("not.a.token")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func newTestRefreshStore(t *testing.T) *RefreshStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRefreshStore(client, time.Hour)
}

func TestRefreshTokenRotation(t *testing.T) {
	store := newTestRefreshStore(t)
	ctx := context.Background()
	userID := uuid.New()

	token, err := store.Issue(ctx, userID)
	require.NoError(t, err)

	got, err := store.Redeem(ctx, token)
	require.NoError(t, err)
	require.Equal(t, userID, got)

	// Redeeming consumes the token.
	_, err = store.Redeem(ctx, token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRevokedRefreshTokenCannotBeRedeemed(t *testing.T) {
	store := newTestRefreshStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, uuid.New())
	require.NoError(t, err)

	require.NoError(t, store.Revoke(ctx, token))

	_, err = store.Redeem(ctx, token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}
