package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestMiddleware() (Middleware, *TokenManager) {
	mgr := NewTokenManager("test-secret", 15*time.Minute)
	return Middleware{Tokens: mgr}, mgr
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	mw, _ := newTestMiddleware()
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clients", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsInvalidToken(t *testing.T) {
	mw, _ := newTestMiddleware()
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthAttachesIdentity(t *testing.T) {
	mw, mgr := newTestMiddleware()
	userID := uuid.New()
	token, err := mgr.IssueAccess(userID, RoleMechanic, time.Now())
	require.NoError(t, err)

	var got Identity
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		got = identity
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, userID, got.UserID)
	require.Equal(t, RoleMechanic, got.Role)
}

func TestRequireRoleForbidsOtherRoles(t *testing.T) {
	mw, mgr := newTestMiddleware()
	token, err := mgr.IssueAccess(uuid.New(), RoleReceptionist, time.Now())
	require.NoError(t, err)

	handler := mw.RequireAuth(mw.RequireRole(RoleAdmin, RoleManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})))

	req := httptest.NewRequest(http.MethodDelete, "/api/parts/abc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	mw, mgr := newTestMiddleware()
	token, err := mgr.IssueAccess(uuid.New(), RoleManager, time.Now())
	require.NoError(t, err)

	called := false
	handler := mw.RequireAuth(mw.RequireRole(RoleAdmin, RoleManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/parts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, called)
}
