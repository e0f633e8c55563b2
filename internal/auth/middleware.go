package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/bengkel-erp/bengkel-erp/internal/platform/httpx"
)

// Middleware guards API routes with bearer-token authentication.
type Middleware struct {
	Tokens *TokenManager
	Logger *slog.Logger
}

// RequireAuth rejects requests without a valid bearer access token.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			httpx.Fail(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		identity, err := m.Tokens.VerifyAccess(raw)
		if err != nil {
			httpx.Fail(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

// RequireRole allows only the listed roles through. Must run after RequireAuth.
func (m Middleware) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	allowed := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				httpx.Fail(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}
			if _, ok := allowed[identity.Role]; !ok {
				if m.Logger != nil {
					m.Logger.Warn("role denied", slog.String("path", r.URL.Path), slog.String("role", string(identity.Role)))
				}
				httpx.Fail(w, http.StatusForbidden, "forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
