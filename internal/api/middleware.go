package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/terra-clan/skillhub/internal/i18n"
	"github.com/terra-clan/skillhub/internal/models"
)

// TokenVerifier turns a bearer token into the caller it identifies
type TokenVerifier interface {
	Verify(token string) (*models.Principal, error)
}

// AuthMiddleware handles bearer token authentication
type AuthMiddleware struct {
	verifier TokenVerifier
	bundle   *i18n.Bundle
}

// NewAuthMiddleware creates new auth middleware
func NewAuthMiddleware(verifier TokenVerifier, bundle *i18n.Bundle) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, bundle: bundle}
}

// Identify attaches the caller when a bearer token is present. Requests without a token
// continue anonymously; an invalid token is rejected.
func (m *AuthMiddleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearer(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		p, err := m.verifier.Verify(token)
		if err != nil {
			slog.Warn("invalid bearer token", "error", err, "remote_addr", r.RemoteAddr)
			respondLocalizedError(w, r, m.bundle, http.StatusUnauthorized, codeUnauthenticated, "error.unauthenticated")
			return
		}

		slog.Debug("authenticated request", "user_id", p.MaskedUserID())
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
	})
}

// RequireUser rejects anonymous requests
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()) == nil {
			respondLocalizedError(w, r, m.bundle, http.StatusUnauthorized, codeUnauthenticated, "error.unauthenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission returns middleware that checks for specific permission
func (m *AuthMiddleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				respondLocalizedError(w, r, m.bundle, http.StatusUnauthorized, codeUnauthenticated, "error.unauthenticated")
				return
			}

			if !p.HasPermission(permission) {
				slog.Warn("permission denied",
					"user_id", p.MaskedUserID(),
					"required", permission,
					"has", p.Permissions,
				)
				respondLocalizedError(w, r, m.bundle, http.StatusForbidden, codeForbidden, "error.forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractBearer returns the token from "Authorization: Bearer <token>"
func extractBearer(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
