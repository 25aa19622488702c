package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/securegpt/rag-gateway/models"
	"github.com/securegpt/rag-gateway/services"
	"github.com/securegpt/rag-gateway/utils"
)

// AuthMiddleware authenticates requests with bearer tokens and attaches
// the resolved user to the request context.
type AuthMiddleware struct {
	access *services.AccessService
	logger *zap.Logger
}

func NewAuthMiddleware(access *services.AccessService, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		access: access,
		logger: logger,
	}
}

// RequireAuth rejects requests without a valid bearer token. On success
// the authenticated user is available via UserFromContext.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractBearerToken(r)
		if !ok {
			utils.WriteUnauthorized(w, "Missing bearer token")
			return
		}

		user, err := m.access.Authenticate(r.Context(), token)
		if err != nil {
			m.logger.Debug("token authentication failed", zap.Error(err))
			utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequirePermission returns middleware that rejects authenticated users
// lacking the given permission. Must be mounted after RequireAuth.
func (m *AuthMiddleware) RequirePermission(permission models.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				utils.WriteUnauthorized(w, "")
				return
			}

			if err := m.access.RequirePermission(user, permission); err != nil {
				utils.WriteForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole returns middleware that rejects authenticated users whose
// role is not in the allowed set. Must be mounted after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				utils.WriteUnauthorized(w, "")
				return
			}

			if err := m.access.RequireRole(user, roles...); err != nil {
				utils.WriteForbidden(w, "Insufficient role")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
