package middleware

import (
	"context"

	"github.com/securegpt/rag-gateway/models"
)

type contextKey string

const (
	userContextKey   contextKey = "authenticated_user"
	claimsContextKey contextKey = "token_claims"
)

// WithUser stores the authenticated user in the request context.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the authenticated user from the request
// context. The second return value is false when no user was attached,
// which means the handler is running outside the auth middleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok && user != nil
}
