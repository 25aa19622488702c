package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/securegpt/rag-gateway/config"
	"github.com/securegpt/rag-gateway/models"
	"github.com/securegpt/rag-gateway/services"
)

// fakeUserRepo is an in-memory UserRepository for middleware tests
type fakeUserRepo struct {
	byUsername map[string]*models.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error { return nil }
func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range f.byUsername {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}
func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if u, ok := f.byUsername[username]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}
func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, sql.ErrNoRows
}
func (f *fakeUserRepo) List(ctx context.Context) ([]*models.User, error)    { return nil, nil }
func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error { return nil }
func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error      { return nil }

// fakeDocumentRepo satisfies DocumentRepository; middleware tests never reach it
type fakeDocumentRepo struct{}

func (f *fakeDocumentRepo) Create(ctx context.Context, doc *models.Document) error { return nil }
func (f *fakeDocumentRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	return nil, sql.ErrNoRows
}
func (f *fakeDocumentRepo) ListAll(ctx context.Context) ([]*models.Document, error) {
	return nil, nil
}
func (f *fakeDocumentRepo) ListAccessible(ctx context.Context, userID uuid.UUID) ([]*models.Document, error) {
	return nil, nil
}
func (f *fakeDocumentRepo) Update(ctx context.Context, doc *models.Document) error { return nil }
func (f *fakeDocumentRepo) Delete(ctx context.Context, id string) error            { return nil }
func (f *fakeDocumentRepo) HasGrant(ctx context.Context, userID uuid.UUID, docID string, perm models.Permission) (bool, error) {
	return false, nil
}
func (f *fakeDocumentRepo) ReplaceGrants(ctx context.Context, userID uuid.UUID, docID string, perms []models.Permission) error {
	return nil
}
func (f *fakeDocumentRepo) DeleteGrants(ctx context.Context, userID uuid.UUID, docID string) error {
	return nil
}

type middlewareFixture struct {
	tokens     *services.TokenService
	users      *fakeUserRepo
	middleware *AuthMiddleware
}

func newMiddlewareFixture(t *testing.T) *middlewareFixture {
	t.Helper()
	logger := zap.NewNop()
	users := &fakeUserRepo{byUsername: map[string]*models.User{}}
	tokens := services.NewTokenService(config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  30 * time.Minute,
	}, logger)
	credentials := services.NewCredentialService(users, 4, logger)
	documents := services.NewDocumentService(&fakeDocumentRepo{}, logger)
	access := services.NewAccessService(tokens, credentials, documents, logger)
	return &middlewareFixture{
		tokens:     tokens,
		users:      users,
		middleware: NewAuthMiddleware(access, logger),
	}
}

func okHandler(t *testing.T, wantUsername string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantUsername, user.Username)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	t.Run("valid bearer token passes and attaches user", func(t *testing.T) {
		f := newMiddlewareFixture(t)
		user := models.NewUser("alice", "alice@example.com", "hash", models.RoleUser)
		f.users.byUsername["alice"] = user

		token, err := f.tokens.Issue(user)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		f.middleware.RequireAuth(okHandler(t, "alice")).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing header yields 401 with challenge", func(t *testing.T) {
		f := newMiddlewareFixture(t)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		f.middleware.RequireAuth(okHandler(t, "")).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	})

	t.Run("malformed header yields 401", func(t *testing.T) {
		f := newMiddlewareFixture(t)

		for _, header := range []string{"Basic abc", "Bearer", "Bearer   "} {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Authorization", header)
			w := httptest.NewRecorder()

			f.middleware.RequireAuth(okHandler(t, "")).ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
		}
	})

	t.Run("token for deactivated user yields 401", func(t *testing.T) {
		f := newMiddlewareFixture(t)
		user := models.NewUser("alice", "alice@example.com", "hash", models.RoleUser)
		f.users.byUsername["alice"] = user

		token, err := f.tokens.Issue(user)
		require.NoError(t, err)
		user.IsActive = false

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		f.middleware.RequireAuth(okHandler(t, "")).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	})
}

func TestRequirePermissionMiddleware(t *testing.T) {
	t.Run("admin passes manage_users", func(t *testing.T) {
		f := newMiddlewareFixture(t)
		admin := models.NewUser("admin", "admin@example.com", "hash", models.RoleAdmin)
		f.users.byUsername["admin"] = admin

		token, err := f.tokens.Issue(admin)
		require.NoError(t, err)

		chain := f.middleware.RequireAuth(
			f.middleware.RequirePermission(models.PermManageUsers)(okHandler(t, "admin")))

		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		chain.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("plain user gets 403 on manage_users", func(t *testing.T) {
		f := newMiddlewareFixture(t)
		user := models.NewUser("alice", "alice@example.com", "hash", models.RoleUser)
		f.users.byUsername["alice"] = user

		token, err := f.tokens.Issue(user)
		require.NoError(t, err)

		chain := f.middleware.RequireAuth(
			f.middleware.RequirePermission(models.PermManageUsers)(okHandler(t, "alice")))

		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		chain.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRequireRoleMiddleware(t *testing.T) {
	f := newMiddlewareFixture(t)
	admin := models.NewUser("admin", "admin@example.com", "hash", models.RoleAdmin)
	f.users.byUsername["admin"] = admin

	token, err := f.tokens.Issue(admin)
	require.NoError(t, err)

	t.Run("matching role passes", func(t *testing.T) {
		chain := f.middleware.RequireAuth(
			f.middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin)(okHandler(t, "admin")))

		req := httptest.NewRequest(http.MethodDelete, "/users/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		chain.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("insufficient role gets 403", func(t *testing.T) {
		chain := f.middleware.RequireAuth(
			f.middleware.RequireRole(models.RoleSuperAdmin)(okHandler(t, "admin")))

		req := httptest.NewRequest(http.MethodDelete, "/users/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		chain.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
