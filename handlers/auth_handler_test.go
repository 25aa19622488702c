package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/securegpt/rag-gateway/middleware"
	"github.com/securegpt/rag-gateway/models"
)

func newAuthHandler(f *handlerFixture) *AuthHandler {
	return NewAuthHandler(f.credentials, f.tokens, f.audit, zap.NewNop())
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials yield a bearer token", func(t *testing.T) {
		f := newHandlerFixture()
		f.addUser("alice", models.RoleUser, "correct-horse")
		h := newAuthHandler(f)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
			strings.NewReader(`{"username":"alice","password":"correct-horse"}`))
		w := httptest.NewRecorder()
		h.Login(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp loginResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, "bearer", resp.TokenType)
		assert.Equal(t, 1800, resp.ExpiresIn)

		// The response carries the authenticated identity alongside the token
		assert.Equal(t, "alice", resp.User.Username)
		assert.Equal(t, "user", resp.User.Role)
		assert.Contains(t, resp.User.Permissions, string(models.PermChat))

		// Token round-trips through the verifier
		claims, err := f.tokens.Verify(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Username())

		assert.Contains(t, f.auditRepo.actions(), models.AuditActionLoginSucceeded)
	})

	t.Run("wrong password yields 401 without revealing the cause", func(t *testing.T) {
		f := newHandlerFixture()
		f.addUser("alice", models.RoleUser, "correct-horse")
		h := newAuthHandler(f)

		body := func(user string) string {
			return `{"username":"` + user + `","password":"wrong"}`
		}

		reqKnown := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body("alice")))
		wKnown := httptest.NewRecorder()
		h.Login(wKnown, reqKnown)

		reqUnknown := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body("ghost")))
		wUnknown := httptest.NewRecorder()
		h.Login(wUnknown, reqUnknown)

		assert.Equal(t, http.StatusUnauthorized, wKnown.Code)
		assert.Equal(t, http.StatusUnauthorized, wUnknown.Code)
		// Identical bodies whether or not the username exists
		assert.Equal(t, wKnown.Body.String(), wUnknown.Body.String())

		actions := f.auditRepo.actions()
		assert.Contains(t, actions, models.AuditActionLoginFailed)
	})

	t.Run("inactive account cannot log in", func(t *testing.T) {
		f := newHandlerFixture()
		user := f.addUser("alice", models.RoleUser, "correct-horse")
		user.IsActive = false
		h := newAuthHandler(f)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
			strings.NewReader(`{"username":"alice","password":"correct-horse"}`))
		w := httptest.NewRecorder()
		h.Login(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing fields yield 400", func(t *testing.T) {
		f := newHandlerFixture()
		h := newAuthHandler(f)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
			strings.NewReader(`{"username":"alice"}`))
		w := httptest.NewRecorder()
		h.Login(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMe(t *testing.T) {
	t.Run("returns identity and permission snapshot", func(t *testing.T) {
		f := newHandlerFixture()
		admin := f.addUser("admin", models.RoleAdmin, "pass")
		h := newAuthHandler(f)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req = req.WithContext(middleware.WithUser(req.Context(), admin))
		w := httptest.NewRecorder()
		h.Me(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data userResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "admin", resp.Data.Username)
		assert.Equal(t, "admin", resp.Data.Role)
		assert.Contains(t, resp.Data.Permissions, string(models.PermManageUsers))
		assert.NotContains(t, resp.Data.Permissions, string(models.PermManageModels))
	})

	t.Run("no user in context yields 401", func(t *testing.T) {
		f := newHandlerFixture()
		h := newAuthHandler(f)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		w := httptest.NewRecorder()
		h.Me(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
