package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/securegpt/rag-gateway/middleware"
	"github.com/securegpt/rag-gateway/models"
	"github.com/securegpt/rag-gateway/services"
	"github.com/securegpt/rag-gateway/utils"
)

// AuthHandler handles login and identity endpoints
type AuthHandler struct {
	credentials *services.CredentialService
	tokens      *services.TokenService
	audit       *services.AuditService
	logger      *zap.Logger
}

func NewAuthHandler(credentials *services.CredentialService, tokens *services.TokenService, audit *services.AuditService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		tokens:      tokens,
		audit:       audit,
		logger:      logger,
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=50"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        userResponse `json:"user"`
}

type userResponse struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	IsActive    bool     `json:"is_active"`
	Permissions []string `json:"permissions"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID.String(),
		Username:    u.Username,
		Email:       u.Email,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		Permissions: models.PermissionStrings(u.Permissions()),
	}
}

// Login verifies credentials and issues a session token. Failed attempts are
// audited under the claimed username without revealing whether it exists.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.credentials.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.audit.Record(r.Context(),
			models.NewAuditEntry(models.AuditActionLoginFailed, "").WithUsername(req.Username))
		writeServiceError(w, h.logger, err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		writeServiceError(w, h.logger, services.WrapInternal("failed to issue token", err))
		return
	}

	h.audit.Record(r.Context(),
		models.NewAuditEntry(models.AuditActionLoginSucceeded, "").WithActor(user))

	utils.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.tokens.TTL().Seconds()),
		User:        toUserResponse(user),
	})
}

// Me returns the authenticated caller's identity and permission set
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.WriteUnauthorized(w, "")
		return
	}
	utils.WriteOK(w, toUserResponse(user))
}
