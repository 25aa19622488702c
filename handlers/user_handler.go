package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/securegpt/rag-gateway/middleware"
	"github.com/securegpt/rag-gateway/models"
	"github.com/securegpt/rag-gateway/services"
	"github.com/securegpt/rag-gateway/utils"
)

// UserHandler handles user administration endpoints
type UserHandler struct {
	credentials *services.CredentialService
	audit       *services.AuditService
	logger      *zap.Logger
}

func NewUserHandler(credentials *services.CredentialService, audit *services.AuditService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		credentials: credentials,
		audit:       audit,
		logger:      logger,
	}
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"required,oneof=superadmin admin user"`
}

type updateUserRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=superadmin admin user"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Create registers a new user account
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.credentials.Create(r.Context(), services.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.UserRole(req.Role),
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if actor, ok := middleware.UserFromContext(r.Context()); ok {
		h.audit.Record(r.Context(),
			models.NewAuditEntry(models.AuditActionUserCreated, user.ID.String()).WithActor(actor))
	}

	utils.WriteCreated(w, toUserResponse(user))
}

// List returns all user accounts
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.credentials.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	utils.WriteOK(w, out)
}

// Get returns a single user by id
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	user, err := h.credentials.FindByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.WriteOK(w, toUserResponse(user))
}

// Update applies partial updates to a user account
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	input := services.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		IsActive: req.IsActive,
	}
	if req.Role != nil {
		role := models.UserRole(*req.Role)
		input.Role = &role
	}

	user, err := h.credentials.Update(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if actor, ok := middleware.UserFromContext(r.Context()); ok {
		h.audit.Record(r.Context(),
			models.NewAuditEntry(models.AuditActionUserUpdated, user.ID.String()).WithActor(actor))
	}

	utils.WriteOK(w, toUserResponse(user))
}

// Delete removes a user account
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	if err := h.credentials.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if actor, ok := middleware.UserFromContext(r.Context()); ok {
		h.audit.Record(r.Context(),
			models.NewAuditEntry(models.AuditActionUserDeleted, id.String()).WithActor(actor))
	}

	utils.WriteNoContent(w)
}

func parseUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		utils.WriteBadRequest(w, "invalid user id", nil)
		return uuid.Nil, false
	}
	return id, true
}
