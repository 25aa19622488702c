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

// ModelHandler handles model catalog and entitlement endpoints
type ModelHandler struct {
	models *services.ModelService
	audit  *services.AuditService
	logger *zap.Logger
}

func NewModelHandler(modelSvc *services.ModelService, audit *services.AuditService, logger *zap.Logger) *ModelHandler {
	return &ModelHandler{
		models: modelSvc,
		audit:  audit,
		logger: logger,
	}
}

type registerModelRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=128"`
	Provider    string `json:"provider" validate:"required,min=1,max=64"`
	ModelPath   string `json:"model_path" validate:"max=512"`
	Description string `json:"description" validate:"max=1024"`
}

type modelGrantRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

type modelResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	ModelPath   string `json:"model_path,omitempty"`
	IsActive    bool   `json:"is_active"`
	Description string `json:"description,omitempty"`
}

func toModelResponse(m *models.Model) modelResponse {
	return modelResponse{
		ID:          m.ID.String(),
		Name:        m.Name,
		Provider:    m.Provider,
		ModelPath:   m.ModelPath,
		IsActive:    m.IsActive,
		Description: m.Description,
	}
}

// Register adds a model to the catalog
func (h *ModelHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerModelRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	model, err := h.models.Register(r.Context(), req.Name, req.Provider, req.ModelPath, req.Description)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	utils.WriteCreated(w, toModelResponse(model))
}

// List returns the models the caller is entitled to invoke
func (h *ModelHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.WriteUnauthorized(w, "")
		return
	}

	accessible, err := h.models.AccessibleModels(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	out := make([]modelResponse, 0, len(accessible))
	for _, m := range accessible {
		out = append(out, toModelResponse(m))
	}
	utils.WriteOK(w, out)
}

// Grant entitles a user to a model
func (h *ModelHandler) Grant(w http.ResponseWriter, r *http.Request) {
	modelID, ok := parseModelID(w, r)
	if !ok {
		return
	}

	var req modelGrantRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		utils.WriteBadRequest(w, "invalid user id", nil)
		return
	}

	if err := h.models.Grant(r.Context(), userID, modelID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if actor, ok := middleware.UserFromContext(r.Context()); ok {
		h.audit.Record(r.Context(),
			models.NewAuditEntry(models.AuditActionModelGranted, modelID.String()).
				WithActor(actor).
				WithDetails(map[string]interface{}{"user_id": req.UserID}))
	}

	utils.WriteNoContent(w)
}

// Revoke removes a user's entitlement to a model
func (h *ModelHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	modelID, ok := parseModelID(w, r)
	if !ok {
		return
	}

	var req modelGrantRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		utils.WriteBadRequest(w, "invalid user id", nil)
		return
	}

	if err := h.models.Revoke(r.Context(), userID, modelID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if actor, ok := middleware.UserFromContext(r.Context()); ok {
		h.audit.Record(r.Context(),
			models.NewAuditEntry(models.AuditActionModelRevoked, modelID.String()).
				WithActor(actor).
				WithDetails(map[string]interface{}{"user_id": req.UserID}))
	}

	utils.WriteNoContent(w)
}

func parseModelID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "modelID"))
	if err != nil {
		utils.WriteBadRequest(w, "invalid model id", nil)
		return uuid.Nil, false
	}
	return id, true
}
