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

// DocumentHandler handles document ownership, visibility, and ACL endpoints
type DocumentHandler struct {
	documents *services.DocumentService
	audit     *services.AuditService
	logger    *zap.Logger
}

func NewDocumentHandler(documents *services.DocumentService, audit *services.AuditService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		audit:     audit,
		logger:    logger,
	}
}

type registerDocumentRequest struct {
	ID       string `json:"id" validate:"required,min=1,max=255"`
	Filename string `json:"filename" validate:"required,min=1,max=512"`
	IsPublic bool   `json:"is_public"`
}

// grantDocumentRequest accepts any defined permission name; unknown names are
// rejected by ParsePermission when the set is built.
type grantDocumentRequest struct {
	UserID      string   `json:"user_id" validate:"required,uuid"`
	Permissions []string `json:"permissions" validate:"required,min=1,dive,required"`
}

type revokeDocumentRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

type visibilityRequest struct {
	IsPublic *bool `json:"is_public" validate:"required"`
}

type documentResponse struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	OwnerID   string `json:"owner_id"`
	IsPublic  bool   `json:"is_public"`
	CreatedAt string `json:"created_at"`
}

func toDocumentResponse(d *models.Document) documentResponse {
	return documentResponse{
		ID:        d.ID,
		Filename:  d.Filename,
		OwnerID:   d.OwnerID.String(),
		IsPublic:  d.IsPublic,
		CreatedAt: d.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Register records ownership of a freshly ingested document. The caller
// becomes the owner.
func (h *DocumentHandler) Register(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.WriteUnauthorized(w, "")
		return
	}

	var req registerDocumentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	doc, err := h.documents.RegisterOwnership(r.Context(), req.ID, req.Filename, user.ID, req.IsPublic)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	utils.WriteCreated(w, toDocumentResponse(doc))
}

// List returns every document the caller may see
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.WriteUnauthorized(w, "")
		return
	}

	docs, err := h.documents.AccessibleDocuments(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	utils.WriteOK(w, out)
}

// Get returns a single document the caller may read. Denial and absence are
// indistinguishable.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.WriteUnauthorized(w, "")
		return
	}
	docID := chi.URLParam(r, "docID")

	doc, err := h.documents.Fetch(r.Context(), user, docID)
	if err != nil {
		if services.IsForbiddenError(err) {
			h.recordDenied(r, user, docID)
		}
		writeServiceError(w, h.logger, err)
		return
	}
	utils.WriteOK(w, toDocumentResponse(doc))
}

// Grant replaces a user's grant set on a document
func (h *DocumentHandler) Grant(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	var req grantDocumentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		utils.WriteBadRequest(w, "invalid user id", nil)
		return
	}

	perms := make([]models.Permission, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		perm, ok := models.ParsePermission(p)
		if !ok {
			utils.WriteBadRequest(w, "unknown permission: "+p, nil)
			return
		}
		perms = append(perms, perm)
	}

	if err := h.documents.Grant(r.Context(), userID, docID, perms); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if actor, ok := middleware.UserFromContext(r.Context()); ok {
		h.audit.Record(r.Context(),
			models.NewAuditEntry(models.AuditActionDocumentGranted, docID).
				WithActor(actor).
				WithDetails(map[string]interface{}{"user_id": req.UserID, "permissions": req.Permissions}))
	}

	utils.WriteNoContent(w)
}

// Revoke removes all of a user's grants on a document
func (h *DocumentHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	var req revokeDocumentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		utils.WriteBadRequest(w, "invalid user id", nil)
		return
	}

	if err := h.documents.Revoke(r.Context(), userID, docID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	if actor, ok := middleware.UserFromContext(r.Context()); ok {
		h.audit.Record(r.Context(),
			models.NewAuditEntry(models.AuditActionDocumentRevoked, docID).
				WithActor(actor).
				WithDetails(map[string]interface{}{"user_id": req.UserID}))
	}

	utils.WriteNoContent(w)
}

// UpdateVisibility flips the public flag on an owned document
func (h *DocumentHandler) UpdateVisibility(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.WriteUnauthorized(w, "")
		return
	}
	docID := chi.URLParam(r, "docID")

	var req visibilityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	doc, err := h.documents.UpdateVisibility(r.Context(), user, docID, *req.IsPublic)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	h.audit.Record(r.Context(),
		models.NewAuditEntry(models.AuditActionVisibilityChange, docID).
			WithActor(user).
			WithDetails(map[string]interface{}{"is_public": *req.IsPublic}))

	utils.WriteOK(w, toDocumentResponse(doc))
}

// Delete removes a document
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.WriteUnauthorized(w, "")
		return
	}
	docID := chi.URLParam(r, "docID")

	if err := h.documents.Delete(r.Context(), user, docID); err != nil {
		if services.IsForbiddenError(err) {
			h.recordDenied(r, user, docID)
		}
		writeServiceError(w, h.logger, err)
		return
	}

	h.audit.Record(r.Context(),
		models.NewAuditEntry(models.AuditActionDocumentDeleted, docID).WithActor(user))

	utils.WriteNoContent(w)
}

func (h *DocumentHandler) recordDenied(r *http.Request, user *models.User, docID string) {
	h.audit.Record(r.Context(),
		models.NewAuditEntry(models.AuditActionAccessDenied, docID).WithActor(user))
}
