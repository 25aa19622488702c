package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/securegpt/rag-gateway/internal/generation"
	"github.com/securegpt/rag-gateway/middleware"
	"github.com/securegpt/rag-gateway/models"
	"github.com/securegpt/rag-gateway/services"
	"github.com/securegpt/rag-gateway/utils"
)

// ChatHandler gates completion requests: permission check, model entitlement
// check, and context-filter narrowing all happen here before anything reaches
// the generation pipeline.
type ChatHandler struct {
	access    *services.AccessService
	modelSvc  *services.ModelService
	audit     *services.AuditService
	generator generation.Generator
	logger    *zap.Logger
}

func NewChatHandler(access *services.AccessService, modelSvc *services.ModelService, audit *services.AuditService, generator generation.Generator, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		access:    access,
		modelSvc:  modelSvc,
		audit:     audit,
		generator: generator,
		logger:    logger,
	}
}

type chatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

type chatRequest struct {
	Messages      []chatMessage `json:"messages" validate:"required,min=1,dive"`
	Model         string        `json:"model,omitempty" validate:"max=128"`
	UseContext    bool          `json:"use_context"`
	ContextDocIDs []string      `json:"context_doc_ids,omitempty"`
}

type chatResponse struct {
	Content string   `json:"content"`
	Model   string   `json:"model"`
	Sources []string `json:"sources,omitempty"`
}

// Complete handles a chat completion request
func (h *ChatHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.WriteUnauthorized(w, "")
		return
	}

	var req chatRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	// Context-aware chat needs a stronger permission than plain chat.
	required := models.PermChat
	if req.UseContext {
		required = models.PermChatWithContext
	}
	if err := h.access.RequirePermission(user, required); err != nil {
		h.audit.Record(r.Context(),
			models.NewAuditEntry(models.AuditActionAccessDenied, "chat").WithActor(user))
		writeServiceError(w, h.logger, err)
		return
	}

	modelName := req.Model
	if modelName != "" {
		model, err := h.modelSvc.CanInvoke(r.Context(), user, modelName)
		if err != nil {
			if services.IsForbiddenError(err) {
				h.audit.Record(r.Context(),
					models.NewAuditEntry(models.AuditActionAccessDenied, modelName).WithActor(user))
			}
			writeServiceError(w, h.logger, err)
			return
		}
		modelName = model.Name
	}

	genReq := &generation.Request{
		Model:      modelName,
		UseContext: req.UseContext,
	}
	for _, m := range req.Messages {
		genReq.Messages = append(genReq.Messages, generation.Message{Role: m.Role, Content: m.Content})
	}

	if req.UseContext {
		narrowed, err := h.access.NarrowContextFilter(r.Context(), user, req.ContextDocIDs)
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		genReq.ContextDocIDs = narrowed
	}

	resp, err := h.generator.Complete(r.Context(), genReq)
	if err != nil {
		h.logger.Error("generation pipeline call failed", zap.Error(err))
		utils.WriteBadGateway(w, "")
		return
	}

	utils.WriteOK(w, chatResponse{
		Content: resp.Content,
		Model:   resp.Model,
		Sources: resp.Sources,
	})
}

// Models returns the models the caller may select for chat
func (h *ChatHandler) Models(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.WriteUnauthorized(w, "")
		return
	}

	accessible, err := h.modelSvc.AccessibleModels(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	names := make([]string, 0, len(accessible))
	for _, m := range accessible {
		names = append(names, m.Name)
	}
	utils.WriteOK(w, names)
}
