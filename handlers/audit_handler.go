package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/securegpt/rag-gateway/services"
	"github.com/securegpt/rag-gateway/utils"
)

// AuditHandler exposes the access audit trail
type AuditHandler struct {
	audit  *services.AuditService
	logger *zap.Logger
}

func NewAuditHandler(audit *services.AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		audit:  audit,
		logger: logger,
	}
}

// List returns audit entries newest first with limit/offset paging
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	utils.WriteOK(w, entries)
}
