package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/securegpt/rag-gateway/services"
	"github.com/securegpt/rag-gateway/utils"
)

// writeServiceError maps a service-layer error to an HTTP response. The
// message sent to the client is the domain error message; internal errors
// send a generic message and log the cause.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var domainErr *services.DomainError
	message := ""
	var details map[string]interface{}
	if errors.As(err, &domainErr) {
		message = domainErr.Message
		details = domainErr.Details
	}

	switch {
	case services.IsUnauthenticatedError(err):
		utils.WriteUnauthorized(w, message)
	case services.IsForbiddenError(err):
		utils.WriteForbidden(w, message)
	case services.IsNotFoundError(err):
		utils.WriteNotFound(w, message)
	case services.IsConflictError(err):
		utils.WriteConflict(w, message, details)
	case services.IsValidationError(err):
		utils.WriteBadRequest(w, message, details)
	default:
		logger.Error("request failed", zap.Error(err))
		utils.WriteInternalServerError(w, "")
	}
}
