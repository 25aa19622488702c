package services

import (
	"context"

	"github.com/securegpt/rag-gateway/models"
	"github.com/securegpt/rag-gateway/repositories"
	"go.uber.org/zap"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 500
)

// AuditService records authorization-relevant events. Recording is
// best-effort: a failed insert is logged and swallowed so an audit outage
// never blocks the request path.
type AuditService struct {
	entries repositories.AuditRepository
	logger  *zap.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(entries repositories.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{
		entries: entries,
		logger:  logger,
	}
}

// Record persists an audit entry
func (s *AuditService) Record(ctx context.Context, entry *models.AuditEntry) {
	if err := s.entries.Insert(ctx, entry); err != nil {
		s.logger.Error("failed to record audit entry",
			zap.String("action", string(entry.Action)),
			zap.Error(err))
	}
}

// List retrieves audit entries newest first
func (s *AuditService) List(ctx context.Context, limit, offset int) ([]*models.AuditEntry, error) {
	if limit <= 0 {
		limit = defaultAuditPageSize
	}
	if limit > maxAuditPageSize {
		limit = maxAuditPageSize
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.entries.List(ctx, limit, offset)
	if err != nil {
		return nil, WrapInternal("failed to list audit entries", err)
	}
	return entries, nil
}
