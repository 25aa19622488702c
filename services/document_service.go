package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/securegpt/rag-gateway/models"
	"github.com/securegpt/rag-gateway/repositories"
	"go.uber.org/zap"
)

// DocumentService owns document records and the per-document ACL. Every
// access decision re-reads from the store; there is no in-process cache.
type DocumentService struct {
	documents repositories.DocumentRepository
	logger    *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(documents repositories.DocumentRepository, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		documents: documents,
		logger:    logger,
	}
}

// RegisterOwnership records a freshly ingested artifact with its owner and
// visibility. Called once per document id; a second registration conflicts.
func (s *DocumentService) RegisterOwnership(ctx context.Context, docID, filename string, ownerID uuid.UUID, isPublic bool) (*models.Document, error) {
	if docID == "" || filename == "" {
		return nil, ErrInvalidInput
	}

	doc := models.NewDocument(docID, filename, ownerID, isPublic)
	if err := s.documents.Create(ctx, doc); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDocumentExists
		}
		return nil, WrapInternal("failed to register document", err)
	}

	s.logger.Info("document ownership registered",
		zap.String("document_id", doc.ID),
		zap.String("owner_id", ownerID.String()),
		zap.Bool("is_public", isPublic))
	return doc, nil
}

// CanAccess evaluates whether the user may exercise perm on the document.
// The rules short-circuit in strict precedence order:
//
//  1. document not found          -> deny
//  2. caller is superadmin        -> allow
//  3. caller owns the document    -> allow, any permission
//  4. public + READ + role READ   -> allow
//  5. explicit grant exists       -> allow
//  6. otherwise                   -> deny
func (s *DocumentService) CanAccess(ctx context.Context, user *models.User, docID string, perm models.Permission) (bool, error) {
	doc, err := s.documents.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, WrapInternal("failed to load document", err)
	}

	if user.IsSuperAdmin() {
		return true, nil
	}

	if doc.OwnerID == user.ID {
		return true, nil
	}

	if doc.IsPublic && perm == models.PermReadDocument && user.HasPermission(models.PermReadDocument) {
		return true, nil
	}

	granted, err := s.documents.HasGrant(ctx, user.ID, docID, perm)
	if err != nil {
		return false, WrapInternal("failed to check document grant", err)
	}
	return granted, nil
}

// Fetch returns a document the user may read. Absence and denial both come
// back as a forbidden error so existence never leaks.
func (s *DocumentService) Fetch(ctx context.Context, user *models.User, docID string) (*models.Document, error) {
	allowed, err := s.CanAccess(ctx, user, docID, models.PermReadDocument)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	doc, err := s.documents.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, WrapInternal("failed to load document", err)
	}
	return doc, nil
}

// Grant replaces the full grant set for the (user, document) pair. Prior
// grants for the pair are cleared first; the repository performs the swap in
// one transaction.
func (s *DocumentService) Grant(ctx context.Context, userID uuid.UUID, docID string, perms []models.Permission) error {
	if _, err := s.documents.GetByID(ctx, docID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDocumentNotFound
		}
		return WrapInternal("failed to load document", err)
	}

	if err := s.documents.ReplaceGrants(ctx, userID, docID, perms); err != nil {
		return WrapInternal("failed to replace document grants", err)
	}

	s.logger.Info("document access granted",
		zap.String("user_id", userID.String()),
		zap.String("document_id", docID),
		zap.Int("permissions", len(perms)))
	return nil
}

// Revoke removes all grants for the (user, document) pair. Revoking when no
// grants exist is a no-op.
func (s *DocumentService) Revoke(ctx context.Context, userID uuid.UUID, docID string) error {
	if err := s.documents.DeleteGrants(ctx, userID, docID); err != nil {
		return WrapInternal("failed to revoke document grants", err)
	}

	s.logger.Info("document access revoked",
		zap.String("user_id", userID.String()),
		zap.String("document_id", docID))
	return nil
}

// AccessibleDocuments returns every document the user may see: superadmin
// sees all; everyone else gets owned ∪ public ∪ explicitly granted,
// deduplicated by document id.
func (s *DocumentService) AccessibleDocuments(ctx context.Context, user *models.User) ([]*models.Document, error) {
	var (
		docs []*models.Document
		err  error
	)
	if user.IsSuperAdmin() {
		docs, err = s.documents.ListAll(ctx)
	} else {
		docs, err = s.documents.ListAccessible(ctx, user.ID)
	}
	if err != nil {
		return nil, WrapInternal("failed to list accessible documents", err)
	}
	return docs, nil
}

// UpdateVisibility flips the public flag. Only the owner may change
// visibility; everyone else gets a forbidden error, and an absent document
// is reported as not found.
func (s *DocumentService) UpdateVisibility(ctx context.Context, user *models.User, docID string, isPublic bool) (*models.Document, error) {
	doc, err := s.documents.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, WrapInternal("failed to load document", err)
	}

	if doc.OwnerID != user.ID {
		return nil, ErrNotDocumentOwner
	}

	doc.IsPublic = isPublic
	doc.UpdatedAt = time.Now().UTC()
	if err := s.documents.Update(ctx, doc); err != nil {
		return nil, WrapInternal("failed to update document", err)
	}

	s.logger.Info("document visibility changed",
		zap.String("document_id", docID),
		zap.Bool("is_public", isPublic))
	return doc, nil
}

// Delete removes a document and, via cascade, its grants. The caller must be
// the owner or pass the CanAccess check for DELETE_DOCUMENT.
func (s *DocumentService) Delete(ctx context.Context, user *models.User, docID string) error {
	doc, err := s.documents.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDocumentNotFound
		}
		return WrapInternal("failed to load document", err)
	}

	if doc.OwnerID != user.ID {
		allowed, err := s.CanAccess(ctx, user, docID, models.PermDeleteDocument)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrForbidden
		}
	}

	if err := s.documents.Delete(ctx, docID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDocumentNotFound
		}
		return WrapInternal("failed to delete document", err)
	}

	s.logger.Info("document deleted",
		zap.String("document_id", docID),
		zap.String("deleted_by", user.ID.String()))
	return nil
}
