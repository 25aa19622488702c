package services

import (
	"context"

	"github.com/securegpt/rag-gateway/models"
	"go.uber.org/zap"
)

// AccessService composes token verification, the credential store, and the
// document registry into the checks transport layers call. It is the single
// entry point for authorization decisions; nothing is ever downgraded to an
// anonymous identity.
type AccessService struct {
	tokens      *TokenService
	credentials *CredentialService
	documents   *DocumentService
	logger      *zap.Logger
}

// NewAccessService creates a new AccessService
func NewAccessService(tokens *TokenService, credentials *CredentialService, documents *DocumentService, logger *zap.Logger) *AccessService {
	return &AccessService{
		tokens:      tokens,
		credentials: credentials,
		documents:   documents,
		logger:      logger,
	}
}

// Authenticate resolves a bearer token to an active user. A valid signature
// is not enough: a token whose subject no longer exists or has been
// deactivated fails with the same error as a bad token.
func (s *AccessService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.credentials.FindByUsername(ctx, claims.Username())
	if err != nil {
		if IsNotFoundError(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrInvalidToken
	}

	return user, nil
}

// RequirePermission fails with a forbidden error unless the user's role
// carries the permission.
func (s *AccessService) RequirePermission(user *models.User, perm models.Permission) error {
	if !user.HasPermission(perm) {
		s.logger.Warn("permission denied",
			zap.String("user_id", user.ID.String()),
			zap.String("permission", string(perm)))
		return ErrForbidden
	}
	return nil
}

// RequireRole fails with a forbidden error unless the user holds one of the
// allowed roles.
func (s *AccessService) RequireRole(user *models.User, allowed ...models.UserRole) error {
	for _, role := range allowed {
		if user.Role == role {
			return nil
		}
	}
	s.logger.Warn("role denied",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))
	return ErrForbidden
}

// RequireDocumentAccess fails with a forbidden error unless the document ACL
// allows the user to exercise perm on the document. An absent document is
// indistinguishable from a forbidden one, so existence never leaks.
func (s *AccessService) RequireDocumentAccess(ctx context.Context, user *models.User, docID string, perm models.Permission) error {
	allowed, err := s.documents.CanAccess(ctx, user, docID, perm)
	if err != nil {
		return err
	}
	if !allowed {
		s.logger.Warn("document access denied",
			zap.String("user_id", user.ID.String()),
			zap.String("document_id", docID),
			zap.String("permission", string(perm)))
		return ErrForbidden
	}
	return nil
}

// NarrowContextFilter reduces a caller-supplied document-id set to the
// subset the caller may see. An empty request means "everything accessible";
// a non-empty request is intersected with the accessible set, and an empty
// intersection is a valid empty result, not an error. This is what prevents
// a caller reaching another user's private context through retrieval.
func (s *AccessService) NarrowContextFilter(ctx context.Context, user *models.User, requested []string) ([]string, error) {
	accessible, err := s.documents.AccessibleDocuments(ctx, user)
	if err != nil {
		return nil, err
	}

	accessibleIDs := make(map[string]struct{}, len(accessible))
	for _, doc := range accessible {
		accessibleIDs[doc.ID] = struct{}{}
	}

	if len(requested) == 0 {
		out := make([]string, 0, len(accessible))
		for _, doc := range accessible {
			out = append(out, doc.ID)
		}
		return out, nil
	}

	out := make([]string, 0, len(requested))
	seen := make(map[string]struct{}, len(requested))
	for _, id := range requested {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := accessibleIDs[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}
