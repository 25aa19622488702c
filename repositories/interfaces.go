package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/securegpt/rag-gateway/models"
)

// ErrDuplicate is returned by Create operations when a uniqueness constraint
// (username, email, document id, model name) is violated at the storage layer.
var ErrDuplicate = errors.New("duplicate key")

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// Commits if the function succeeds, rolls back on error.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	Context() context.Context
}

// UserRepository handles user row persistence. It is the only component that
// owns user rows.
type UserRepository interface {
	// Create inserts a new user
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List retrieves all users
	List(ctx context.Context) ([]*models.User, error)

	// Update updates a user row
	Update(ctx context.Context, user *models.User) error

	// Delete removes a user row
	Delete(ctx context.Context, id uuid.UUID) error
}

// DocumentRepository handles document and document-grant persistence
type DocumentRepository interface {
	// Create registers a new document
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document by its external ID
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// ListAll retrieves every registered document
	ListAll(ctx context.Context) ([]*models.Document, error)

	// ListAccessible retrieves the union of documents owned by the user,
	// public documents, and documents with any explicit grant for the user,
	// deduplicated by document id.
	ListAccessible(ctx context.Context, userID uuid.UUID) ([]*models.Document, error)

	// Update updates a document row
	Update(ctx context.Context, doc *models.Document) error

	// Delete removes a document row; grants cascade at the storage layer
	Delete(ctx context.Context, id string) error

	// HasGrant reports whether an explicit (user, document, permission) grant exists
	HasGrant(ctx context.Context, userID uuid.UUID, docID string, perm models.Permission) (bool, error)

	// ReplaceGrants atomically replaces the full grant set for a
	// (user, document) pair. Prior grants for the pair are deleted and the
	// new set inserted within a single transaction; a partially cleared set
	// is never observable.
	ReplaceGrants(ctx context.Context, userID uuid.UUID, docID string, perms []models.Permission) error

	// DeleteGrants removes all grants for a (user, document) pair; no-op when none exist
	DeleteGrants(ctx context.Context, userID uuid.UUID, docID string) error
}

// ModelRepository handles model and model-grant persistence
type ModelRepository interface {
	// Create inserts a new model
	Create(ctx context.Context, model *models.Model) error

	// GetByID retrieves a model by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Model, error)

	// GetByName retrieves a model by its unique name
	GetByName(ctx context.Context, name string) (*models.Model, error)

	// ListActive retrieves all active models
	ListActive(ctx context.Context) ([]*models.Model, error)

	// ListGranted retrieves the active models the user holds an explicit grant for
	ListGranted(ctx context.Context, userID uuid.UUID) ([]*models.Model, error)

	// Grant records a (user, model) entitlement; inserting an existing pair is a no-op
	Grant(ctx context.Context, userID, modelID uuid.UUID) error

	// Revoke removes a (user, model) entitlement; no-op when absent
	Revoke(ctx context.Context, userID, modelID uuid.UUID) error
}

// AuditRepository handles audit entry persistence
type AuditRepository interface {
	// Insert records a new audit entry
	Insert(ctx context.Context, entry *models.AuditEntry) error

	// List retrieves audit entries newest first, with pagination
	List(ctx context.Context, limit, offset int) ([]*models.AuditEntry, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users     UserRepository
	Documents DocumentRepository
	Models    ModelRepository
	AuditLog  AuditRepository
}
