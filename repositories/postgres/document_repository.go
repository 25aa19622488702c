package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/securegpt/rag-gateway/models"
	"github.com/securegpt/rag-gateway/repositories"
	"go.uber.org/zap"
)

const documentColumns = "id, filename, owner_id, is_public, created_at, updated_at"

// DocumentRepository implements repositories.DocumentRepository
type DocumentRepository struct {
	db        *DB
	txManager repositories.TransactionManager
	logger    *zap.Logger
}

// NewDocumentRepository creates a new document repository. The transaction
// manager backs ReplaceGrants, which must swap grant sets atomically.
func NewDocumentRepository(db *DB, txManager repositories.TransactionManager, logger *zap.Logger) repositories.DocumentRepository {
	return &DocumentRepository{
		db:        db,
		txManager: txManager,
		logger:    logger,
	}
}

// Create registers a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, filename, owner_id, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		doc.ID,
		doc.Filename,
		doc.OwnerID,
		doc.IsPublic,
		doc.CreatedAt,
		doc.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to create document: %w", err)
	}

	r.logger.Debug("document registered",
		zap.String("id", doc.ID),
		zap.String("owner_id", doc.OwnerID.String()))
	return nil
}

// GetByID retrieves a document by its external ID
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	doc := &models.Document{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&doc.ID,
		&doc.Filename,
		&doc.OwnerID,
		&doc.IsPublic,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// ListAll retrieves every registered document
func (r *DocumentRepository) ListAll(ctx context.Context) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// ListAccessible retrieves owned, public, and explicitly granted documents
// for the user in a single deduplicated query.
func (r *DocumentRepository) ListAccessible(ctx context.Context, userID uuid.UUID) ([]*models.Document, error) {
	query := `
		SELECT DISTINCT d.id, d.filename, d.owner_id, d.is_public, d.created_at, d.updated_at
		FROM documents d
		LEFT JOIN document_grants g ON g.document_id = d.id AND g.user_id = $1
		WHERE d.owner_id = $1
		   OR d.is_public = true
		   OR g.user_id IS NOT NULL
		ORDER BY d.created_at DESC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accessible documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// Update updates a document row
func (r *DocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := `
		UPDATE documents
		SET filename = $2,
		    owner_id = $3,
		    is_public = $4,
		    updated_at = $5
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		doc.ID,
		doc.Filename,
		doc.OwnerID,
		doc.IsPublic,
		doc.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// Delete removes a document row; grants cascade via the schema
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM documents WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	r.logger.Debug("document deleted", zap.String("id", id))
	return nil
}

// HasGrant reports whether an explicit (user, document, permission) grant exists
func (r *DocumentRepository) HasGrant(ctx context.Context, userID uuid.UUID, docID string, perm models.Permission) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM document_grants
			WHERE user_id = $1 AND document_id = $2 AND permission = $3
		)
	`

	executor := GetExecutor(ctx, r.db)
	var exists bool
	if err := executor.QueryRowContext(ctx, query, userID, docID, perm).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check document grant: %w", err)
	}

	return exists, nil
}

// ReplaceGrants atomically replaces the grant set for a (user, document)
// pair. The delete and inserts run in one transaction so readers never
// observe a partially cleared set.
func (r *DocumentRepository) ReplaceGrants(ctx context.Context, userID uuid.UUID, docID string, perms []models.Permission) error {
	err := r.txManager.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		executor := GetExecutor(txCtx, r.db)

		if _, err := executor.ExecContext(txCtx,
			`DELETE FROM document_grants WHERE user_id = $1 AND document_id = $2`,
			userID, docID,
		); err != nil {
			return fmt.Errorf("failed to clear document grants: %w", err)
		}

		for _, perm := range perms {
			if _, err := executor.ExecContext(txCtx,
				`INSERT INTO document_grants (user_id, document_id, permission) VALUES ($1, $2, $3)`,
				userID, docID, perm,
			); err != nil {
				return fmt.Errorf("failed to insert document grant: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug("document grants replaced",
		zap.String("user_id", userID.String()),
		zap.String("document_id", docID),
		zap.Int("count", len(perms)))
	return nil
}

// DeleteGrants removes all grants for a (user, document) pair
func (r *DocumentRepository) DeleteGrants(ctx context.Context, userID uuid.UUID, docID string) error {
	query := `DELETE FROM document_grants WHERE user_id = $1 AND document_id = $2`

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, userID, docID); err != nil {
		return fmt.Errorf("failed to delete document grants: %w", err)
	}

	return nil
}

func scanDocuments(rows *sql.Rows) ([]*models.Document, error) {
	var docs []*models.Document
	for rows.Next() {
		doc := &models.Document{}
		err := rows.Scan(
			&doc.ID,
			&doc.Filename,
			&doc.OwnerID,
			&doc.IsPublic,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	return docs, nil
}
