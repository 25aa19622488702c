package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/securegpt/rag-gateway/models"
	"github.com/securegpt/rag-gateway/repositories"
	"go.uber.org/zap"
)

const modelColumns = "id, name, provider, model_path, is_active, description, created_at"

// ModelRepository implements repositories.ModelRepository
type ModelRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewModelRepository creates a new model repository
func NewModelRepository(db *DB, logger *zap.Logger) repositories.ModelRepository {
	return &ModelRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new model
func (r *ModelRepository) Create(ctx context.Context, model *models.Model) error {
	query := `
		INSERT INTO models (id, name, provider, model_path, is_active, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		model.ID,
		model.Name,
		model.Provider,
		model.ModelPath,
		model.IsActive,
		model.Description,
		model.CreatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to create model: %w", err)
	}

	r.logger.Debug("model registered",
		zap.String("id", model.ID.String()),
		zap.String("name", model.Name))
	return nil
}

// GetByID retrieves a model by ID
func (r *ModelRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Model, error) {
	query := `SELECT ` + modelColumns + ` FROM models WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByName retrieves a model by its unique name
func (r *ModelRepository) GetByName(ctx context.Context, name string) (*models.Model, error) {
	query := `SELECT ` + modelColumns + ` FROM models WHERE name = $1`
	return r.getOne(ctx, query, name)
}

func (r *ModelRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Model, error) {
	executor := GetExecutor(ctx, r.db)
	model := &models.Model{}

	err := executor.QueryRowContext(ctx, query, arg).Scan(
		&model.ID,
		&model.Name,
		&model.Provider,
		&model.ModelPath,
		&model.IsActive,
		&model.Description,
		&model.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get model: %w", err)
	}

	return model, nil
}

// ListActive retrieves all active models
func (r *ModelRepository) ListActive(ctx context.Context) ([]*models.Model, error) {
	query := `SELECT ` + modelColumns + ` FROM models WHERE is_active = true ORDER BY name`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer rows.Close()

	return scanModels(rows)
}

// ListGranted retrieves the active models the user holds an explicit grant for
func (r *ModelRepository) ListGranted(ctx context.Context, userID uuid.UUID) ([]*models.Model, error) {
	query := `
		SELECT m.id, m.name, m.provider, m.model_path, m.is_active, m.description, m.created_at
		FROM models m
		JOIN model_grants g ON g.model_id = m.id
		WHERE g.user_id = $1 AND m.is_active = true
		ORDER BY m.name
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query granted models: %w", err)
	}
	defer rows.Close()

	return scanModels(rows)
}

// Grant records a (user, model) entitlement. ON CONFLICT DO NOTHING makes
// repeated grants a no-op rather than an error.
func (r *ModelRepository) Grant(ctx context.Context, userID, modelID uuid.UUID) error {
	query := `
		INSERT INTO model_grants (user_id, model_id, granted_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, model_id) DO NOTHING
	`

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, userID, modelID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to grant model access: %w", err)
	}

	r.logger.Debug("model access granted",
		zap.String("user_id", userID.String()),
		zap.String("model_id", modelID.String()))
	return nil
}

// Revoke removes a (user, model) entitlement; no-op when absent
func (r *ModelRepository) Revoke(ctx context.Context, userID, modelID uuid.UUID) error {
	query := `DELETE FROM model_grants WHERE user_id = $1 AND model_id = $2`

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, userID, modelID); err != nil {
		return fmt.Errorf("failed to revoke model access: %w", err)
	}

	return nil
}

func scanModels(rows *sql.Rows) ([]*models.Model, error) {
	var out []*models.Model
	for rows.Next() {
		model := &models.Model{}
		err := rows.Scan(
			&model.ID,
			&model.Name,
			&model.Provider,
			&model.ModelPath,
			&model.IsActive,
			&model.Description,
			&model.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		out = append(out, model)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating model rows: %w", err)
	}

	return out, nil
}
