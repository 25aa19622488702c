package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/securegpt/rag-gateway/models"
	"github.com/securegpt/rag-gateway/repositories"
	"go.uber.org/zap"
)

// ModelService owns the model catalog and per-user model entitlements.
// Unlike documents, models have no ownership or visibility path: entitlement
// is always an explicit grant.
type ModelService struct {
	models repositories.ModelRepository
	logger *zap.Logger
}

// NewModelService creates a new ModelService
func NewModelService(modelRepo repositories.ModelRepository, logger *zap.Logger) *ModelService {
	return &ModelService{
		models: modelRepo,
		logger: logger,
	}
}

// Register adds a model to the catalog. Names are unique.
func (s *ModelService) Register(ctx context.Context, name, provider, modelPath, description string) (*models.Model, error) {
	if name == "" || provider == "" {
		return nil, ErrInvalidInput
	}

	model := models.NewModel(name, provider, modelPath, description)
	if err := s.models.Create(ctx, model); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrModelExists
		}
		return nil, WrapInternal("failed to register model", err)
	}

	s.logger.Info("model registered",
		zap.String("model_id", model.ID.String()),
		zap.String("name", model.Name),
		zap.String("provider", model.Provider))
	return model, nil
}

// FindByID retrieves a model by ID
func (s *ModelService) FindByID(ctx context.Context, id uuid.UUID) (*models.Model, error) {
	model, err := s.models.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrModelNotFound
		}
		return nil, WrapInternal("failed to look up model", err)
	}
	return model, nil
}

// FindByName retrieves a model by its unique name
func (s *ModelService) FindByName(ctx context.Context, name string) (*models.Model, error) {
	model, err := s.models.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrModelNotFound
		}
		return nil, WrapInternal("failed to look up model", err)
	}
	return model, nil
}

// Grant entitles the user to the model. Granting an existing pair is a
// no-op, not an error.
func (s *ModelService) Grant(ctx context.Context, userID, modelID uuid.UUID) error {
	if _, err := s.FindByID(ctx, modelID); err != nil {
		return err
	}

	if err := s.models.Grant(ctx, userID, modelID); err != nil {
		return WrapInternal("failed to grant model access", err)
	}

	s.logger.Info("model access granted",
		zap.String("user_id", userID.String()),
		zap.String("model_id", modelID.String()))
	return nil
}

// Revoke removes the entitlement; revoking an absent pair is a no-op.
func (s *ModelService) Revoke(ctx context.Context, userID, modelID uuid.UUID) error {
	if err := s.models.Revoke(ctx, userID, modelID); err != nil {
		return WrapInternal("failed to revoke model access", err)
	}

	s.logger.Info("model access revoked",
		zap.String("user_id", userID.String()),
		zap.String("model_id", modelID.String()))
	return nil
}

// AccessibleModels returns the active models the user may invoke: all of
// them for a superadmin, otherwise exactly those with an explicit grant.
func (s *ModelService) AccessibleModels(ctx context.Context, user *models.User) ([]*models.Model, error) {
	var (
		out []*models.Model
		err error
	)
	if user.IsSuperAdmin() {
		out, err = s.models.ListActive(ctx)
	} else {
		out, err = s.models.ListGranted(ctx, user.ID)
	}
	if err != nil {
		return nil, WrapInternal("failed to list accessible models", err)
	}
	return out, nil
}

// CanInvoke reports whether the user may invoke the named model
func (s *ModelService) CanInvoke(ctx context.Context, user *models.User, name string) (*models.Model, error) {
	model, err := s.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !model.IsActive {
		return nil, ErrModelNotFound
	}

	if user.IsSuperAdmin() {
		return model, nil
	}

	granted, err := s.models.ListGranted(ctx, user.ID)
	if err != nil {
		return nil, WrapInternal("failed to list granted models", err)
	}
	for _, m := range granted {
		if m.ID == model.ID {
			return model, nil
		}
	}
	return nil, ErrForbidden
}
