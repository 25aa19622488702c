package services

import (
	"context"

	"github.com/securegpt/rag-gateway/config"
	"github.com/securegpt/rag-gateway/models"
	"go.uber.org/zap"
)

// defaultModels seeds the catalog on first initialization. Grants for these
// are explicit per user; seeding only populates the catalog.
var defaultModels = []struct {
	Name        string
	Provider    string
	ModelPath   string
	Description string
}{
	{"llama3.1", "ollama", "llama3.1", "Meta Llama 3.1 via Ollama"},
	{"llama3.1:8b", "ollama", "llama3.1:8b", "Meta Llama 3.1 8B via Ollama"},
	{"codellama", "ollama", "codellama", "Code Llama for programming tasks"},
	{"gpt-4", "openai", "gpt-4", "OpenAI GPT-4"},
	{"gpt-4-turbo", "openai", "gpt-4-turbo", "OpenAI GPT-4 Turbo"},
}

// Bootstrap performs first-run initialization: exactly one superadmin
// account and a seeded model catalog. Re-running is a no-op when the
// superadmin already exists.
type Bootstrap struct {
	cfg         config.AuthConfig
	credentials *CredentialService
	modelSvc    *ModelService
	logger      *zap.Logger
}

// NewBootstrap creates a new Bootstrap
func NewBootstrap(cfg config.AuthConfig, credentials *CredentialService, modelSvc *ModelService, logger *zap.Logger) *Bootstrap {
	return &Bootstrap{
		cfg:         cfg,
		credentials: credentials,
		modelSvc:    modelSvc,
		logger:      logger,
	}
}

// Run ensures the bootstrap state exists. Idempotent.
func (b *Bootstrap) Run(ctx context.Context) error {
	admin, err := b.ensureSuperAdmin(ctx)
	if err != nil {
		return err
	}
	return b.ensureModels(ctx, admin)
}

func (b *Bootstrap) ensureSuperAdmin(ctx context.Context) (*models.User, error) {
	existing, err := b.credentials.FindByUsername(ctx, b.cfg.BootstrapUsername)
	if err == nil {
		b.logger.Info("bootstrap superadmin already exists",
			zap.String("username", existing.Username))
		return existing, nil
	}
	if !IsNotFoundError(err) {
		return nil, err
	}

	password := b.cfg.BootstrapPassword
	if password == "" {
		// Development convenience; Validate rejects this in production
		password = "changeme-admin"
	}

	admin, err := b.credentials.Create(ctx, CreateUserInput{
		Username: b.cfg.BootstrapUsername,
		Email:    b.cfg.BootstrapEmail,
		Password: password,
		Role:     models.RoleSuperAdmin,
	})
	if err != nil {
		// Lost a race against a concurrent bootstrap; treat as done
		if IsConflictError(err) {
			return b.credentials.FindByUsername(ctx, b.cfg.BootstrapUsername)
		}
		return nil, err
	}

	b.logger.Info("bootstrap superadmin created",
		zap.String("username", admin.Username))
	return admin, nil
}

func (b *Bootstrap) ensureModels(ctx context.Context, admin *models.User) error {
	existing, err := b.modelSvc.AccessibleModels(ctx, admin)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, m := range defaultModels {
		model, err := b.modelSvc.Register(ctx, m.Name, m.Provider, m.ModelPath, m.Description)
		if err != nil {
			if IsConflictError(err) {
				continue
			}
			return err
		}
		b.logger.Info("seeded model",
			zap.String("name", model.Name),
			zap.String("provider", model.Provider))
	}

	return nil
}
