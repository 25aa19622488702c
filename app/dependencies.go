package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/securegpt/rag-gateway/config"
	"github.com/securegpt/rag-gateway/handlers"
	"github.com/securegpt/rag-gateway/internal/generation"
	"github.com/securegpt/rag-gateway/middleware"
	"github.com/securegpt/rag-gateway/repositories"
	"github.com/securegpt/rag-gateway/repositories/postgres"
	"github.com/securegpt/rag-gateway/services"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users     repositories.UserRepository
	Documents repositories.DocumentRepository
	Models    repositories.ModelRepository
	AuditLog  repositories.AuditRepository
	TxManager repositories.TransactionManager

	// Services
	TokenService      *services.TokenService
	CredentialService *services.CredentialService
	DocumentService   *services.DocumentService
	ModelService      *services.ModelService
	AccessService     *services.AccessService
	AuditService      *services.AuditService
	Bootstrap         *services.Bootstrap

	// Generation pipeline
	Generator generation.Generator

	// Middleware
	AuthMiddleware *middleware.AuthMiddleware

	// Handlers
	AuthHandler     *handlers.AuthHandler
	UserHandler     *handlers.UserHandler
	DocumentHandler *handlers.DocumentHandler
	ModelHandler    *handlers.ModelHandler
	ChatHandler     *handlers.ChatHandler
	AuditHandler    *handlers.AuditHandler
	HealthHandler   *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()
	deps.initServices(cfg)
	deps.initHTTP(cfg)

	logger.Info("all dependencies initialized")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection and repository factory
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))
	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.Documents = repos.Documents
	d.Models = repos.Models
	d.AuditLog = repos.AuditLog
	d.TxManager = d.RepoFactory.GetTransactionManager()
}

// initServices initializes the service layer
func (d *Dependencies) initServices(cfg *config.Config) {
	d.TokenService = services.NewTokenService(cfg.Auth, d.Logger)
	d.CredentialService = services.NewCredentialService(d.Users, cfg.Auth.BcryptCost, d.Logger)
	d.DocumentService = services.NewDocumentService(d.Documents, d.Logger)
	d.ModelService = services.NewModelService(d.Models, d.Logger)
	d.AccessService = services.NewAccessService(d.TokenService, d.CredentialService, d.DocumentService, d.Logger)
	d.AuditService = services.NewAuditService(d.AuditLog, d.Logger)
	d.Bootstrap = services.NewBootstrap(cfg.Auth, d.CredentialService, d.ModelService, d.Logger)

	d.Generator = generation.NewClient(cfg.Generation, d.Logger)
}

// initHTTP initializes middleware and handlers
func (d *Dependencies) initHTTP(cfg *config.Config) {
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.AccessService, d.Logger)

	d.AuthHandler = handlers.NewAuthHandler(d.CredentialService, d.TokenService, d.AuditService, d.Logger)
	d.UserHandler = handlers.NewUserHandler(d.CredentialService, d.AuditService, d.Logger)
	d.DocumentHandler = handlers.NewDocumentHandler(d.DocumentService, d.AuditService, d.Logger)
	d.ModelHandler = handlers.NewModelHandler(d.ModelService, d.AuditService, d.Logger)
	d.ChatHandler = handlers.NewChatHandler(d.AccessService, d.ModelService, d.AuditService, d.Generator, d.Logger)
	d.AuditHandler = handlers.NewAuditHandler(d.AuditService, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.DB, d.Logger)
}

// Close releases held resources
func (d *Dependencies) Close() error {
	if d.RepoFactory != nil {
		return d.RepoFactory.Close()
	}
	return nil
}
