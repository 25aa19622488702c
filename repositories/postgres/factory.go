package postgres

import (
	"github.com/securegpt/rag-gateway/config"
	"github.com/securegpt/rag-gateway/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db        *DB
	txManager repositories.TransactionManager
	logger    *zap.Logger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	return &RepositoryFactory{
		db:        db,
		txManager: NewTransactionManager(db, logger),
		logger:    logger,
	}, nil
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Users:     NewUserRepository(f.db, f.logger),
		Documents: NewDocumentRepository(f.db, f.txManager, f.logger),
		Models:    NewModelRepository(f.db, f.logger),
		AuditLog:  NewAuditRepository(f.db, f.logger),
	}
}

// GetTransactionManager returns the shared transaction manager
func (f *RepositoryFactory) GetTransactionManager() repositories.TransactionManager {
	return f.txManager
}

// GetDB returns the database connection
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// Close closes the database connection
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
