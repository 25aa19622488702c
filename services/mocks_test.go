package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/securegpt/rag-gateway/models"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if users := args.Get(0); users != nil {
		return users.([]*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDocumentRepository is a mock implementation of repositories.DocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	args := m.Called(ctx, id)
	if d := args.Get(0); d != nil {
		return d.(*models.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) ListAll(ctx context.Context) ([]*models.Document, error) {
	args := m.Called(ctx)
	if docs := args.Get(0); docs != nil {
		return docs.([]*models.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) ListAccessible(ctx context.Context, userID uuid.UUID) ([]*models.Document, error) {
	args := m.Called(ctx, userID)
	if docs := args.Get(0); docs != nil {
		return docs.([]*models.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) HasGrant(ctx context.Context, userID uuid.UUID, docID string, perm models.Permission) (bool, error) {
	args := m.Called(ctx, userID, docID, perm)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepository) ReplaceGrants(ctx context.Context, userID uuid.UUID, docID string, perms []models.Permission) error {
	args := m.Called(ctx, userID, docID, perms)
	return args.Error(0)
}

func (m *MockDocumentRepository) DeleteGrants(ctx context.Context, userID uuid.UUID, docID string) error {
	args := m.Called(ctx, userID, docID)
	return args.Error(0)
}

// MockModelRepository is a mock implementation of repositories.ModelRepository
type MockModelRepository struct {
	mock.Mock
}

func (m *MockModelRepository) Create(ctx context.Context, model *models.Model) error {
	args := m.Called(ctx, model)
	return args.Error(0)
}

func (m *MockModelRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Model, error) {
	args := m.Called(ctx, id)
	if md := args.Get(0); md != nil {
		return md.(*models.Model), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockModelRepository) GetByName(ctx context.Context, name string) (*models.Model, error) {
	args := m.Called(ctx, name)
	if md := args.Get(0); md != nil {
		return md.(*models.Model), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockModelRepository) ListActive(ctx context.Context) ([]*models.Model, error) {
	args := m.Called(ctx)
	if mds := args.Get(0); mds != nil {
		return mds.([]*models.Model), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockModelRepository) ListGranted(ctx context.Context, userID uuid.UUID) ([]*models.Model, error) {
	args := m.Called(ctx, userID)
	if mds := args.Get(0); mds != nil {
		return mds.([]*models.Model), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockModelRepository) Grant(ctx context.Context, userID, modelID uuid.UUID) error {
	args := m.Called(ctx, userID, modelID)
	return args.Error(0)
}

func (m *MockModelRepository) Revoke(ctx context.Context, userID, modelID uuid.UUID) error {
	args := m.Called(ctx, userID, modelID)
	return args.Error(0)
}

// MockAuditRepository is a mock implementation of repositories.AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Insert(ctx context.Context, entry *models.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) List(ctx context.Context, limit, offset int) ([]*models.AuditEntry, error) {
	args := m.Called(ctx, limit, offset)
	if entries := args.Get(0); entries != nil {
		return entries.([]*models.AuditEntry), args.Error(1)
	}
	return nil, args.Error(1)
}
