package handlers

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/securegpt/rag-gateway/config"
	"github.com/securegpt/rag-gateway/internal/generation"
	"github.com/securegpt/rag-gateway/models"
	"github.com/securegpt/rag-gateway/repositories"
	"github.com/securegpt/rag-gateway/services"
)

// In-memory repository fakes for handler tests. They implement only the
// behavior the handlers exercise; uniqueness is enforced the way the real
// store does, by returning repositories.ErrDuplicate.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*models.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) List(ctx context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.users, id)
	return nil
}

type grantKey struct {
	userID uuid.UUID
	docID  string
	perm   models.Permission
}

type fakeDocumentRepo struct {
	mu     sync.Mutex
	docs   map[string]*models.Document
	grants map[grantKey]struct{}
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{
		docs:   map[string]*models.Document{},
		grants: map[grantKey]struct{}{},
	}
}

func (f *fakeDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[doc.ID]; ok {
		return repositories.ErrDuplicate
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocumentRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.docs[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDocumentRepo) ListAll(ctx context.Context) ([]*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Document, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDocumentRepo) ListAccessible(ctx context.Context, userID uuid.UUID) ([]*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Document
	for _, d := range f.docs {
		if d.OwnerID == userID || d.IsPublic {
			out = append(out, d)
			continue
		}
		for key := range f.grants {
			if key.userID == userID && key.docID == d.ID {
				out = append(out, d)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeDocumentRepo) Update(ctx context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[doc.ID]; !ok {
		return sql.ErrNoRows
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocumentRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.docs, id)
	for key := range f.grants {
		if key.docID == id {
			delete(f.grants, key)
		}
	}
	return nil
}

func (f *fakeDocumentRepo) HasGrant(ctx context.Context, userID uuid.UUID, docID string, perm models.Permission) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.grants[grantKey{userID, docID, perm}]
	return ok, nil
}

func (f *fakeDocumentRepo) ReplaceGrants(ctx context.Context, userID uuid.UUID, docID string, perms []models.Permission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.grants {
		if key.userID == userID && key.docID == docID {
			delete(f.grants, key)
		}
	}
	for _, perm := range perms {
		f.grants[grantKey{userID, docID, perm}] = struct{}{}
	}
	return nil
}

func (f *fakeDocumentRepo) DeleteGrants(ctx context.Context, userID uuid.UUID, docID string) error {
	return f.ReplaceGrants(ctx, userID, docID, nil)
}

type fakeModelRepo struct {
	mu     sync.Mutex
	models map[uuid.UUID]*models.Model
	grants map[uuid.UUID]map[uuid.UUID]struct{} // userID -> modelIDs
}

func newFakeModelRepo() *fakeModelRepo {
	return &fakeModelRepo{
		models: map[uuid.UUID]*models.Model{},
		grants: map[uuid.UUID]map[uuid.UUID]struct{}{},
	}
}

func (f *fakeModelRepo) Create(ctx context.Context, model *models.Model) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.models {
		if m.Name == model.Name {
			return repositories.ErrDuplicate
		}
	}
	f.models[model.ID] = model
	return nil
}

func (f *fakeModelRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.models[id]; ok {
		return m, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeModelRepo) GetByName(ctx context.Context, name string) (*models.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.models {
		if m.Name == name {
			return m, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeModelRepo) ListActive(ctx context.Context) ([]*models.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Model
	for _, m := range f.models {
		if m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeModelRepo) ListGranted(ctx context.Context, userID uuid.UUID) ([]*models.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Model
	for id := range f.grants[userID] {
		if m, ok := f.models[id]; ok && m.IsActive {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeModelRepo) Grant(ctx context.Context, userID, modelID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.grants[userID] == nil {
		f.grants[userID] = map[uuid.UUID]struct{}{}
	}
	f.grants[userID][modelID] = struct{}{}
	return nil
}

func (f *fakeModelRepo) Revoke(ctx context.Context, userID, modelID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.grants[userID], modelID)
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*models.AuditEntry
}

func (f *fakeAuditRepo) Insert(ctx context.Context, entry *models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, limit, offset int) ([]*models.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if offset >= len(f.entries) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.entries) {
		end = len(f.entries)
	}
	return f.entries[offset:end], nil
}

func (f *fakeAuditRepo) actions() []models.AuditAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.AuditAction, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

// fakeGenerator records the request it was handed and returns a canned answer
type fakeGenerator struct {
	mu       sync.Mutex
	lastReq  *generation.Request
	response *generation.Response
	err      error
}

func (f *fakeGenerator) Complete(ctx context.Context, req *generation.Request) (*generation.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	if f.response != nil {
		return f.response, nil
	}
	return &generation.Response{Content: "ok", Model: req.Model}, nil
}

// handlerFixture wires real services over the in-memory fakes
type handlerFixture struct {
	users     *fakeUserRepo
	docs      *fakeDocumentRepo
	modelRepo *fakeModelRepo
	auditRepo *fakeAuditRepo
	generator *fakeGenerator

	tokens      *services.TokenService
	credentials *services.CredentialService
	documents   *services.DocumentService
	modelSvc    *services.ModelService
	access      *services.AccessService
	audit       *services.AuditService
}

func newHandlerFixture() *handlerFixture {
	logger := zap.NewNop()
	f := &handlerFixture{
		users:     newFakeUserRepo(),
		docs:      newFakeDocumentRepo(),
		modelRepo: newFakeModelRepo(),
		auditRepo: &fakeAuditRepo{},
		generator: &fakeGenerator{},
	}
	f.tokens = services.NewTokenService(config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  30 * time.Minute,
	}, logger)
	f.credentials = services.NewCredentialService(f.users, bcrypt.MinCost, logger)
	f.documents = services.NewDocumentService(f.docs, logger)
	f.modelSvc = services.NewModelService(f.modelRepo, logger)
	f.access = services.NewAccessService(f.tokens, f.credentials, f.documents, logger)
	f.audit = services.NewAuditService(f.auditRepo, logger)
	return f
}

func (f *handlerFixture) addUser(username string, role models.UserRole, password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := models.NewUser(username, username+"@example.com", string(hash), role)
	f.users.users[user.ID] = user
	return user
}
