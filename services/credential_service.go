package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/securegpt/rag-gateway/models"
	"github.com/securegpt/rag-gateway/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CreateUserInput carries the fields for a new account
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     models.UserRole
}

// UpdateUserInput carries optional field updates; nil means unchanged
type UpdateUserInput struct {
	Username *string
	Email    *string
	Role     *models.UserRole
	IsActive *bool
}

// CredentialService owns user records and password verification. Plaintext
// passwords exist only transiently in memory here; they are hashed with
// bcrypt before storage and never logged.
type CredentialService struct {
	users      repositories.UserRepository
	bcryptCost int
	logger     *zap.Logger
}

// NewCredentialService creates a new CredentialService
func NewCredentialService(users repositories.UserRepository, bcryptCost int, logger *zap.Logger) *CredentialService {
	return &CredentialService{
		users:      users,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Create registers a new user, failing with a conflict when the username or
// email is already taken.
func (s *CredentialService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	// Pre-check both uniqueness constraints; the database unique indexes
	// remain the authority under concurrency.
	if _, err := s.users.GetByUsername(ctx, input.Username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, WrapInternal("failed to check username", err)
	}
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, WrapInternal("failed to check email", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(input.Username, input.Email, string(hash), input.Role)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, WrapInternal("failed to create user", err)
	}

	s.logger.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))
	return user, nil
}

// Authenticate verifies a username/password pair. Any lookup miss, hash
// mismatch, or inactive account yields the same ErrInvalidCredentials so the
// response never reveals whether the username existed. bcrypt's comparison
// is constant-time over the hash.
func (s *CredentialService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Burn a hash comparison so the miss path does roughly the same
			// work as the mismatch path.
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B0xF1P1c0pVnF9dRzV2sQeWq3b9K"), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, WrapInternal("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// FindByUsername retrieves a user by username
func (s *CredentialService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal("failed to look up user", err)
	}
	return user, nil
}

// FindByID retrieves a user by ID
func (s *CredentialService) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal("failed to look up user", err)
	}
	return user, nil
}

// Update applies partial updates to a user record
func (s *CredentialService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*models.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, WrapInternal("failed to update user", err)
	}

	s.logger.Info("user updated", zap.String("user_id", user.ID.String()))
	return user, nil
}

// Delete removes a user record
func (s *CredentialService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return WrapInternal("failed to delete user", err)
	}

	s.logger.Info("user deleted", zap.String("user_id", id.String()))
	return nil
}

// ListAll retrieves all users
func (s *CredentialService) ListAll(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, WrapInternal("failed to list users", err)
	}
	return users, nil
}
