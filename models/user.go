package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents the role of a user
type UserRole string

const (
	RoleSuperAdmin UserRole = "superadmin"
	RoleAdmin      UserRole = "admin"
	RoleUser       UserRole = "user"
)

// Valid reports whether the role is one of the defined roles
func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

// User represents an account that can authenticate and hold grants
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance with a generated ID. The password hash
// must already be computed; plaintext never reaches this constructor.
func NewUser(username, email, passwordHash string, role UserRole) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsSuperAdmin returns true if the user holds the superadmin role
func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

// Permissions returns the permission set the user's role carries
func (u *User) Permissions() []Permission {
	return PermissionsOf(u.Role)
}

// HasPermission reports whether the user's role carries perm
func (u *User) HasPermission(perm Permission) bool {
	return RoleHasPermission(u.Role, perm)
}
