package models

import (
	"time"

	"github.com/google/uuid"
)

// Model represents an LLM backend that users can be entitled to invoke
type Model struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Provider    string    `json:"provider" db:"provider"`
	ModelPath   string    `json:"model_path" db:"model_path"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Model model
func (Model) TableName() string {
	return "models"
}

// NewModel creates a new Model entry
func NewModel(name, provider, modelPath, description string) *Model {
	return &Model{
		ID:          uuid.New(),
		Name:        name,
		Provider:    provider,
		ModelPath:   modelPath,
		IsActive:    true,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}

// ModelGrant is an explicit entitlement of one user to one model. There is
// no ownership or visibility path for models; entitlement is always explicit.
type ModelGrant struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ModelID   uuid.UUID `json:"model_id" db:"model_id"`
	GrantedAt time.Time `json:"granted_at" db:"granted_at"`
}

// TableName returns the table name for the ModelGrant model
func (ModelGrant) TableName() string {
	return "model_grants"
}
