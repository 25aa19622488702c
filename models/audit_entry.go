package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of access-control event being recorded
type AuditAction string

const (
	AuditActionLoginSucceeded   AuditAction = "login_succeeded"
	AuditActionLoginFailed      AuditAction = "login_failed"
	AuditActionUserCreated      AuditAction = "user_created"
	AuditActionUserUpdated      AuditAction = "user_updated"
	AuditActionUserDeleted      AuditAction = "user_deleted"
	AuditActionDocumentGranted  AuditAction = "document_access_granted"
	AuditActionDocumentRevoked  AuditAction = "document_access_revoked"
	AuditActionModelGranted     AuditAction = "model_access_granted"
	AuditActionModelRevoked     AuditAction = "model_access_revoked"
	AuditActionAccessDenied     AuditAction = "access_denied"
	AuditActionDocumentDeleted  AuditAction = "document_deleted"
	AuditActionVisibilityChange AuditAction = "document_visibility_changed"
)

// AuditEntry records a single authorization-relevant event. Actor fields are
// nullable: failed logins have no resolved user.
type AuditEntry struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	ActorID       *uuid.UUID      `json:"actor_id,omitempty" db:"actor_id"`
	ActorUsername string          `json:"actor_username" db:"actor_username"`
	Action        AuditAction     `json:"action" db:"action"`
	Resource      string          `json:"resource" db:"resource"` // document id, model id, user id
	Details       json.RawMessage `json:"details,omitempty" db:"details"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the AuditEntry model
func (AuditEntry) TableName() string {
	return "audit_entries"
}

// NewAuditEntry creates a new AuditEntry instance
func NewAuditEntry(action AuditAction, resource string) *AuditEntry {
	return &AuditEntry{
		ID:        uuid.New(),
		Action:    action,
		Resource:  resource,
		CreatedAt: time.Now().UTC(),
	}
}

// WithActor sets the acting user
func (a *AuditEntry) WithActor(u *User) *AuditEntry {
	if u != nil {
		id := u.ID
		a.ActorID = &id
		a.ActorUsername = u.Username
	}
	return a
}

// WithUsername sets the claimed username when no user record resolved
func (a *AuditEntry) WithUsername(username string) *AuditEntry {
	a.ActorUsername = username
	return a
}

// WithDetails attaches arbitrary JSON metadata
func (a *AuditEntry) WithDetails(v interface{}) *AuditEntry {
	if raw, err := json.Marshal(v); err == nil {
		a.Details = raw
	}
	return a
}
