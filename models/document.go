package models

import (
	"time"

	"github.com/google/uuid"
)

// Document represents an ingested artifact with ownership and visibility.
// The ID is the external identifier assigned by the ingestion pipeline.
type Document struct {
	ID        string    `json:"id" db:"id"`
	Filename  string    `json:"filename" db:"filename"`
	OwnerID   uuid.UUID `json:"owner_id" db:"owner_id"`
	IsPublic  bool      `json:"is_public" db:"is_public"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Document model
func (Document) TableName() string {
	return "documents"
}

// NewDocument creates a new Document record for a freshly ingested artifact
func NewDocument(id, filename string, ownerID uuid.UUID, isPublic bool) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:        id,
		Filename:  filename,
		OwnerID:   ownerID,
		IsPublic:  isPublic,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DocumentGrant is an explicit ACL entry: one permission on one document for
// one user, independent of ownership and visibility. At most one row exists
// per (user, document, permission) triple.
type DocumentGrant struct {
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	DocumentID string     `json:"document_id" db:"document_id"`
	Permission Permission `json:"permission" db:"permission"`
}

// TableName returns the table name for the DocumentGrant model
func (DocumentGrant) TableName() string {
	return "document_grants"
}
