package model

import "time"

// Document represents an uploaded file plus its ownership and signing
// metadata. This is a pure domain model with no database-specific
// dependencies or tags. It can be used across layers (HTTP, service,
// storage) without coupling to persistence.
//
// StorageName is the system-generated blob key; OriginalName is the
// user-supplied display name and is never used to locate the blob.
// Signed is true if and only if SignedAt is set.
type Document struct {
	ID           string       `json:"id"`
	OwnerID      string       `json:"owner_id"`
	OriginalName string       `json:"original_name"`
	StorageName  string       `json:"storage_name"`
	Mimetype     string       `json:"mimetype"`
	Size         int64        `json:"size"`
	Signed       bool         `json:"signed"`
	SignedAt     *time.Time   `json:"signed_at,omitempty"`
	Annotations  []Annotation `json:"signatures"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
