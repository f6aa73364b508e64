package repository

import (
	"context"
	"time"

	"signdocs/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations.
//
// Every read and write that takes an ownerID is scoped to that owner in the
// query itself; a document owned by someone else behaves exactly like a
// document that does not exist (sql.ErrNoRows).
type DocumentRepository interface {
	// Create inserts a new document record.
	// The caller provides required fields (ID, timestamps) according to the schema.
	// Returns the stored document (may include values set by the DB).
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByIDForOwner returns the document with the given ID if it belongs
	// to ownerID.
	FindByIDForOwner(ctx context.Context, id, ownerID string) (*model.Document, error)

	// ListByOwner returns all documents belonging to ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Document, error)

	// ReplaceAnnotations overwrites the document's annotation list wholesale
	// and marks it signed at signedAt, in a single UPDATE. Returns the
	// updated document.
	ReplaceAnnotations(ctx context.Context, id, ownerID string, annotations []model.Annotation, signedAt time.Time) (*model.Document, error)

	// Delete removes the document and returns the deleted record; the caller
	// needs its StorageName to remove the blob.
	Delete(ctx context.Context, id, ownerID string) (*model.Document, error)
}
