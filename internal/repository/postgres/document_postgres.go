package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"signdocs/internal/model"
	"signdocs/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
// The annotation list is stored in a JSONB column so a sign operation is a
// single-row UPDATE.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, owner_id, original_name, storage_name, mimetype, size, signed, signed_at, signatures, created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	var raw []byte
	if err := row.Scan(
		&d.ID,
		&d.OwnerID,
		&d.OriginalName,
		&d.StorageName,
		&d.Mimetype,
		&d.Size,
		&d.Signed,
		&d.SignedAt,
		&raw,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.Annotations = []model.Annotation{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &d.Annotations); err != nil {
			return nil, fmt.Errorf("decode signatures: %w", err)
		}
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	raw, err := json.Marshal(doc.Annotations)
	if err != nil {
		return nil, fmt.Errorf("encode signatures: %w", err)
	}
	const q = `
		INSERT INTO documents (id, owner_id, original_name, storage_name, mimetype, size, signed, signed_at, signatures, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.OwnerID,
		doc.OriginalName,
		doc.StorageName,
		doc.Mimetype,
		doc.Size,
		doc.Signed,
		doc.SignedAt,
		raw,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// FindByIDForOwner fetches a single document scoped to its owner.
// A row owned by someone else yields sql.ErrNoRows, same as a missing row.
func (r *DocumentPostgres) FindByIDForOwner(ctx context.Context, id, ownerID string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1 AND owner_id = $2
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id, ownerID))
}

// ListByOwner returns the owner's documents ordered by creation time descending.
func (r *DocumentPostgres) ListByOwner(ctx context.Context, ownerID string) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ReplaceAnnotations overwrites the annotation list and flips the signed
// state in one UPDATE, so concurrent signs are last-write-wins but never
// leave a partially written list.
func (r *DocumentPostgres) ReplaceAnnotations(ctx context.Context, id, ownerID string, annotations []model.Annotation, signedAt time.Time) (*model.Document, error) {
	raw, err := json.Marshal(annotations)
	if err != nil {
		return nil, fmt.Errorf("encode signatures: %w", err)
	}
	const q = `
		UPDATE documents
		SET signatures = $3, signed = TRUE, signed_at = $4, updated_at = $4
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + documentColumns
	return scanDocument(r.db.QueryRowContext(ctx, q, id, ownerID, raw, signedAt))
}

// Delete removes the row and returns it; sql.ErrNoRows when absent or foreign.
func (r *DocumentPostgres) Delete(ctx context.Context, id, ownerID string) (*model.Document, error) {
	const q = `
		DELETE FROM documents
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + documentColumns
	return scanDocument(r.db.QueryRowContext(ctx, q, id, ownerID))
}
