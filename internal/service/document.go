package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"signdocs/internal/model"
	"signdocs/internal/repository"
	"signdocs/internal/storage"
)

// MaxUploadSize is the byte ceiling for a single uploaded file.
const MaxUploadSize = 10 << 20 // 10 MiB

// allowedMimetypes is the declared-mimetype allow-list for uploads.
// The content itself is not sniffed.
var allowedMimetypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/jpg":       true,
}

var (
	ErrNoFile           = Validation("No file uploaded")
	ErrDisallowedType   = Validation("Only PDF and image files are allowed")
	ErrFileTooLarge     = Validation("File too large, maximum size is 10MB")
	ErrInvalidSignature = Validation("Invalid signatures data")
	ErrDocumentNotFound = NotFound("Document not found")
	ErrFileNotFound     = NotFound("File not found")
	ErrBlobGone         = NotFound("File not found on server")
)

// DocumentService defines the use cases for handling documents. Every
// operation that touches a record is scoped to the owning user; a document
// owned by someone else is indistinguishable from one that does not exist.
type DocumentService interface {
	// Upload validates the file, writes the blob under a generated storage
	// name, then creates the metadata record. If the record insert fails the
	// blob is deleted again so no record ever points at a missing blob and
	// no blob outlives the attempt.
	Upload(ctx context.Context, ownerID string, r io.Reader, originalName, mimetype string, size int64) (*model.Document, error)

	// List returns the owner's documents, newest first.
	List(ctx context.Context, ownerID string) ([]model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id, ownerID string) (*model.Document, error)

	// Sign replaces the document's annotation list wholesale and marks it
	// signed. Concurrent signs are last-write-wins.
	Sign(ctx context.Context, id, ownerID string, annotations []model.Annotation) (*model.Document, error)

	// Delete removes the record and then the blob. Blob removal is
	// best-effort once the record is gone.
	Delete(ctx context.Context, id, ownerID string) error

	// OpenFile streams a blob by raw storage name with no ownership check.
	// The storage name is unguessable and acts as the capability; this route
	// is deliberately public (see DESIGN.md).
	OpenFile(ctx context.Context, storageName string) (io.ReadCloser, storage.ObjectInfo, error)

	// OpenDocumentFile resolves a document scoped to the caller and streams
	// its blob. A record whose blob has gone missing yields NotFound.
	OpenDocumentFile(ctx context.Context, id, ownerID string) (io.ReadCloser, storage.ObjectInfo, *model.Document, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store storage.Storage
	repo  repository.DocumentRepository
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository) DocumentService {
	return &documentService{store: store, repo: repo}
}

func (s *documentService) Upload(ctx context.Context, ownerID string, r io.Reader, originalName, mimetype string, size int64) (*model.Document, error) {
	if r == nil {
		return nil, ErrNoFile
	}
	if !allowedMimetypes[mimetype] {
		return nil, ErrDisallowedType
	}
	if size > MaxUploadSize {
		return nil, ErrFileTooLarge
	}

	// Storage name is purely generated; the original filename contributes
	// only its extension so the content-type resolver keeps working.
	ext := strings.ToLower(filepath.Ext(originalName))
	storageName := uuid.New().String() + ext

	objInfo, err := s.store.Put(ctx, storageName, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: mimetype,
		Metadata: map[string]string{
			"original-filename": originalName,
		},
	})
	if err != nil {
		return nil, StorageFailure("upload to storage", err)
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		OriginalName: originalName,
		StorageName:  storageName,
		Mimetype:     mimetype,
		Size:         objInfo.Size,
		Signed:       false,
		Annotations:  []model.Annotation{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Compensating action: remove the blob so it does not outlive the
		// failed record insert.
		if delErr := s.store.Delete(ctx, storageName); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// List returns the owner's documents ordered by creation time descending.
func (s *documentService) List(ctx context.Context, ownerID string) ([]model.Document, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Get returns a document by ID, scoped to its owner.
func (s *documentService) Get(ctx context.Context, id, ownerID string) (*model.Document, error) {
	doc, err := s.repo.FindByIDForOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Sign(ctx context.Context, id, ownerID string, annotations []model.Annotation) (*model.Document, error) {
	if annotations == nil {
		return nil, ErrInvalidSignature
	}
	for i := range annotations {
		if err := annotations[i].Validate(); err != nil {
			return nil, ErrInvalidSignature
		}
		// Each annotation gets its own identity, stable across reads.
		if annotations[i].ID == "" {
			annotations[i].ID = uuid.New().String()
		}
	}

	doc, err := s.repo.ReplaceAnnotations(ctx, id, ownerID, annotations, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Delete removes the record first (owner scoping lives there), then the
// blob. A blob-delete failure is logged but does not undo the record
// deletion; this is a known best-effort trade-off.
func (s *documentService) Delete(ctx context.Context, id, ownerID string) error {
	doc, err := s.repo.Delete(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDocumentNotFound
		}
		return err
	}
	if err := s.store.Delete(ctx, doc.StorageName); err != nil {
		logEvent("error", "blob_delete_failed", map[string]any{
			"storage_name": doc.StorageName,
			"error":        err.Error(),
		})
	}
	return nil
}

// logEvent emits one JSON log line in the same shape the request logger and
// the migration runner use.
func logEvent(level, msg string, fields map[string]any) {
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": level,
		"msg":   msg,
	}
	for k, v := range fields {
		entry[k] = v
	}
	if b, err := json.Marshal(entry); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}

func (s *documentService) OpenFile(ctx context.Context, storageName string) (io.ReadCloser, storage.ObjectInfo, error) {
	rc, info, err := s.store.Get(ctx, storageName)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, storage.ObjectInfo{}, ErrFileNotFound
		}
		return nil, storage.ObjectInfo{}, StorageFailure("open blob", err)
	}
	return rc, info, nil
}

func (s *documentService) OpenDocumentFile(ctx context.Context, id, ownerID string) (io.ReadCloser, storage.ObjectInfo, *model.Document, error) {
	doc, err := s.repo.FindByIDForOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ObjectInfo{}, nil, ErrDocumentNotFound
		}
		return nil, storage.ObjectInfo{}, nil, err
	}
	rc, info, err := s.store.Get(ctx, doc.StorageName)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			// Dangling record: the blob disappeared out from under it.
			return nil, storage.ObjectInfo{}, nil, ErrBlobGone
		}
		return nil, storage.ObjectInfo{}, nil, StorageFailure("open blob", err)
	}
	return rc, info, doc, nil
}
