package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotExist is returned by Get when no blob is stored under the key,
// regardless of backend.
var ErrNotExist = errors.New("blob does not exist")

// Package storage contains blob storage abstractions. Implementations rely
// on streaming I/O only; callers never get a fully buffered file.

// PutObjectOptions define optional parameters for uploading blobs.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored blob.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a blob store keyed by opaque, system-generated names.
// Constructors return a ready handle: the backing directory or bucket is
// created during initialization, not lazily on first write.
type Storage interface {
	// Put writes a blob under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves a blob's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Exists reports whether a blob is present under the key.
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes a blob by key. Deleting a missing blob is not an error.
	Delete(ctx context.Context, key string) error
	// List returns every stored key. Diagnostic use only.
	List(ctx context.Context) ([]string, error)
}
