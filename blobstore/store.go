package blobstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the requested object does not exist in the store.
	ErrNotFound = errors.New("object not found")
)

// Object describes one document in the store.
type Object struct {
	// Name is the display name (the final path element).
	Name string
	// Path is the opaque key used to read the object back.
	Path string
	// Size is the object's byte length, when the backend reports it.
	Size int64
}

// Store provides read-only access to the document store.
// The ingestion pipeline never mutates the store.
// Implementations must be thread-safe for concurrent use.
type Store interface {
	// List returns all objects under the given prefix, recursively.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Read returns the raw bytes of the object at path.
	// Returns ErrNotFound if the object does not exist.
	Read(ctx context.Context, path string) ([]byte, error)
}
