package vectorstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDimensionMismatch indicates a vector whose length does not match
	// the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Payload is the metadata stored alongside one chunk's vector.
type Payload struct {
	DocumentPath string
	DocumentName string
	ChunkIndex   int
	Content      string
	CreatedAt    time.Time
}

// Point is one chunk's embedding plus metadata, as stored in the index.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Match is a single result from a similarity search.
type Match struct {
	PointID string
	Score   float32
	Payload Payload
}

// Index is a technology-agnostic interface for the vector index.
// Implementations must be thread-safe for concurrent use.
type Index interface {
	// Search returns up to topK points whose similarity to the query vector
	// is at least scoreThreshold, ordered by score descending.
	Search(ctx context.Context, vector []float32, topK int, scoreThreshold float32) ([]Match, error)

	// Upsert writes the given points, replacing any existing points with
	// the same ids.
	Upsert(ctx context.Context, points []Point) error

	// Delete removes the points with the given ids. Missing ids are not an
	// error.
	Delete(ctx context.Context, pointIDs []string) error

	// Close releases any resources held by the index.
	Close() error
}
