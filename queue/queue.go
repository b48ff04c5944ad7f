// Package queue defines the work queue that carries approved documents to
// the vectorization worker. Drivers live in subpackages.
package queue

import (
	"context"
	"errors"
)

// ErrClosed is returned when operating on a closed queue.
var ErrClosed = errors.New("queue is closed")

// Queue is a FIFO of document paths awaiting vectorization.
type Queue interface {
	// Enqueue appends a document path to the queue.
	Enqueue(ctx context.Context, path string) error

	// Dequeue blocks until a path is available or the context is done.
	Dequeue(ctx context.Context) (string, error)

	// Close releases the queue's resources. Blocked Dequeue calls return
	// ErrClosed.
	Close() error
}
