// Package memory provides an in-process queue driver, used by tests and
// single-binary deployments where scan and worker share a process.
package memory

import (
	"context"
	"sync"

	"github.com/scopeworks/kbpipeline/queue"
)

const defaultCapacity = 256

// Queue is a channel-backed in-process queue. The items channel is never
// closed; shutdown is signalled through done so a sender blocked on a full
// queue unblocks with queue.ErrClosed instead of panicking.
type Queue struct {
	mu     sync.Mutex
	items  chan string
	done   chan struct{}
	closed bool
}

var _ queue.Queue = (*Queue)(nil)

// New creates an in-process queue. A capacity of zero or less uses a
// sensible default.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Queue{
		items: make(chan string, capacity),
		done:  make(chan struct{}),
	}
}

// Enqueue appends a document path to the queue.
func (q *Queue) Enqueue(ctx context.Context, path string) error {
	select {
	case <-q.done:
		return queue.ErrClosed
	default:
	}

	select {
	case q.items <- path:
		return nil
	case <-q.done:
		return queue.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until a path is available, the queue closes, or the
// context is done. Items already enqueued are still delivered after close.
func (q *Queue) Dequeue(ctx context.Context) (string, error) {
	select {
	case path := <-q.items:
		return path, nil
	case <-q.done:
		select {
		case path := <-q.items:
			return path, nil
		default:
			return "", queue.ErrClosed
		}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close closes the queue. Items already enqueued are still delivered.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
	return nil
}
