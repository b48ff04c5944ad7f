package ingest

import "sync"

// Locks serializes work per document path. A scan worker or an
// approval-triggered job acquires the path before touching the document's
// vectors, so two executions for the same document never interleave.
type Locks struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

// NewLocks creates an empty lock set. Share one instance between the
// scanner and any workers operating on the same stores.
func NewLocks() *Locks {
	return &Locks{busy: make(map[string]struct{})}
}

// acquire claims the path. Returns false if another worker holds it.
func (l *Locks) acquire(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.busy[path]; held {
		return false
	}
	l.busy[path] = struct{}{}
	return true
}

// release frees the path for other workers.
func (l *Locks) release(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.busy, path)
}
