package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/scopeworks/kbpipeline/vectorstore"
)

// Index is an in-memory vectorstore.Index backed by a brute-force cosine
// similarity scan. It is intended for tests and small corpora.
type Index struct {
	mu     sync.RWMutex
	points map[string]vectorstore.Point
}

var _ vectorstore.Index = (*Index)(nil)

// New creates an empty in-memory index.
func New() *Index {
	return &Index{points: make(map[string]vectorstore.Point)}
}

// Search implements vectorstore.Index.
func (idx *Index) Search(_ context.Context, vector []float32, topK int, scoreThreshold float32) ([]vectorstore.Match, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	matches := make([]vectorstore.Match, 0)
	for _, p := range idx.points {
		if len(p.Vector) != len(vector) {
			return nil, fmt.Errorf("%w: query %d, stored %d",
				vectorstore.ErrDimensionMismatch, len(vector), len(p.Vector))
		}
		score := cosine(vector, p.Vector)
		if score < scoreThreshold {
			continue
		}
		matches = append(matches, vectorstore.Match{
			PointID: p.ID,
			Score:   score,
			Payload: p.Payload,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Upsert implements vectorstore.Index.
func (idx *Index) Upsert(_ context.Context, points []vectorstore.Point) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, p := range points {
		cp := p
		cp.Vector = append([]float32(nil), p.Vector...)
		idx.points[p.ID] = cp
	}
	return nil
}

// Delete implements vectorstore.Index.
func (idx *Index) Delete(_ context.Context, pointIDs []string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, id := range pointIDs {
		delete(idx.points, id)
	}
	return nil
}

// Close implements vectorstore.Index.
func (idx *Index) Close() error {
	return nil
}

// Len returns the number of stored points.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.points)
}

// IDs returns the ids of all stored points.
func (idx *Index) IDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ids := make([]string, 0, len(idx.points))
	for id := range idx.points {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func cosine(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
