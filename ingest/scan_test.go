package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopeworks/kbpipeline/ai/mock"
	"github.com/scopeworks/kbpipeline/blobstore/fs"
	"github.com/scopeworks/kbpipeline/chunk"
	"github.com/scopeworks/kbpipeline/core"
	qmemory "github.com/scopeworks/kbpipeline/queue/memory"
	"github.com/scopeworks/kbpipeline/storage/badger"
	"github.com/scopeworks/kbpipeline/vectorstore/memory"
)

type scanEnv struct {
	dir      string
	store    *badger.Store
	index    *memory.Index
	embedder *mock.Embedder
	work     *qmemory.Queue
	scanner  *Scanner
	worker   *Worker
}

func newScanEnv(t *testing.T) *scanEnv {
	t.Helper()

	dir := t.TempDir()
	blobs, err := fs.New(dir)
	require.NoError(t, err)

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	index := memory.New()
	embedder := mock.NewEmbedder()

	chunker, err := chunk.New(200, 40)
	require.NoError(t, err)

	classifier, err := NewClassifier(embedder, index, store)
	require.NoError(t, err)

	vectorizer, err := NewVectorizer(store, store, embedder, index, chunker,
		WithRetry(1, time.Millisecond))
	require.NoError(t, err)

	work := qmemory.New(16)
	t.Cleanup(func() { work.Close() })

	approvals, err := NewApprovals(store, store, work, nil)
	require.NoError(t, err)

	locks := NewLocks()
	scanner, err := NewScanner(blobs, store, nil, classifier, vectorizer, approvals,
		WithPoolSize(2), WithLocks(locks))
	require.NoError(t, err)
	t.Cleanup(scanner.Release)

	worker, err := NewWorker(work, blobs, store, nil, vectorizer, locks, nil)
	require.NoError(t, err)

	return &scanEnv{
		dir:      dir,
		store:    store,
		index:    index,
		embedder: embedder,
		work:     work,
		scanner:  scanner,
		worker:   worker,
	}
}

func (e *scanEnv) writeFile(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// useConstantVectors makes every embedding identical, so any two documents
// look like near-duplicates of each other.
func (e *scanEnv) useConstantVectors() {
	e.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}
	e.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0}
		}
		return out, nil
	}
}

const sampleTextA = `Deployment guide for the billing service. Provision the database first,
then apply migrations, then roll the pods. Rollbacks follow the reverse order.
Always verify the health endpoint before routing production traffic.`

const sampleTextB = `Incident response playbook. Page the on-call engineer, open a tracking
channel, and capture a timeline as events unfold. Postmortems are due within
five working days and must list every contributing cause.`

func TestScanIndexesNewDocuments(t *testing.T) {
	env := newScanEnv(t)
	env.writeFile(t, "guides/deploy.txt", sampleTextA)
	env.writeFile(t, "runbooks/incident.md", sampleTextB)
	ctx := context.Background()

	stats, err := env.scanner.Scan(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Scanned)
	assert.Equal(t, 2, stats.New)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 0, stats.PendingApproval)

	for _, path := range []string{"guides/deploy.txt", "runbooks/incident.md"} {
		doc, err := env.store.GetDocument(ctx, path)
		require.NoError(t, err)
		assert.True(t, doc.Indexed, path)
		assert.NotEmpty(t, doc.PointIDs, path)
	}
	assert.Greater(t, env.index.Len(), 0)
}

func TestScanIsIdempotent(t *testing.T) {
	env := newScanEnv(t)
	env.writeFile(t, "a.txt", sampleTextA)
	ctx := context.Background()

	_, err := env.scanner.Scan(ctx)
	require.NoError(t, err)
	indexed := env.index.Len()

	stats, err := env.scanner.Scan(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Scanned)
	assert.Equal(t, 0, stats.New)
	assert.Equal(t, 0, stats.Updated)
	assert.Equal(t, 0, stats.PendingApproval)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, indexed, env.index.Len())
}

func TestScanReindexesChangedDocument(t *testing.T) {
	env := newScanEnv(t)
	env.writeFile(t, "a.txt", sampleTextA)
	ctx := context.Background()

	_, err := env.scanner.Scan(ctx)
	require.NoError(t, err)

	first, err := env.store.GetDocument(ctx, "a.txt")
	require.NoError(t, err)
	oldPoints := first.PointIDs

	env.writeFile(t, "a.txt", sampleTextB)
	stats, err := env.scanner.Scan(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 0, stats.New)
	assert.Equal(t, 0, stats.PendingApproval)

	second, err := env.store.GetDocument(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, core.FingerprintBytes([]byte(sampleTextB)).Hash, second.Hash)
	assert.True(t, second.Indexed)

	// The previous generation of points is gone from the index.
	current := env.index.IDs()
	for _, old := range oldPoints {
		assert.NotContains(t, current, old)
	}
}

func TestScanFlagsSimilarDocument(t *testing.T) {
	env := newScanEnv(t)
	env.useConstantVectors()
	ctx := context.Background()

	env.writeFile(t, "a.txt", sampleTextA)
	_, err := env.scanner.Scan(ctx)
	require.NoError(t, err)
	indexed := env.index.Len()

	env.writeFile(t, "b.txt", sampleTextB)
	stats, err := env.scanner.Scan(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.PendingApproval)
	assert.Equal(t, 0, stats.New)
	assert.Equal(t, 0, stats.Failed)

	ticket, err := env.store.OpenApprovalForDocument(ctx, "b.txt")
	require.NoError(t, err)
	assert.Equal(t, core.ClassificationDuplicate, ticket.Classification)
	require.NotEmpty(t, ticket.Related)
	assert.Equal(t, "a.txt", ticket.Related[0].DocumentPath)

	// The flagged document was registered but not vectorized.
	doc, err := env.store.GetDocument(ctx, "b.txt")
	require.NoError(t, err)
	assert.False(t, doc.Indexed)
	assert.Equal(t, indexed, env.index.Len())
}

func TestScanDoesNotDuplicateOpenTickets(t *testing.T) {
	env := newScanEnv(t)
	env.useConstantVectors()
	ctx := context.Background()

	env.writeFile(t, "a.txt", sampleTextA)
	_, err := env.scanner.Scan(ctx)
	require.NoError(t, err)

	env.writeFile(t, "b.txt", sampleTextB)
	stats, err := env.scanner.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PendingApproval)

	// Re-scanning unchanged content under review is a no-op: no new
	// ticket, no stat, not even an embedding call.
	calls := env.embedder.CallCount()
	stats, err = env.scanner.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.PendingApproval)
	assert.Equal(t, 0, stats.New)
	assert.Equal(t, 0, stats.Updated)
	assert.Equal(t, calls, env.embedder.CallCount())

	tickets, err := env.store.ApprovalsForDocument(ctx, "b.txt")
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
}

func TestScanSkipsDocumentsWithoutText(t *testing.T) {
	env := newScanEnv(t)
	env.writeFile(t, "stub.txt", "too short")
	ctx := context.Background()

	stats, err := env.scanner.Scan(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, env.index.Len())

	// The registry still notes the document was seen.
	doc, err := env.store.GetDocument(ctx, "stub.txt")
	require.NoError(t, err)
	assert.False(t, doc.Indexed)
}

func TestScanProceedsWhenClassifierFails(t *testing.T) {
	env := newScanEnv(t)
	env.writeFile(t, "a.txt", sampleTextA)
	ctx := context.Background()

	// Single-text embedding powers the similarity probe; batch embedding
	// powers vectorization. Fail only the probe.
	env.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, assert.AnError
	}

	stats, err := env.scanner.Scan(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.New)
	assert.Equal(t, 0, stats.PendingApproval)

	doc, err := env.store.GetDocument(ctx, "a.txt")
	require.NoError(t, err)
	assert.True(t, doc.Indexed)
}
