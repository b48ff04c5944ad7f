package kbpipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopeworks/kbpipeline/ai/mock"
	"github.com/scopeworks/kbpipeline/blobstore/fs"
	"github.com/scopeworks/kbpipeline/config"
	"github.com/scopeworks/kbpipeline/core"
	qmemory "github.com/scopeworks/kbpipeline/queue/memory"
	"github.com/scopeworks/kbpipeline/storage/badger"
	"github.com/scopeworks/kbpipeline/vectorstore/memory"
)

func newTestService(t *testing.T, embedder *mock.Embedder) (*Service, string, *qmemory.Queue) {
	t.Helper()

	dir := t.TempDir()
	blobs, err := fs.New(dir)
	require.NoError(t, err)

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)

	work := qmemory.New(16)

	svc, err := New(context.Background(), config.Default(),
		WithStore(store),
		WithBlobStore(blobs),
		WithIndex(memory.New()),
		WithQueue(work),
		WithEmbedder(embedder),
	)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	return svc, dir, work
}

func writeBlob(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

const serviceDocText = `Operations manual for the knowledge-base ingestion service. Documents are
fingerprinted, chunked along sentence boundaries, embedded, and stored in the
vector index together with a registry record describing their provenance.`

const serviceOtherText = `Quarterly planning notes. Budget review happens in the first week, headcount
planning in the second, and the roadmap is frozen by the end of the month for
the following quarter's execution cycle.`

func TestServiceScanAndQuery(t *testing.T) {
	svc, dir, _ := newTestService(t, mock.NewEmbedder())
	ctx := context.Background()

	writeBlob(t, dir, "manual.txt", serviceDocText)
	writeBlob(t, dir, "notes/planning.md", serviceOtherText)

	stats, err := svc.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Scanned)
	assert.Equal(t, 2, stats.New)

	docs, err := svc.Documents(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	jobs, err := svc.Jobs(ctx, "manual.txt")
	require.NoError(t, err)
	require.NotEmpty(t, jobs)
	assert.Equal(t, core.JobStateCompleted, jobs[0].State)
}

func TestServiceApprovalFlow(t *testing.T) {
	embedder := mock.NewEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0}
		}
		return out, nil
	}
	svc, dir, work := newTestService(t, embedder)
	ctx := context.Background()

	writeBlob(t, dir, "manual.txt", serviceDocText)
	_, err := svc.Scan(ctx)
	require.NoError(t, err)

	writeBlob(t, dir, "copy.txt", serviceOtherText)
	stats, err := svc.Scan(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.PendingApproval)

	pending, err := svc.PendingApprovals(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "copy.txt", pending[0].DocumentPath)

	_, err = svc.Approve(ctx, pending[0].ID, "admin", "approved for indexing")
	require.NoError(t, err)

	// Drain the queue, then let the worker exit.
	require.NoError(t, work.Close())
	require.NoError(t, svc.RunWorker(ctx))

	docs, err := svc.Documents(ctx)
	require.NoError(t, err)
	for _, doc := range docs {
		assert.True(t, doc.Indexed, doc.Path)
	}

	pending, err = svc.PendingApprovals(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestServiceRejectFlow(t *testing.T) {
	embedder := mock.NewEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{1, 0}
		}
		return out, nil
	}
	svc, dir, _ := newTestService(t, embedder)
	ctx := context.Background()

	writeBlob(t, dir, "manual.txt", serviceDocText)
	_, err := svc.Scan(ctx)
	require.NoError(t, err)

	writeBlob(t, dir, "copy.txt", serviceOtherText)
	_, err = svc.Scan(ctx)
	require.NoError(t, err)

	pending, err := svc.PendingApprovals(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = svc.Reject(ctx, pending[0].ID, "admin", "duplicate")
	require.NoError(t, err)

	docs, err := svc.Documents(ctx)
	require.NoError(t, err)
	for _, doc := range docs {
		if doc.Path == "copy.txt" {
			assert.False(t, doc.Indexed)
		}
	}
}

func TestServiceUnknownBlobType(t *testing.T) {
	cfg := config.Default()
	cfg.Blobs.Type = "ftp"

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)

	_, err = New(context.Background(), cfg,
		WithStore(store),
		WithIndex(memory.New()),
		WithQueue(qmemory.New(1)),
		WithEmbedder(mock.NewEmbedder()),
	)
	require.Error(t, err)
}
