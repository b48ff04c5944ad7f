package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/scopeworks/kbpipeline/blobstore"
	"github.com/scopeworks/kbpipeline/core"
	"github.com/scopeworks/kbpipeline/extract"
	"github.com/scopeworks/kbpipeline/queue"
	"github.com/scopeworks/kbpipeline/storage"
)

// Worker drains the vectorization queue, running one chunk-embed-store job
// per approved document.
type Worker struct {
	work       queue.Queue
	blobs      blobstore.Store
	documents  storage.DocumentRepository
	extractor  extract.Extractor
	vectorizer *Vectorizer
	locks      *Locks
	logger     *slog.Logger
}

// NewWorker creates a queue worker. Pass the same lock set as the scanner
// when both run in one process.
func NewWorker(work queue.Queue, blobs blobstore.Store, documents storage.DocumentRepository, extractor extract.Extractor, vectorizer *Vectorizer, locks *Locks, logger *slog.Logger) (*Worker, error) {
	if work == nil {
		return nil, ErrRepositoryRequired
	}
	if blobs == nil {
		return nil, ErrBlobStoreRequired
	}
	if documents == nil || vectorizer == nil {
		return nil, ErrRepositoryRequired
	}
	if extractor == nil {
		extractor = extract.NewTextExtractor()
	}
	if locks == nil {
		locks = NewLocks()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		work:       work,
		blobs:      blobs,
		documents:  documents,
		extractor:  extractor,
		vectorizer: vectorizer,
		locks:      locks,
		logger:     logger,
	}, nil
}

// Run consumes the queue until the context is done or the queue closes.
// Job failures are recorded on the job ledger and logged; they do not stop
// the worker.
func (w *Worker) Run(ctx context.Context) error {
	for {
		path, err := w.work.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		if err := w.ProcessPath(ctx, path); err != nil {
			if errors.Is(err, ErrDocumentBusy) {
				// Another worker holds the document; put it back for later.
				if err := w.work.Enqueue(ctx, path); err != nil {
					w.logger.Warn("failed to re-queue busy document", "path", path, "err", err)
				}
				continue
			}
			w.logger.Error("vectorization job failed", "path", path, "err", err)
		}
	}
}

// ProcessPath fetches the document's current bytes and runs a vectorization
// job for them.
func (w *Worker) ProcessPath(ctx context.Context, path string) error {
	if !w.locks.acquire(path) {
		return ErrDocumentBusy
	}
	defer w.locks.release(path)

	data, err := w.blobs.Read(ctx, path)
	if err != nil {
		return err
	}

	fp := core.FingerprintBytes(data)
	now := time.Now().UTC()

	doc, err := w.documents.GetDocument(ctx, path)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		doc = &core.Document{
			Path:      path,
			Name:      displayName(path),
			FirstSeen: now,
		}
	}

	if doc.Indexed && doc.Hash == fp.Hash && doc.Size == fp.Size {
		w.logger.Debug("document already indexed", "path", path)
		return nil
	}

	doc.Hash = fp.Hash
	doc.Size = fp.Size
	doc.LastChecked = now

	text, err := w.extractor.Extract(ctx, data, doc.Name)
	if err != nil {
		return err
	}
	if len([]rune(strings.TrimSpace(text))) < MinTextLength {
		return ErrTextTooShort
	}

	_, err = w.vectorizer.Process(ctx, doc, text)
	return err
}

func displayName(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
