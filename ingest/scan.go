// Copyright 2026 Scopeworks
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingest

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/scopeworks/kbpipeline/blobstore"
	"github.com/scopeworks/kbpipeline/core"
	"github.com/scopeworks/kbpipeline/extract"
	"github.com/scopeworks/kbpipeline/storage"
)

// Scanner walks the blob store and drives each document through
// fingerprinting, classification, and either vectorization or a review
// ticket. Documents are processed concurrently; each document's writes are
// confined to its own records, so a failure in one never corrupts another.
type Scanner struct {
	blobs      blobstore.Store
	documents  storage.DocumentRepository
	extractor  extract.Extractor
	classifier *Classifier
	vectorizer *Vectorizer
	approvals  *Approvals

	pool   *ants.Pool
	locks  *Locks
	logger *slog.Logger
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) ScannerOption {
	return func(s *Scanner) error {
		if size < 1 {
			size = 1
		}
		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ScannerOption {
	return func(s *Scanner) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithLocks shares a lock set with other components, so scan workers and
// approval-triggered jobs never process the same document concurrently.
func WithLocks(locks *Locks) ScannerOption {
	return func(s *Scanner) error {
		if locks != nil {
			s.locks = locks
		}
		return nil
	}
}

// NewScanner creates a scan orchestrator over the given collaborators.
func NewScanner(
	blobs blobstore.Store,
	documents storage.DocumentRepository,
	extractor extract.Extractor,
	classifier *Classifier,
	vectorizer *Vectorizer,
	approvals *Approvals,
	opts ...ScannerOption,
) (*Scanner, error) {
	if blobs == nil {
		return nil, ErrBlobStoreRequired
	}
	if documents == nil {
		return nil, ErrRepositoryRequired
	}
	if extractor == nil {
		extractor = extract.NewTextExtractor()
	}
	if classifier == nil || vectorizer == nil || approvals == nil {
		return nil, ErrRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	s := &Scanner{
		blobs:      blobs,
		documents:  documents,
		extractor:  extractor,
		classifier: classifier,
		vectorizer: vectorizer,
		approvals:  approvals,
		pool:       pool,
		locks:      NewLocks(),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			s.Release()
			return nil, optErr
		}
	}

	return s, nil
}

// Scan lists the blob store and processes every document, returning
// aggregate counts. Cancelling the context stops new documents from being
// picked up; documents already in flight run to completion so their
// all-or-nothing guarantees hold.
func (s *Scanner) Scan(ctx context.Context) (*core.ScanStats, error) {
	s.logger.Info("starting document scan")

	objects, err := s.blobs.List(ctx, "")
	if err != nil {
		return nil, err
	}

	stats := &core.ScanStats{Scanned: len(objects)}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, obj := range objects {
		select {
		case <-ctx.Done():
			wg.Wait()
			return stats, ctx.Err()
		default:
		}

		obj := obj
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			outcome := s.processObject(ctx, obj)
			mu.Lock()
			switch outcome {
			case outcomeNew:
				stats.New++
			case outcomeUpdated:
				stats.Updated++
			case outcomePending:
				stats.PendingApproval++
			case outcomeFailed:
				stats.Failed++
			}
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return stats, err
		}
	}

	wg.Wait()
	s.logger.Info("scan completed",
		"scanned", stats.Scanned,
		"new", stats.New,
		"updated", stats.Updated,
		"pending", stats.PendingApproval,
		"failed", stats.Failed)
	return stats, nil
}

// Release releases the worker pool.
// The scanner should not be used after calling Release.
func (s *Scanner) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

type scanOutcome int

const (
	outcomeSkipped scanOutcome = iota
	outcomeNew
	outcomeUpdated
	outcomePending
	outcomeFailed
)

func (s *Scanner) processObject(ctx context.Context, obj blobstore.Object) scanOutcome {
	if !s.locks.acquire(obj.Path) {
		s.logger.Debug("document busy, skipping", "path", obj.Path)
		return outcomeSkipped
	}
	defer s.locks.release(obj.Path)

	data, err := s.blobs.Read(ctx, obj.Path)
	if err != nil {
		s.logger.Warn("could not read document", "path", obj.Path, "err", err)
		return outcomeFailed
	}

	fp := core.FingerprintBytes(data)
	now := time.Now().UTC()

	doc, err := s.documents.GetDocument(ctx, obj.Path)
	outcome := outcomeNew
	switch {
	case err == nil:
		if doc.Hash == fp.Hash && doc.Size == fp.Size {
			if doc.Indexed {
				doc.LastChecked = now
				if err := s.documents.UpsertDocument(ctx, doc); err != nil {
					s.logger.Warn("failed to touch document record", "path", obj.Path, "err", err)
				}
				s.logger.Debug("skipping unchanged document", "path", obj.Path)
				return outcomeSkipped
			}
			hold, holdErr := s.approvals.OnHold(ctx, obj.Path, fp.Hash)
			if holdErr != nil {
				s.logger.Error("failed to check review state", "path", obj.Path, "err", holdErr)
				return outcomeFailed
			}
			if hold {
				// A ticket covers this exact content: either review is
				// still open, or the verdict stands until the bytes change.
				doc.LastChecked = now
				if err := s.documents.UpsertDocument(ctx, doc); err != nil {
					s.logger.Warn("failed to touch document record", "path", obj.Path, "err", err)
				}
				s.logger.Debug("content under review, skipping", "path", obj.Path)
				return outcomeSkipped
			}
			// Unchanged bytes, no vectors, no ticket for them: a previous
			// run failed or was interrupted. Process again.
			outcome = outcomeUpdated
		} else {
			s.logger.Info("document changed", "path", obj.Path)
			outcome = outcomeUpdated
		}
		doc.Hash = fp.Hash
		doc.Size = fp.Size
		doc.Name = obj.Name
		doc.LastChecked = now
	case errors.Is(err, storage.ErrNotFound):
		doc = &core.Document{
			Path:        obj.Path,
			Name:        obj.Name,
			Hash:        fp.Hash,
			Size:        fp.Size,
			FirstSeen:   now,
			LastChecked: now,
		}
		s.logger.Info("new document found", "path", obj.Path)
	default:
		s.logger.Error("failed to look up document", "path", obj.Path, "err", err)
		return outcomeFailed
	}

	if err := s.documents.UpsertDocument(ctx, doc); err != nil {
		s.logger.Error("failed to persist document record", "path", obj.Path, "err", err)
		return outcomeFailed
	}

	text, err := s.extractor.Extract(ctx, data, obj.Name)
	if err != nil {
		s.logger.Warn("text extraction failed", "path", obj.Path, "err", err)
		return outcomeFailed
	}
	if len([]rune(strings.TrimSpace(text))) < MinTextLength {
		s.logger.Warn("no meaningful text extracted", "path", obj.Path)
		return outcomeFailed
	}

	// A classification error must not block ingestion: without an index
	// verdict the document is treated as new material.
	assessment, err := s.classifier.Classify(ctx, text, obj.Path)
	if err != nil {
		s.logger.Warn("similarity check failed", "path", obj.Path, "err", err)
		assessment = nil
	}

	if assessment != nil {
		if _, err := s.approvals.Raise(ctx, doc, assessment); err != nil {
			if errors.Is(err, storage.ErrOpenTicketExists) {
				s.logger.Debug("approval already pending", "path", obj.Path)
				return outcomePending
			}
			s.logger.Error("failed to create approval ticket", "path", obj.Path, "err", err)
			return outcomeFailed
		}
		s.logger.Info("pending admin approval",
			"path", obj.Path,
			"related", len(assessment.Related))
		return outcomePending
	}

	if _, err := s.vectorizer.Process(ctx, doc, text); err != nil {
		return outcomeFailed
	}
	return outcome
}
