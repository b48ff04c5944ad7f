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


// Package kbpipeline ingests knowledge-base documents from a blob store,
// deduplicates them against a vector index, and tracks human approval for
// documents that look like updates to existing material.
package kbpipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scopeworks/kbpipeline/ai"
	"github.com/scopeworks/kbpipeline/ai/openai"
	"github.com/scopeworks/kbpipeline/blobstore"
	"github.com/scopeworks/kbpipeline/blobstore/fs"
	"github.com/scopeworks/kbpipeline/blobstore/supabase"
	"github.com/scopeworks/kbpipeline/chunk"
	"github.com/scopeworks/kbpipeline/config"
	"github.com/scopeworks/kbpipeline/core"
	"github.com/scopeworks/kbpipeline/extract"
	"github.com/scopeworks/kbpipeline/ingest"
	"github.com/scopeworks/kbpipeline/queue"
	qmemory "github.com/scopeworks/kbpipeline/queue/memory"
	qredis "github.com/scopeworks/kbpipeline/queue/redis"
	"github.com/scopeworks/kbpipeline/storage"
	"github.com/scopeworks/kbpipeline/storage/badger"
	"github.com/scopeworks/kbpipeline/vectorstore"
	"github.com/scopeworks/kbpipeline/vectorstore/qdrant"
)

// Service wires the pipeline's storage, collaborators and orchestrators
// behind one handle.
type Service struct {
	store     *badger.Store
	blobs     blobstore.Store
	index     vectorstore.Index
	work      queue.Queue
	scanner   *ingest.Scanner
	worker    *ingest.Worker
	approvals *ingest.Approvals
	logger    *slog.Logger
}

// Option configures a Service, mainly to substitute collaborators.
type Option func(*serviceOptions)

type serviceOptions struct {
	store    *badger.Store
	blobs    blobstore.Store
	index    vectorstore.Index
	work     queue.Queue
	embedder ai.Embedder
}

// WithStore substitutes the document registry store.
func WithStore(store *badger.Store) Option {
	return func(o *serviceOptions) { o.store = store }
}

// WithBlobStore substitutes the document blob store.
func WithBlobStore(blobs blobstore.Store) Option {
	return func(o *serviceOptions) { o.blobs = blobs }
}

// WithIndex substitutes the vector index.
func WithIndex(index vectorstore.Index) Option {
	return func(o *serviceOptions) { o.index = index }
}

// WithQueue substitutes the vectorization work queue.
func WithQueue(work queue.Queue) Option {
	return func(o *serviceOptions) { o.work = work }
}

// WithEmbedder substitutes the embedding provider.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(o *serviceOptions) { o.embedder = embedder }
}

// New builds a Service from configuration. Collaborators not overridden by
// options are constructed per the config: BadgerDB registry, Qdrant index,
// OpenAI-compatible embedder, and a filesystem or Supabase blob store.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	options := &serviceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	store := options.store
	if store == nil {
		var err error
		store, err = badger.Open(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening registry: %w", err)
		}
	}

	embedder := options.embedder
	if embedder == nil {
		var err error
		embedder, err = openai.NewEmbedder(ai.NewConfig(
			ai.WithHost(cfg.Embedder.Host),
			ai.WithModel(cfg.Embedder.Model),
			ai.WithAPIKey(cfg.Embedder.APIKey()),
		))
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("creating embedder: %w", err)
		}
	}

	index := options.index
	if index == nil {
		client, err := qdrant.New(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			Collection: cfg.Qdrant.Collection,
			APIKey:     cfg.Qdrant.APIKey,
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("connecting to vector index: %w", err)
		}
		if err := client.EnsureCollection(ctx, cfg.Qdrant.Dimension); err != nil {
			client.Close()
			store.Close()
			return nil, fmt.Errorf("preparing vector collection: %w", err)
		}
		index = client
	}

	blobs := options.blobs
	if blobs == nil {
		var err error
		blobs, err = newBlobStore(cfg.Blobs)
		if err != nil {
			index.Close()
			store.Close()
			return nil, err
		}
	}

	work := options.work
	if work == nil {
		var err error
		work, err = newQueue(ctx, cfg.Queue)
		if err != nil {
			index.Close()
			store.Close()
			return nil, err
		}
	}

	chunker, err := chunk.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		closeAll(work, index, store)
		return nil, err
	}

	classifier, err := ingest.NewClassifier(embedder, index, store,
		ingest.WithThresholds(cfg.Classify.SimilarityThreshold, cfg.Classify.DuplicateThreshold))
	if err != nil {
		closeAll(work, index, store)
		return nil, err
	}

	vectorizer, err := ingest.NewVectorizer(store, store, embedder, index, chunker,
		ingest.WithEmbedBatchSize(cfg.Embedder.BatchSize))
	if err != nil {
		closeAll(work, index, store)
		return nil, err
	}

	approvals, err := ingest.NewApprovals(store, store, work, nil)
	if err != nil {
		closeAll(work, index, store)
		return nil, err
	}

	extractor := extract.NewTextExtractor()
	locks := ingest.NewLocks()

	scannerOpts := []ingest.ScannerOption{ingest.WithLocks(locks)}
	if cfg.Workers > 0 {
		scannerOpts = append(scannerOpts, ingest.WithPoolSize(cfg.Workers))
	}
	scanner, err := ingest.NewScanner(blobs, store, extractor, classifier, vectorizer, approvals, scannerOpts...)
	if err != nil {
		closeAll(work, index, store)
		return nil, err
	}

	worker, err := ingest.NewWorker(work, blobs, store, extractor, vectorizer, locks, nil)
	if err != nil {
		scanner.Release()
		closeAll(work, index, store)
		return nil, err
	}

	return &Service{
		store:     store,
		blobs:     blobs,
		index:     index,
		work:      work,
		scanner:   scanner,
		worker:    worker,
		approvals: approvals,
		logger:    slog.Default(),
	}, nil
}

func newBlobStore(cfg config.BlobConfig) (blobstore.Store, error) {
	switch cfg.Type {
	case "fs":
		return fs.New(cfg.Dir)
	case "supabase":
		return supabase.New(supabase.Config{
			URL:    cfg.URL,
			APIKey: cfg.BlobAPIKey(),
			Bucket: cfg.Bucket,
		})
	default:
		return nil, fmt.Errorf("unknown blob store type %q", cfg.Type)
	}
}

func newQueue(ctx context.Context, cfg config.QueueConfig) (queue.Queue, error) {
	switch cfg.Type {
	case "memory":
		return qmemory.New(0), nil
	case "redis":
		return qredis.New(ctx, qredis.Config{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			Key:      cfg.Key,
		})
	default:
		return nil, fmt.Errorf("unknown queue type %q", cfg.Type)
	}
}

func closeAll(work queue.Queue, index vectorstore.Index, store *badger.Store) {
	if work != nil {
		work.Close()
	}
	index.Close()
	store.Close()
}

// Scan walks the blob store once, indexing new material and raising review
// tickets for documents similar to indexed content.
func (s *Service) Scan(ctx context.Context) (*core.ScanStats, error) {
	return s.scanner.Scan(ctx)
}

// Enqueue queues a document path for vectorization without review.
func (s *Service) Enqueue(ctx context.Context, path string) error {
	return s.work.Enqueue(ctx, path)
}

// RunWorker consumes the vectorization queue until the context is done or
// the queue closes.
func (s *Service) RunWorker(ctx context.Context) error {
	return s.worker.Run(ctx)
}

// Approve resolves a review ticket as approved and queues the document.
func (s *Service) Approve(ctx context.Context, ticketID, reviewer, comment string) (*core.PendingApproval, error) {
	return s.approvals.Approve(ctx, ticketID, reviewer, comment)
}

// Reject resolves a review ticket as rejected.
func (s *Service) Reject(ctx context.Context, ticketID, reviewer, comment string) (*core.PendingApproval, error) {
	return s.approvals.Reject(ctx, ticketID, reviewer, comment)
}

// PendingApprovals returns all open review tickets, newest first.
func (s *Service) PendingApprovals(ctx context.Context) ([]*core.PendingApproval, error) {
	return s.approvals.Pending(ctx)
}

// ReconcileApproved re-queues approved documents whose vectorization never
// completed.
func (s *Service) ReconcileApproved(ctx context.Context) (int, error) {
	return s.approvals.ReconcileApproved(ctx)
}

// Documents returns the registry of known documents.
func (s *Service) Documents(ctx context.Context) ([]*core.Document, error) {
	return s.store.ListDocuments(ctx)
}

// Jobs returns the vectorization jobs recorded for a document, newest first.
func (s *Service) Jobs(ctx context.Context, path string) ([]*core.VectorizationJob, error) {
	return s.store.JobsForDocument(ctx, path)
}

// Repository exposes the underlying storage for advanced callers.
func (s *Service) Repository() storage.Repository {
	return s.store
}

// Close releases the scanner pool and closes the queue, index and registry.
func (s *Service) Close() error {
	s.scanner.Release()

	if err := s.work.Close(); err != nil {
		s.logger.Error("error closing work queue", "err", err)
	}
	if err := s.index.Close(); err != nil {
		s.logger.Error("error closing vector index", "err", err)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing registry", "err", err)
		return err
	}
	return nil
}
