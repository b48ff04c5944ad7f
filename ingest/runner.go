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
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/scopeworks/kbpipeline/ai"
	"github.com/scopeworks/kbpipeline/chunk"
	"github.com/scopeworks/kbpipeline/core"
	"github.com/scopeworks/kbpipeline/storage"
	"github.com/scopeworks/kbpipeline/vectorstore"
)

const (
	// MinTextLength is the minimum number of runes a document must yield
	// after extraction to be worth indexing.
	MinTextLength = 50

	// payloadContentRunes bounds how much chunk text is stored in a
	// point's payload for preview purposes.
	payloadContentRunes = 1000

	defaultEmbedBatchSize = 32
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
)

// Vectorizer executes one chunk-embed-store pass for a document and records
// it as a vectorization job. A run is all-or-nothing: on any failure the
// document's registry record and its existing index points are left exactly
// as they were, and the job record carries the failure.
type Vectorizer struct {
	documents storage.DocumentRepository
	jobs      storage.JobRepository
	embedder  ai.Embedder
	index     vectorstore.Index
	chunker   *chunk.Chunker

	batchSize     int
	retryAttempts int
	retryDelay    time.Duration
	logger        *slog.Logger
}

// VectorizerOption configures a Vectorizer.
type VectorizerOption func(*Vectorizer)

// WithEmbedBatchSize sets how many chunks are embedded per provider call.
func WithEmbedBatchSize(size int) VectorizerOption {
	return func(v *Vectorizer) {
		if size > 0 {
			v.batchSize = size
		}
	}
}

// WithRetry configures retry behavior for embedding calls.
func WithRetry(maxAttempts int, baseDelay time.Duration) VectorizerOption {
	return func(v *Vectorizer) {
		if maxAttempts > 0 {
			v.retryAttempts = maxAttempts
		}
		if baseDelay > 0 {
			v.retryDelay = baseDelay
		}
	}
}

// WithVectorizerLogger sets a custom logger. Default is slog.Default().
func WithVectorizerLogger(logger *slog.Logger) VectorizerOption {
	return func(v *Vectorizer) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewVectorizer creates a vectorizer over the given collaborators.
func NewVectorizer(documents storage.DocumentRepository, jobs storage.JobRepository, embedder ai.Embedder, index vectorstore.Index, chunker *chunk.Chunker, opts ...VectorizerOption) (*Vectorizer, error) {
	if documents == nil || jobs == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if chunker == nil {
		var err error
		chunker, err = chunk.New(chunk.DefaultSize, chunk.DefaultOverlap)
		if err != nil {
			return nil, err
		}
	}

	v := &Vectorizer{
		documents:     documents,
		jobs:          jobs,
		embedder:      embedder,
		index:         index,
		chunker:       chunker,
		batchSize:     defaultEmbedBatchSize,
		retryAttempts: defaultRetryAttempts,
		retryDelay:    defaultRetryBaseDelay,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Process chunks the text, embeds the chunks, stores the new points, and
// only then removes the document's previous points and updates its registry
// record. The caller passes the document record with its current fingerprint
// already set; Process fills in the indexing fields on success.
func (v *Vectorizer) Process(ctx context.Context, doc *core.Document, text string) (*core.VectorizationJob, error) {
	job := &core.VectorizationJob{
		ID:           uuid.NewString(),
		DocumentPath: doc.Path,
		State:        core.JobStateProcessing,
		StartedAt:    time.Now().UTC(),
	}
	if err := v.jobs.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	if err := v.process(ctx, doc, text, job); err != nil {
		v.failJob(ctx, job, err)
		return job, err
	}

	job.State = core.JobStateCompleted
	job.CompletedAt = time.Now().UTC()
	if err := v.jobs.UpdateJob(ctx, job); err != nil {
		v.logger.Error("failed to record job completion", "job", job.ID, "err", err)
	}

	v.logger.Info("document vectorized", "path", doc.Path, "vectors", job.VectorsCreated)
	return job, nil
}

func (v *Vectorizer) process(ctx context.Context, doc *core.Document, text string, job *core.VectorizationJob) error {
	chunks := v.chunker.Split(text)
	job.ChunksProcessed = len(chunks)
	if len(chunks) == 0 {
		return ErrTextTooShort
	}

	vectors, err := v.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: expected %d vectors, got %d", core.ErrVectorCountMismatch, len(chunks), len(vectors))
	}

	now := time.Now().UTC()
	points := make([]vectorstore.Point, len(chunks))
	for i, chunkText := range chunks {
		content := chunkText
		if runes := []rune(content); len(runes) > payloadContentRunes {
			content = string(runes[:payloadContentRunes])
		}
		points[i] = vectorstore.Point{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: vectorstore.Payload{
				DocumentPath: doc.Path,
				DocumentName: doc.Name,
				ChunkIndex:   i,
				Content:      content,
				CreatedAt:    now,
			},
		}
	}

	// Record the IDs on the job before anything hits the index, so points
	// orphaned by a failure further down stay findable through the job.
	pointIDs := make([]string, len(points))
	for i, p := range points {
		pointIDs[i] = p.ID
	}
	job.PointIDs = pointIDs
	if err := v.jobs.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("recording point ids: %w", err)
	}

	if err := v.index.Upsert(ctx, points); err != nil {
		return fmt.Errorf("storing vectors: %w", err)
	}

	// New points are live; the previous generation can go. A failure here
	// leaves orphaned points behind, still listed on the prior job record.
	oldPointIDs := doc.PointIDs
	if len(oldPointIDs) > 0 {
		if err := v.index.Delete(ctx, oldPointIDs); err != nil {
			v.logger.Warn("failed to remove superseded vectors", "path", doc.Path, "count", len(oldPointIDs), "err", err)
		}
	}

	doc.Indexed = true
	doc.IndexedAt = now
	doc.VectorCount = len(points)
	doc.PointIDs = pointIDs

	if err := v.documents.UpsertDocument(ctx, doc); err != nil {
		return err
	}

	job.VectorsCreated = len(points)
	return nil
}

func (v *Vectorizer) embedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))

	for start := 0; start < len(chunks); start += v.batchSize {
		end := start + v.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		var batchVectors [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var embedErr error
			batchVectors, embedErr = v.embedder.EmbedTexts(ctx, batch)
			return embedErr
		}, v.retryAttempts, v.retryDelay)
		if err != nil {
			return nil, fmt.Errorf("embedding chunks %d-%d: %w", start, end-1, err)
		}

		vectors = append(vectors, batchVectors...)
	}

	return vectors, nil
}

func (v *Vectorizer) failJob(ctx context.Context, job *core.VectorizationJob, cause error) {
	job.State = core.JobStateFailed
	job.ErrorMessage = cause.Error()
	job.CompletedAt = time.Now().UTC()
	if err := v.jobs.UpdateJob(ctx, job); err != nil {
		v.logger.Error("failed to record job failure", "job", job.ID, "err", err)
	}
	v.logger.Error("vectorization failed", "path", job.DocumentPath, "job", job.ID, "err", cause)
}
