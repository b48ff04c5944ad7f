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
	"fmt"
	"log/slog"

	"github.com/scopeworks/kbpipeline/ai"
	"github.com/scopeworks/kbpipeline/core"
	"github.com/scopeworks/kbpipeline/storage"
	"github.com/scopeworks/kbpipeline/vectorstore"
)

const (
	// DefaultSimilarityThreshold is the minimum score for an indexed
	// document to count as related to a candidate.
	DefaultSimilarityThreshold float32 = 0.85

	// DefaultDuplicateThreshold is the score above which a candidate is
	// considered a near-duplicate of indexed content.
	DefaultDuplicateThreshold float32 = 0.95

	// classificationSampleRunes bounds how much of a document is embedded
	// for the similarity probe. The head of a document is representative
	// enough and keeps the probe to a single embedding call.
	classificationSampleRunes = 2000

	// classificationTopK is how many index matches the probe considers.
	classificationTopK = 5
)

// Assessment is the outcome of classifying a candidate document against
// the vector index.
type Assessment struct {
	Classification core.Classification
	TopScore       float32
	Related        []core.RelatedDocument
	Reason         string
}

// Classifier probes the vector index with a sample of a candidate document
// and classifies how the candidate relates to already-indexed material.
type Classifier struct {
	embedder  ai.Embedder
	index     vectorstore.Index
	documents storage.DocumentRepository

	similarityThreshold float32
	duplicateThreshold  float32
	logger              *slog.Logger
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithThresholds overrides the similarity and duplicate score thresholds.
func WithThresholds(similarity, duplicate float32) ClassifierOption {
	return func(c *Classifier) {
		c.similarityThreshold = similarity
		c.duplicateThreshold = duplicate
	}
}

// WithClassifierLogger sets a custom logger. Default is slog.Default().
func WithClassifierLogger(logger *slog.Logger) ClassifierOption {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClassifier creates a classifier over the given collaborators.
func NewClassifier(embedder ai.Embedder, index vectorstore.Index, documents storage.DocumentRepository, opts ...ClassifierOption) (*Classifier, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if documents == nil {
		return nil, ErrRepositoryRequired
	}

	c := &Classifier{
		embedder:            embedder,
		index:               index,
		documents:           documents,
		similarityThreshold: DefaultSimilarityThreshold,
		duplicateThreshold:  DefaultDuplicateThreshold,
		logger:              slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Classify embeds a sample of the candidate's text and searches the index
// for related indexed documents. Matches belonging to selfPath are ignored,
// so re-classifying an already-indexed document never matches itself.
// Returns nil when nothing related is indexed.
func (c *Classifier) Classify(ctx context.Context, text, selfPath string) (*Assessment, error) {
	sample := text
	if runes := []rune(sample); len(runes) > classificationSampleRunes {
		sample = string(runes[:classificationSampleRunes])
	}

	vector, err := c.embedder.EmbedText(ctx, sample)
	if err != nil {
		return nil, fmt.Errorf("embedding classification sample: %w", err)
	}

	matches, err := c.index.Search(ctx, vector, classificationTopK, c.similarityThreshold)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	var related []core.RelatedDocument
	for _, match := range matches {
		if match.Payload.DocumentPath == "" || match.Payload.DocumentPath == selfPath {
			continue
		}

		doc, err := c.documents.GetDocument(ctx, match.Payload.DocumentPath)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// The index can briefly hold points for documents whose
				// registry record was removed. Skip them.
				c.logger.Debug("index match without document record", "path", match.Payload.DocumentPath)
				continue
			}
			return nil, err
		}

		related = append(related, core.RelatedDocument{
			DocumentPath: doc.Path,
			DisplayName:  doc.Name,
			Score:        match.Score,
		})
	}

	if len(related) == 0 {
		return nil, nil
	}

	top := related[0].Score
	for _, r := range related[1:] {
		if r.Score > top {
			top = r.Score
		}
	}

	assessment := &Assessment{
		TopScore: top,
		Related:  related,
	}
	switch {
	case top > c.duplicateThreshold:
		assessment.Classification = core.ClassificationDuplicate
		assessment.Reason = fmt.Sprintf("Very high similarity (%.2f%%) with existing document(s)", top*100)
	case top > c.similarityThreshold:
		assessment.Classification = core.ClassificationUpdate
		assessment.Reason = fmt.Sprintf("High similarity (%.2f%%) - possible update to existing content", top*100)
	default:
		assessment.Classification = core.ClassificationNewWithOverlap
		assessment.Reason = "New document with some related content"
	}

	return assessment, nil
}
