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
	"time"

	"github.com/google/uuid"
	"github.com/scopeworks/kbpipeline/core"
	"github.com/scopeworks/kbpipeline/queue"
	"github.com/scopeworks/kbpipeline/storage"
)

// Approvals manages the human-review lifecycle of flagged documents.
// A ticket's resolution is committed to storage before any vectorization
// is triggered, so a crash between the two leaves an approved ticket whose
// work ReconcileApproved can recover, never a vectorized document whose
// ticket still looks pending.
type Approvals struct {
	approvals storage.ApprovalRepository
	documents storage.DocumentRepository
	work      queue.Queue
	logger    *slog.Logger
}

// NewApprovals creates the approvals service.
func NewApprovals(approvals storage.ApprovalRepository, documents storage.DocumentRepository, work queue.Queue, logger *slog.Logger) (*Approvals, error) {
	if approvals == nil || documents == nil {
		return nil, ErrRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Approvals{
		approvals: approvals,
		documents: documents,
		work:      work,
		logger:    logger,
	}, nil
}

// Raise opens a review ticket for a flagged candidate. Returns
// storage.ErrOpenTicketExists when the document already has an open ticket.
func (a *Approvals) Raise(ctx context.Context, doc *core.Document, assessment *Assessment) (*core.PendingApproval, error) {
	ticket := &core.PendingApproval{
		ID:             uuid.NewString(),
		DocumentPath:   doc.Path,
		ContentHash:    doc.Hash,
		Related:        assessment.Related,
		Classification: assessment.Classification,
		TopScore:       assessment.TopScore,
		Reason:         assessment.Reason,
		Status:         core.ApprovalStatusPending,
		CreatedAt:      time.Now().UTC(),
	}

	if err := a.approvals.CreateApproval(ctx, ticket); err != nil {
		return nil, err
	}

	a.logger.Info("created pending approval",
		"path", doc.Path,
		"classification", assessment.Classification,
		"score", assessment.TopScore)
	return ticket, nil
}

// Approve resolves the ticket as approved and queues the document for
// vectorization. The resolution is durable even if queueing fails; the
// reconciliation sweep picks up approved documents that never ran.
func (a *Approvals) Approve(ctx context.Context, id, reviewer, comment string) (*core.PendingApproval, error) {
	ticket, err := a.resolve(ctx, id, core.ApprovalStatusApproved, reviewer, comment)
	if err != nil {
		return nil, err
	}

	if a.work != nil {
		if err := a.work.Enqueue(ctx, ticket.DocumentPath); err != nil {
			a.logger.Warn("approved but failed to queue for vectorization",
				"path", ticket.DocumentPath, "err", err)
			return ticket, fmt.Errorf("queueing approved document: %w", err)
		}
	}

	return ticket, nil
}

// Reject resolves the ticket as rejected. The document's existing vectors,
// if any, are left untouched.
func (a *Approvals) Reject(ctx context.Context, id, reviewer, comment string) (*core.PendingApproval, error) {
	return a.resolve(ctx, id, core.ApprovalStatusRejected, reviewer, comment)
}

func (a *Approvals) resolve(ctx context.Context, id string, status core.ApprovalStatus, reviewer, comment string) (*core.PendingApproval, error) {
	ticket, err := a.approvals.GetApproval(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ticket.Resolve(status, reviewer, comment, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := a.approvals.UpdateApproval(ctx, ticket); err != nil {
		return nil, err
	}

	a.logger.Info("approval resolved", "ticket", id, "status", status, "reviewer", reviewer)
	return ticket, nil
}

// OnHold reports whether the document's current content already has a
// review verdict in flight or on record: an open ticket exists, or the
// latest ticket was raised for this same fingerprint. Rejected content
// stays out of the index until it changes; approved-but-unindexed content
// is recovered by ReconcileApproved, not by re-scanning.
func (a *Approvals) OnHold(ctx context.Context, path, hash string) (bool, error) {
	_, err := a.approvals.OpenApprovalForDocument(ctx, path)
	switch {
	case err == nil:
		return true, nil
	case !errors.Is(err, storage.ErrNotFound):
		return false, err
	}

	history, err := a.approvals.ApprovalsForDocument(ctx, path)
	if err != nil {
		return false, err
	}
	if len(history) == 0 {
		return false, nil
	}
	return history[0].ContentHash == hash, nil
}

// Pending returns all open tickets, newest first.
func (a *Approvals) Pending(ctx context.Context) ([]*core.PendingApproval, error) {
	return a.approvals.ListApprovals(ctx, core.ApprovalStatusPending)
}

// ReconcileApproved re-queues approved documents whose vectorization never
// completed, covering crashes between ticket resolution and job execution.
// Returns the number of documents queued.
func (a *Approvals) ReconcileApproved(ctx context.Context) (int, error) {
	if a.work == nil {
		return 0, nil
	}

	approved, err := a.approvals.ListApprovals(ctx, core.ApprovalStatusApproved)
	if err != nil {
		return 0, err
	}

	queued := 0
	seen := make(map[string]struct{})
	for _, ticket := range approved {
		if _, done := seen[ticket.DocumentPath]; done {
			continue
		}
		seen[ticket.DocumentPath] = struct{}{}

		doc, err := a.documents.GetDocument(ctx, ticket.DocumentPath)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return queued, err
		}
		if doc.Indexed && !doc.IndexedAt.Before(ticket.ReviewedAt) {
			continue
		}

		if err := a.work.Enqueue(ctx, ticket.DocumentPath); err != nil {
			return queued, err
		}
		queued++
		a.logger.Info("re-queued approved document", "path", ticket.DocumentPath, "ticket", ticket.ID)
	}

	return queued, nil
}
