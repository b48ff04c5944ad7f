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


// Package storage defines the persistence interfaces for the pipeline's
// document registry, approval tickets and vectorization job ledger, along
// with the serialization helpers shared by backend implementations.
package storage

import (
	"context"

	"github.com/scopeworks/kbpipeline/core"
)

// DocumentRepository persists the registry of indexed documents keyed by
// blob path.
type DocumentRepository interface {
	// UpsertDocument writes the document record, replacing any previous
	// record for the same path in a single atomic commit.
	UpsertDocument(ctx context.Context, doc *core.Document) error

	// GetDocument returns the record for the given path, or ErrNotFound.
	GetDocument(ctx context.Context, path string) (*core.Document, error)

	// ListDocuments returns all known document records.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// DeleteDocument removes the record for the given path. Deleting an
	// unknown path is not an error.
	DeleteDocument(ctx context.Context, path string) error
}

// ApprovalRepository persists human-review tickets. The backend enforces
// that at most one open ticket exists per candidate document.
type ApprovalRepository interface {
	// CreateApproval stores a new ticket. Returns ErrOpenTicketExists when
	// an open ticket is already registered for the same document path.
	CreateApproval(ctx context.Context, ticket *core.PendingApproval) error

	// GetApproval returns the ticket with the given ID, or ErrNotFound.
	GetApproval(ctx context.Context, id string) (*core.PendingApproval, error)

	// UpdateApproval replaces the stored ticket. Resolving a ticket
	// releases the open-ticket slot for its document.
	UpdateApproval(ctx context.Context, ticket *core.PendingApproval) error

	// ListApprovals returns tickets filtered by status; an empty status
	// returns every ticket.
	ListApprovals(ctx context.Context, status core.ApprovalStatus) ([]*core.PendingApproval, error)

	// OpenApprovalForDocument returns the open ticket for the given
	// document path, or ErrNotFound when none is open.
	OpenApprovalForDocument(ctx context.Context, path string) (*core.PendingApproval, error)

	// ApprovalsForDocument returns every ticket ever raised for the given
	// document path, newest first.
	ApprovalsForDocument(ctx context.Context, path string) ([]*core.PendingApproval, error)
}

// JobRepository persists vectorization job records. Terminal jobs are
// immutable: updates to a completed or failed job are rejected.
type JobRepository interface {
	// CreateJob stores a new job record.
	CreateJob(ctx context.Context, job *core.VectorizationJob) error

	// GetJob returns the job with the given ID, or ErrNotFound.
	GetJob(ctx context.Context, id string) (*core.VectorizationJob, error)

	// UpdateJob replaces the stored job. Returns core.ErrJobTerminal when
	// the stored job already reached a terminal state.
	UpdateJob(ctx context.Context, job *core.VectorizationJob) error

	// JobsForDocument returns every job recorded for the given document
	// path, newest first.
	JobsForDocument(ctx context.Context, path string) ([]*core.VectorizationJob, error)
}

// Repository aggregates all persistence concerns behind a single backend.
type Repository interface {
	DocumentRepository
	ApprovalRepository
	JobRepository

	// Close releases the backend's resources.
	Close() error
}
