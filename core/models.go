package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Fingerprint identifies document content by hash and byte length.
// Identical bytes always produce identical fingerprints, which is what
// makes re-scans idempotent.
type Fingerprint struct {
	Hash string
	Size int64
}

// FingerprintBytes computes the content fingerprint for raw document bytes
// using BLAKE2b-256. It is a pure function: the same bytes yield the same
// fingerprint across calls and across process restarts. An empty buffer
// yields the hash of the empty string.
func FingerprintBytes(data []byte) Fingerprint {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return Fingerprint{
		Hash: hex.EncodeToString(h.Sum(nil)),
		Size: int64(len(data)),
	}
}

// Document represents one piece of knowledge-base source material tracked
// by the pipeline. The blob path is its identity.
type Document struct {
	Path string // Opaque path/key in the document store
	Name string // Display name

	Hash string // Content fingerprint hash
	Size int64  // Content byte length

	Indexed     bool      // True once vectors for the current content are in the index
	IndexedAt   time.Time // Timestamp of last successful indexing
	VectorCount int       // Number of vectors produced by the last successful job
	PointIDs    []string  // Vector-store point identifiers owned by this document

	FirstSeen   time.Time
	LastChecked time.Time
}

// Classification describes how a candidate document relates to already
// indexed content.
type Classification string

const (
	// ClassificationDuplicate indicates near-identical content.
	ClassificationDuplicate Classification = "duplicate"
	// ClassificationUpdate indicates a probable content update to existing material.
	ClassificationUpdate Classification = "update"
	// ClassificationNewWithOverlap indicates new content with some related material.
	ClassificationNewWithOverlap Classification = "new_with_overlap"
)

// ApprovalStatus is the lifecycle state of a PendingApproval ticket.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// RelatedDocument is one existing indexed document a candidate was found
// similar to, with the similarity score that matched it.
type RelatedDocument struct {
	DocumentPath string
	DisplayName  string
	Score        float32
}

// PendingApproval is a human review ticket raised when a candidate document
// looks similar to already-indexed material.
type PendingApproval struct {
	ID           string
	DocumentPath string // Identity of the candidate document
	ContentHash  string // Fingerprint of the content under review

	Related        []RelatedDocument
	Classification Classification
	TopScore       float32
	Reason         string

	Status     ApprovalStatus
	CreatedAt  time.Time
	ReviewedBy string
	ReviewedAt time.Time
	Comment    string
}

// Open reports whether the ticket is still awaiting review.
func (p *PendingApproval) Open() bool {
	return p.Status == ApprovalStatusPending
}

// Resolve transitions the ticket from pending to a terminal status.
// The transition is monotonic: a resolved ticket cannot be resolved again,
// and its fields are left unchanged when the transition is refused.
func (p *PendingApproval) Resolve(status ApprovalStatus, reviewer, comment string, at time.Time) error {
	if status != ApprovalStatusApproved && status != ApprovalStatusRejected {
		return ErrInvalidApprovalStatus
	}
	if p.Status != ApprovalStatusPending {
		return ErrTicketResolved
	}
	p.Status = status
	p.ReviewedBy = reviewer
	p.ReviewedAt = at
	p.Comment = comment
	return nil
}

// JobState is the lifecycle state of a VectorizationJob.
type JobState string

const (
	JobStateProcessing JobState = "processing"
	JobStateCompleted  JobState = "completed"
	JobStateFailed     JobState = "failed"
)

// VectorizationJob tracks one chunk+embed+store execution for a document.
// Once a job reaches a terminal state its record is immutable and serves
// as an audit trail.
type VectorizationJob struct {
	ID           string
	DocumentPath string

	State           JobState
	ChunksProcessed int
	VectorsCreated  int
	PointIDs        []string // IDs written to the index by this job

	StartedAt    time.Time
	CompletedAt  time.Time
	ErrorMessage string
}

// Terminal reports whether the job has reached a final state.
func (j *VectorizationJob) Terminal() bool {
	return j.State == JobStateCompleted || j.State == JobStateFailed
}

// ScanStats aggregates the outcome of one scan pass over the document store.
type ScanStats struct {
	Scanned         int
	New             int
	Updated         int
	Failed          int
	PendingApproval int
}
