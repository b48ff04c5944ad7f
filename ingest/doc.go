// Package ingest provides pipeline orchestration for knowledge-base
// documents.
//
// The Scanner type walks a blob store and drives each document through:
//   - Content fingerprinting to detect new and changed material
//   - Similarity classification against the vector index
//   - Vectorization, or a review ticket when indexed material looks similar
//
// Documents are processed concurrently using a worker pool. Each document
// is an independent unit of work: its job either completes fully or leaves
// the document's records and vectors untouched.
//
// The Approvals type manages the review tickets, and the Worker type drains
// the queue of approved documents awaiting vectorization.
package ingest
