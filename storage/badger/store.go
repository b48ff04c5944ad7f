package badger

import (
	"github.com/scopeworks/kbpipeline/storage"
)

// Store aggregates the document, approval and job repositories over a
// single BadgerDB backend and implements storage.Repository.
type Store struct {
	*DocumentRepository
	*ApprovalRepository
	*JobRepository

	backend *Backend
}

var _ storage.Repository = (*Store)(nil)

// NewStore creates the aggregate store over an open backend. The backend's
// lifetime is owned by the caller that opened it; Close on the store closes
// the backend.
func NewStore(backend *Backend) *Store {
	return &Store{
		DocumentRepository: NewDocumentRepository(backend),
		ApprovalRepository: NewApprovalRepository(backend),
		JobRepository:      NewJobRepository(backend),
		backend:            backend,
	}
}

// Open opens a BadgerDB database at the given path and returns the
// aggregate store over it.
func Open(filePath string) (*Store, error) {
	backend, err := OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}
	return NewStore(backend), nil
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
