package badger

import (
	"context"
	"errors"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/scopeworks/kbpipeline/core"
	"github.com/scopeworks/kbpipeline/storage"
)

// JobRepository implements storage.JobRepository using BadgerDB.
type JobRepository struct {
	backend *Backend
}

var _ storage.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new vectorization job repository.
func NewJobRepository(backend *Backend) *JobRepository {
	return &JobRepository{backend: backend}
}

// CreateJob stores a new job record and its document index entry.
func (r *JobRepository) CreateJob(ctx context.Context, job *core.VectorizationJob) error {
	data, err := storage.MarshalJob(job)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeJobKey(job.ID), data); err != nil {
			return err
		}
		if err := tx.Set(makeJobDocKey(job.DocumentPath, job.ID), []byte(job.ID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetJob returns the job with the given ID, or storage.ErrNotFound.
func (r *JobRepository) GetJob(ctx context.Context, id string) (*core.VectorizationJob, error) {
	var job *core.VectorizationJob

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		job, err = readJob(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}

	return job, nil
}

// UpdateJob replaces the stored job. Jobs in a terminal state are part of
// the audit trail and cannot be modified.
func (r *JobRepository) UpdateJob(ctx context.Context, job *core.VectorizationJob) error {
	data, err := storage.MarshalJob(job)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		stored, err := readJob(tx, job.ID)
		if err != nil {
			return err
		}
		if stored.Terminal() {
			return core.ErrJobTerminal
		}
		if err := tx.Set(makeJobKey(job.ID), data); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// JobsForDocument returns every job recorded for the given document path,
// newest first.
func (r *JobRepository) JobsForDocument(ctx context.Context, path string) ([]*core.VectorizationJob, error) {
	var jobs []*core.VectorizationJob

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = jobDocPrefixKey(path)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id string
			if err := iter.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				return err
			}

			job, err := readJob(tx, id)
			if err != nil {
				return err
			}
			jobs = append(jobs, job)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(jobs, func(a, b *core.VectorizationJob) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return jobs, nil
}

func readJob(tx *badger.Txn, id string) (*core.VectorizationJob, error) {
	item, err := tx.Get(makeJobKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var job *core.VectorizationJob
	err = item.Value(func(val []byte) error {
		job, err = storage.UnmarshalJob(val)
		return err
	})
	if err != nil {
		return nil, err
	}

	return job, nil
}
