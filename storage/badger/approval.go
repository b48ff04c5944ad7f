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


package badger

import (
	"context"
	"errors"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/scopeworks/kbpipeline/core"
	"github.com/scopeworks/kbpipeline/storage"
)

// ApprovalRepository implements storage.ApprovalRepository using BadgerDB.
// The open-ticket index guarantees at most one pending ticket per document.
type ApprovalRepository struct {
	backend *Backend
}

var _ storage.ApprovalRepository = (*ApprovalRepository)(nil)

// NewApprovalRepository creates a new approval repository.
func NewApprovalRepository(backend *Backend) *ApprovalRepository {
	return &ApprovalRepository{backend: backend}
}

// CreateApproval stores a new ticket. The open-ticket check and the writes
// happen in one transaction, so two concurrent creates for the same
// document cannot both succeed.
func (r *ApprovalRepository) CreateApproval(ctx context.Context, ticket *core.PendingApproval) error {
	if err := core.ValidateApprovalStatus(ticket.Status); err != nil {
		return err
	}

	data, err := storage.MarshalApproval(ticket)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if ticket.Open() {
			_, err := tx.Get(makeOpenApprovalKey(ticket.DocumentPath))
			if err == nil {
				return storage.ErrOpenTicketExists
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := tx.Set(makeOpenApprovalKey(ticket.DocumentPath), []byte(ticket.ID)); err != nil {
				return err
			}
		}
		if err := tx.Set(makeApprovalKey(ticket.ID), data); err != nil {
			return err
		}
		if err := tx.Set(makeApprovalDocKey(ticket.DocumentPath, ticket.ID), []byte(ticket.ID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetApproval returns the ticket with the given ID, or storage.ErrNotFound.
func (r *ApprovalRepository) GetApproval(ctx context.Context, id string) (*core.PendingApproval, error) {
	var ticket *core.PendingApproval

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		ticket, err = readApproval(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

// UpdateApproval replaces the stored ticket. A ticket that already reached
// a terminal status cannot change status again, and resolving a ticket
// releases its document's open-ticket slot.
func (r *ApprovalRepository) UpdateApproval(ctx context.Context, ticket *core.PendingApproval) error {
	if err := core.ValidateApprovalStatus(ticket.Status); err != nil {
		return err
	}

	data, err := storage.MarshalApproval(ticket)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		stored, err := readApproval(tx, ticket.ID)
		if err != nil {
			return err
		}
		if !stored.Open() && ticket.Status != stored.Status {
			return core.ErrTicketResolved
		}

		if stored.Open() && !ticket.Open() {
			if err := tx.Delete(makeOpenApprovalKey(ticket.DocumentPath)); err != nil {
				return err
			}
		}
		if err := tx.Set(makeApprovalKey(ticket.ID), data); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListApprovals returns tickets filtered by status; an empty status returns
// every ticket. Results are newest first.
func (r *ApprovalRepository) ListApprovals(ctx context.Context, status core.ApprovalStatus) ([]*core.PendingApproval, error) {
	var tickets []*core.PendingApproval

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = approvalPrefixKey()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				ticket, err := storage.UnmarshalApproval(val)
				if err != nil {
					return err
				}
				if status == "" || ticket.Status == status {
					tickets = append(tickets, ticket)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sortApprovalsNewestFirst(tickets)
	return tickets, nil
}

// OpenApprovalForDocument returns the open ticket for the given document
// path, or storage.ErrNotFound when none is open.
func (r *ApprovalRepository) OpenApprovalForDocument(ctx context.Context, path string) (*core.PendingApproval, error) {
	var ticket *core.PendingApproval

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeOpenApprovalKey(path))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}

		ticket, err = readApproval(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

// ApprovalsForDocument returns every ticket raised for the given document
// path, newest first.
func (r *ApprovalRepository) ApprovalsForDocument(ctx context.Context, path string) ([]*core.PendingApproval, error) {
	var tickets []*core.PendingApproval

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = approvalDocPrefixKey(path)
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

			ticket, err := readApproval(tx, id)
			if err != nil {
				return err
			}
			tickets = append(tickets, ticket)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sortApprovalsNewestFirst(tickets)
	return tickets, nil
}

func readApproval(tx *badger.Txn, id string) (*core.PendingApproval, error) {
	item, err := tx.Get(makeApprovalKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var ticket *core.PendingApproval
	err = item.Value(func(val []byte) error {
		ticket, err = storage.UnmarshalApproval(val)
		return err
	})
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

func sortApprovalsNewestFirst(tickets []*core.PendingApproval) {
	slices.SortFunc(tickets, func(a, b *core.PendingApproval) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
