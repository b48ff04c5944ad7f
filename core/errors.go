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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyPath indicates the document path is empty.
	ErrEmptyPath = errors.New("document path cannot be empty")

	// ErrEmptyHash indicates the content fingerprint hash is empty.
	ErrEmptyHash = errors.New("content hash cannot be empty")

	// ErrVectorCountMismatch indicates an indexed document whose point-id
	// list does not match its vector count.
	ErrVectorCountMismatch = errors.New("vector count does not match point ids")

	// ErrInvalidClassification indicates an unknown Classification value.
	ErrInvalidClassification = errors.New("invalid classification")

	// ErrInvalidApprovalStatus indicates an unknown ApprovalStatus value.
	ErrInvalidApprovalStatus = errors.New("invalid approval status")

	// ErrTicketResolved indicates an attempt to resolve an approval ticket
	// that has already reached a terminal status.
	ErrTicketResolved = errors.New("approval ticket already resolved")

	// ErrJobTerminal indicates an attempt to mutate a vectorization job
	// that has already reached a terminal state.
	ErrJobTerminal = errors.New("vectorization job already terminal")
)
