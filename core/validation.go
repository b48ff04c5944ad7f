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

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Path must not be empty
//   - Hash must not be empty
//   - An indexed document must own a non-empty point-id list whose length
//     equals its vector count
//
// NOT validated (populated over the document's lifecycle):
//   - IndexedAt / FirstSeen / LastChecked timestamps
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Path == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyPath)
	}

	if doc.Hash == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyHash)
	}

	if doc.Indexed {
		if len(doc.PointIDs) == 0 || len(doc.PointIDs) != doc.VectorCount {
			return fmt.Errorf("%w: %w (count=%d, points=%d)",
				ErrInvalidDocument, ErrVectorCountMismatch, doc.VectorCount, len(doc.PointIDs))
		}
	}

	return nil
}

// ValidateClassification validates that a Classification has a known value.
func ValidateClassification(c Classification) error {
	switch c {
	case ClassificationDuplicate, ClassificationUpdate, ClassificationNewWithOverlap:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidClassification, c)
}

// ValidateApprovalStatus validates that an ApprovalStatus has a known value.
func ValidateApprovalStatus(s ApprovalStatus) error {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidApprovalStatus, s)
}
