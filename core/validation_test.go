package core

import (
	"errors"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "empty path",
			doc:     &Document{Hash: "abc"},
			wantErr: ErrEmptyPath,
		},
		{
			name:    "empty hash",
			doc:     &Document{Path: "kb/doc.txt"},
			wantErr: ErrEmptyHash,
		},
		{
			name: "valid unindexed",
			doc:  &Document{Path: "kb/doc.txt", Hash: "abc"},
		},
		{
			name: "valid indexed",
			doc: &Document{
				Path:        "kb/doc.txt",
				Hash:        "abc",
				Indexed:     true,
				VectorCount: 2,
				PointIDs:    []string{"p1", "p2"},
			},
		},
		{
			name: "indexed without points",
			doc: &Document{
				Path:        "kb/doc.txt",
				Hash:        "abc",
				Indexed:     true,
				VectorCount: 2,
			},
			wantErr: ErrVectorCountMismatch,
		},
		{
			name: "indexed with count mismatch",
			doc: &Document{
				Path:        "kb/doc.txt",
				Hash:        "abc",
				Indexed:     true,
				VectorCount: 3,
				PointIDs:    []string{"p1", "p2"},
			},
			wantErr: ErrVectorCountMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateClassification(t *testing.T) {
	for _, c := range []Classification{ClassificationDuplicate, ClassificationUpdate, ClassificationNewWithOverlap} {
		if err := ValidateClassification(c); err != nil {
			t.Errorf("ValidateClassification(%q) error = %v", c, err)
		}
	}
	if err := ValidateClassification("similar"); !errors.Is(err, ErrInvalidClassification) {
		t.Errorf("ValidateClassification() error = %v, want ErrInvalidClassification", err)
	}
}

func TestValidateApprovalStatus(t *testing.T) {
	for _, s := range []ApprovalStatus{ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected} {
		if err := ValidateApprovalStatus(s); err != nil {
			t.Errorf("ValidateApprovalStatus(%q) error = %v", s, err)
		}
	}
	if err := ValidateApprovalStatus("done"); !errors.Is(err, ErrInvalidApprovalStatus) {
		t.Errorf("ValidateApprovalStatus() error = %v, want ErrInvalidApprovalStatus", err)
	}
}
