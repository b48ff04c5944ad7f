package core

import (
	"testing"
	"time"
)

func TestFingerprintBytes_Stable(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "simple content",
			data: []byte("test content"),
		},
		{
			name: "empty buffer",
			data: []byte{},
		},
		{
			name: "nil buffer",
			data: nil,
		},
		{
			name: "binary content",
			data: []byte{0x00, 0xff, 0x10, 0x7f},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp1 := FingerprintBytes(tt.data)
			fp2 := FingerprintBytes(tt.data)

			if fp1 != fp2 {
				t.Errorf("FingerprintBytes() not stable: %v vs %v", fp1, fp2)
			}
			if fp1.Size != int64(len(tt.data)) {
				t.Errorf("FingerprintBytes() size = %d, want %d", fp1.Size, len(tt.data))
			}
			if len(fp1.Hash) != 64 {
				t.Errorf("FingerprintBytes() hash length = %d, want 64 hex chars", len(fp1.Hash))
			}
		})
	}
}

func TestFingerprintBytes_Different(t *testing.T) {
	fp1 := FingerprintBytes([]byte("content one"))
	fp2 := FingerprintBytes([]byte("content two"))

	if fp1.Hash == fp2.Hash {
		t.Errorf("FingerprintBytes() produced same hash for different content")
	}
}

func TestFingerprintBytes_EmptyEqualsEmpty(t *testing.T) {
	// An unreadable buffer degrades to the empty fingerprint, which must
	// still be a legitimate, stable value.
	if FingerprintBytes(nil).Hash != FingerprintBytes([]byte{}).Hash {
		t.Errorf("nil and empty buffers should share a fingerprint")
	}
}

func TestPendingApproval_Resolve(t *testing.T) {
	now := time.Now()

	t.Run("pending to approved", func(t *testing.T) {
		p := &PendingApproval{Status: ApprovalStatusPending}
		if err := p.Resolve(ApprovalStatusApproved, "admin", "looks fine", now); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if p.Status != ApprovalStatusApproved || p.ReviewedBy != "admin" {
			t.Errorf("Resolve() did not record the decision: %+v", p)
		}
	})

	t.Run("pending to rejected", func(t *testing.T) {
		p := &PendingApproval{Status: ApprovalStatusPending}
		if err := p.Resolve(ApprovalStatusRejected, "admin", "", now); err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if p.Open() {
			t.Errorf("ticket still open after rejection")
		}
	})

	t.Run("terminal states are sticky", func(t *testing.T) {
		p := &PendingApproval{Status: ApprovalStatusApproved, ReviewedBy: "first"}
		err := p.Resolve(ApprovalStatusRejected, "second", "flip attempt", now)
		if err != ErrTicketResolved {
			t.Fatalf("Resolve() error = %v, want ErrTicketResolved", err)
		}
		if p.Status != ApprovalStatusApproved || p.ReviewedBy != "first" {
			t.Errorf("fields mutated by refused transition: %+v", p)
		}
	})

	t.Run("cannot resolve to pending", func(t *testing.T) {
		p := &PendingApproval{Status: ApprovalStatusPending}
		if err := p.Resolve(ApprovalStatusPending, "admin", "", now); err != ErrInvalidApprovalStatus {
			t.Fatalf("Resolve() error = %v, want ErrInvalidApprovalStatus", err)
		}
	})
}

func TestVectorizationJob_Terminal(t *testing.T) {
	tests := []struct {
		state JobState
		want  bool
	}{
		{JobStateProcessing, false},
		{JobStateCompleted, true},
		{JobStateFailed, true},
	}

	for _, tt := range tests {
		j := &VectorizationJob{State: tt.state}
		if got := j.Terminal(); got != tt.want {
			t.Errorf("Terminal() for %q = %v, want %v", tt.state, got, tt.want)
		}
	}
}
