package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopeworks/kbpipeline/core"
)

// flagSimilarDocument scans a.txt, then b.txt under constant embeddings so
// b.txt ends up with an open review ticket.
func flagSimilarDocument(t *testing.T, env *scanEnv) *core.PendingApproval {
	t.Helper()
	ctx := context.Background()

	env.useConstantVectors()
	env.writeFile(t, "a.txt", sampleTextA)
	_, err := env.scanner.Scan(ctx)
	require.NoError(t, err)

	env.writeFile(t, "b.txt", sampleTextB)
	_, err = env.scanner.Scan(ctx)
	require.NoError(t, err)

	ticket, err := env.store.OpenApprovalForDocument(ctx, "b.txt")
	require.NoError(t, err)
	return ticket
}

func approvalsService(t *testing.T, env *scanEnv) *Approvals {
	t.Helper()
	approvals, err := NewApprovals(env.store, env.store, env.work, nil)
	require.NoError(t, err)
	return approvals
}

func TestApproveQueuesVectorization(t *testing.T) {
	env := newScanEnv(t)
	ticket := flagSimilarDocument(t, env)
	approvals := approvalsService(t, env)
	ctx := context.Background()

	resolved, err := approvals.Approve(ctx, ticket.ID, "admin", "looks like a real update")
	require.NoError(t, err)
	assert.Equal(t, core.ApprovalStatusApproved, resolved.Status)
	assert.Equal(t, "admin", resolved.ReviewedBy)

	// The resolution was committed before the work was queued.
	stored, err := env.store.GetApproval(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, core.ApprovalStatusApproved, stored.Status)

	path, err := env.work.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b.txt", path)

	require.NoError(t, env.worker.ProcessPath(ctx, path))

	doc, err := env.store.GetDocument(ctx, "b.txt")
	require.NoError(t, err)
	assert.True(t, doc.Indexed)

	jobs, err := env.store.JobsForDocument(ctx, "b.txt")
	require.NoError(t, err)
	require.NotEmpty(t, jobs)
	assert.Equal(t, core.JobStateCompleted, jobs[0].State)
}

func TestRejectLeavesIndexUntouched(t *testing.T) {
	env := newScanEnv(t)
	ticket := flagSimilarDocument(t, env)
	approvals := approvalsService(t, env)
	ctx := context.Background()

	indexed := env.index.Len()

	resolved, err := approvals.Reject(ctx, ticket.ID, "admin", "duplicate of the deploy guide")
	require.NoError(t, err)
	assert.Equal(t, core.ApprovalStatusRejected, resolved.Status)

	assert.Equal(t, indexed, env.index.Len())
	doc, err := env.store.GetDocument(ctx, "b.txt")
	require.NoError(t, err)
	assert.False(t, doc.Indexed)

	// A rejected ticket cannot be flipped.
	_, err = approvals.Approve(ctx, ticket.ID, "admin", "changed my mind")
	require.ErrorIs(t, err, core.ErrTicketResolved)
}

func TestRejectionStandsAcrossRescans(t *testing.T) {
	env := newScanEnv(t)
	ticket := flagSimilarDocument(t, env)
	approvals := approvalsService(t, env)
	ctx := context.Background()

	_, err := approvals.Reject(ctx, ticket.ID, "admin", "duplicate of the deploy guide")
	require.NoError(t, err)

	// Unchanged content keeps the verdict: no new ticket, no vectors.
	stats, err := env.scanner.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.PendingApproval)
	assert.Equal(t, 0, stats.Updated)

	tickets, err := env.store.ApprovalsForDocument(ctx, "b.txt")
	require.NoError(t, err)
	assert.Len(t, tickets, 1)

	doc, err := env.store.GetDocument(ctx, "b.txt")
	require.NoError(t, err)
	assert.False(t, doc.Indexed)

	// New content supersedes the rejection and goes back to review.
	env.writeFile(t, "b.txt", sampleTextB+"\nRevised after review feedback.")
	stats, err = env.scanner.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PendingApproval)

	reopened, err := env.store.OpenApprovalForDocument(ctx, "b.txt")
	require.NoError(t, err)
	assert.NotEqual(t, ticket.ID, reopened.ID)
}

func TestPendingListsOpenTickets(t *testing.T) {
	env := newScanEnv(t)
	ticket := flagSimilarDocument(t, env)
	approvals := approvalsService(t, env)
	ctx := context.Background()

	pending, err := approvals.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ticket.ID, pending[0].ID)

	_, err = approvals.Reject(ctx, ticket.ID, "admin", "")
	require.NoError(t, err)

	pending, err = approvals.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReconcileApprovedRequeuesLostWork(t *testing.T) {
	env := newScanEnv(t)
	ticket := flagSimilarDocument(t, env)
	approvals := approvalsService(t, env)
	ctx := context.Background()

	_, err := approvals.Approve(ctx, ticket.ID, "admin", "")
	require.NoError(t, err)

	// Simulate the queued trigger being lost before any worker saw it.
	_, err = env.work.Dequeue(ctx)
	require.NoError(t, err)

	queued, err := approvals.ReconcileApproved(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)

	path, err := env.work.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b.txt", path)

	// Once the document is indexed, reconciliation finds nothing to do.
	require.NoError(t, env.worker.ProcessPath(ctx, path))
	queued, err = approvals.ReconcileApproved(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, queued)
}

func TestResolveUnknownTicket(t *testing.T) {
	env := newScanEnv(t)
	approvals := approvalsService(t, env)

	_, err := approvals.Approve(context.Background(), "no-such-ticket", "admin", "")
	require.Error(t, err)
}

func TestRaiseRespectsOpenTicketSlot(t *testing.T) {
	env := newScanEnv(t)
	approvals := approvalsService(t, env)
	ctx := context.Background()

	doc := &core.Document{Path: "a.txt", Name: "a.txt", Hash: "h", Size: 1,
		FirstSeen: time.Now().UTC(), LastChecked: time.Now().UTC()}
	require.NoError(t, env.store.UpsertDocument(ctx, doc))

	assessment := &Assessment{
		Classification: core.ClassificationUpdate,
		TopScore:       0.9,
		Reason:         "High similarity",
	}

	_, err := approvals.Raise(ctx, doc, assessment)
	require.NoError(t, err)
	_, err = approvals.Raise(ctx, doc, assessment)
	require.Error(t, err)
}
