package shiftclose

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scratchpos/lottery-services/internal/clock"
	"github.com/scratchpos/lottery-services/internal/packsvc/models"
	"github.com/scratchpos/lottery-services/internal/packsvc/reconcile"
)

var closeTime = time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)

func openWorkflow(tolerance int) *Workflow {
	return NewWorkflow(42, models.ShiftOpen, tolerance, clock.NewFixed(closeTime))
}

func TestCleanClose(t *testing.T) {
	w := openWorkflow(0)

	require.NoError(t, w.BeginClose())
	assert.Equal(t, models.ShiftClosing, w.Status())

	err := w.RecordReconciliation([]reconcile.Result{
		{Outcome: reconcile.Matched, Difference: 0},
		{Outcome: reconcile.Matched, Difference: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ShiftClosed, w.Status())
	assert.Nil(t, w.Approval(), "no approval needed on a clean close")
}

func TestVarianceForcesReview(t *testing.T) {
	w := openWorkflow(0)
	require.NoError(t, w.BeginClose())

	err := w.RecordReconciliation([]reconcile.Result{
		{Outcome: reconcile.Matched, Difference: 0},
		{Outcome: reconcile.Variance, Difference: -2},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ShiftVarianceReview, w.Status())
}

func TestVarianceWithinToleranceCloses(t *testing.T) {
	w := openWorkflow(2)
	require.NoError(t, w.BeginClose())

	err := w.RecordReconciliation([]reconcile.Result{
		{Outcome: reconcile.Variance, Difference: -1},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ShiftClosed, w.Status())
}

func TestApprove(t *testing.T) {
	intoReview := func(t *testing.T) *Workflow {
		t.Helper()
		w := openWorkflow(0)
		require.NoError(t, w.BeginClose())
		require.NoError(t, w.RecordReconciliation([]reconcile.Result{
			{Outcome: reconcile.Variance, Difference: 3},
		}))
		return w
	}

	t.Run("empty reason rejected", func(t *testing.T) {
		w := intoReview(t)
		_, err := w.Approve("", "mgr-11")
		assert.ErrorIs(t, err, ErrVarianceReasonRequired)
		_, err = w.Approve("   ", "mgr-11")
		assert.ErrorIs(t, err, ErrVarianceReasonRequired)
		assert.Equal(t, models.ShiftVarianceReview, w.Status())
	})

	t.Run("single character reason suffices", func(t *testing.T) {
		w := intoReview(t)
		approval, err := w.Approve("X", "mgr-11")
		require.NoError(t, err)
		assert.Equal(t, models.ShiftClosed, w.Status())
		assert.Equal(t, "X", approval.Reason)
		assert.Equal(t, "mgr-11", approval.ApprovedBy)
		assert.Equal(t, closeTime, approval.ApprovedAt)
		assert.Equal(t, int64(42), approval.SubjectID)
	})

	t.Run("reason trimmed before recording", func(t *testing.T) {
		w := intoReview(t)
		approval, err := w.Approve("  till miscount  ", "mgr-11")
		require.NoError(t, err)
		assert.Equal(t, "till miscount", approval.Reason)
	})

	t.Run("approve without review fails", func(t *testing.T) {
		w := openWorkflow(0)
		_, err := w.Approve("reason", "mgr-11")
		assert.ErrorIs(t, err, ErrNoVarianceToApprove)
	})
}

func TestOneWayFunnel(t *testing.T) {
	w := openWorkflow(0)
	require.NoError(t, w.BeginClose())
	require.NoError(t, w.RecordReconciliation([]reconcile.Result{
		{Outcome: reconcile.Variance, Difference: 1},
	}))

	// No transition back to OPEN or CLOSING once review starts.
	assert.ErrorIs(t, w.BeginClose(), ErrInvalidShiftState)
	assert.ErrorIs(t, w.RecordReconciliation(nil), ErrInvalidShiftState)

	_, err := w.Approve("shortage explained", "mgr-11")
	require.NoError(t, err)

	// Closed is terminal.
	assert.ErrorIs(t, w.BeginClose(), ErrInvalidShiftState)
	_, err = w.Approve("again", "mgr-11")
	assert.ErrorIs(t, err, ErrNoVarianceToApprove)
}
