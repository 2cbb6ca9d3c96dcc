package shiftclose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scratchpos/lottery-services/internal/clock"
	"github.com/scratchpos/lottery-services/internal/packsvc/models"
	"github.com/scratchpos/lottery-services/internal/packsvc/reconcile"
)

var (
	ErrVarianceReasonRequired = errors.New("a justification is required to approve a variance")
	ErrInvalidShiftState      = errors.New("shift is not in a state that allows this step")
	ErrNoVarianceToApprove    = errors.New("shift is not awaiting variance approval")
)

// Workflow drives one shift or day subject through its closing funnel:
// OPEN -> CLOSING -> CLOSED or VARIANCE_REVIEW -> CLOSED. There is no way
// back to OPEN once the close begins.
type Workflow struct {
	subjectID int64
	status    models.ShiftStatus
	// tolerance is the absolute per-bin difference allowed before a
	// close is forced into variance review. Zero means any difference
	// needs sign-off.
	tolerance int
	clock     clock.Clock

	results  []reconcile.Result
	approval *models.VarianceApproval
}

func NewWorkflow(subjectID int64, status models.ShiftStatus, tolerance int, clk clock.Clock) *Workflow {
	return &Workflow{
		subjectID: subjectID,
		status:    status,
		tolerance: tolerance,
		clock:     clk,
	}
}

func (w *Workflow) Status() models.ShiftStatus {
	return w.status
}

// Results returns the reconciliation results recorded for this close.
func (w *Workflow) Results() []reconcile.Result {
	return w.results
}

// Approval returns the recorded variance approval, nil until Approve
// succeeds.
func (w *Workflow) Approval() *models.VarianceApproval {
	return w.approval
}

// BeginClose moves the subject from OPEN to CLOSING.
func (w *Workflow) BeginClose() error {
	if !w.status.CanTransition(models.ShiftClosing) {
		return fmt.Errorf("%w: %s", ErrInvalidShiftState, w.status)
	}
	w.status = models.ShiftClosing
	return nil
}

// RecordReconciliation takes the per-bin results of a close-out run. A
// difference beyond tolerance on any bin forces VARIANCE_REVIEW,
// otherwise the subject closes immediately.
func (w *Workflow) RecordReconciliation(results []reconcile.Result) error {
	if w.status != models.ShiftClosing {
		return fmt.Errorf("%w: %s", ErrInvalidShiftState, w.status)
	}
	w.results = results

	for _, r := range results {
		if r.Outcome != reconcile.Variance {
			continue
		}
		if abs(r.Difference) > w.tolerance {
			w.status = models.ShiftVarianceReview
			return nil
		}
	}
	w.status = models.ShiftClosed
	return nil
}

// Approve signs off a variance and closes the subject. The reason must be
// non-empty after trimming whitespace.
func (w *Workflow) Approve(reason, approvedBy string) (*models.VarianceApproval, error) {
	if w.status != models.ShiftVarianceReview {
		return nil, fmt.Errorf("%w: %s", ErrNoVarianceToApprove, w.status)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrVarianceReasonRequired
	}

	w.approval = &models.VarianceApproval{
		SubjectID:  w.subjectID,
		Reason:     reason,
		ApprovedBy: approvedBy,
		ApprovedAt: w.clock.Now(),
	}
	w.status = models.ShiftClosed
	return w.approval, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
