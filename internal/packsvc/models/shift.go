package models

import (
	"database/sql"
	"time"
)

// ShiftStatus is the closing funnel for a shift or day subject. Once a
// subject enters VARIANCE_REVIEW there is no way back to OPEN.
type ShiftStatus string

const (
	ShiftOpen           ShiftStatus = "OPEN"
	ShiftClosing        ShiftStatus = "CLOSING"
	ShiftVarianceReview ShiftStatus = "VARIANCE_REVIEW"
	ShiftClosed         ShiftStatus = "CLOSED"
)

var shiftTransitions = map[ShiftStatus][]ShiftStatus{
	ShiftOpen:           {ShiftClosing},
	ShiftClosing:        {ShiftClosed, ShiftVarianceReview},
	ShiftVarianceReview: {ShiftClosed},
	ShiftClosed:         {},
}

func (s ShiftStatus) Valid() bool {
	_, ok := shiftTransitions[s]
	return ok
}

func (s ShiftStatus) CanTransition(to ShiftStatus) bool {
	for _, t := range shiftTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

type Shift struct {
	ID       int64        `json:"id"`
	StoreID  int64        `json:"store_id"`
	Status   ShiftStatus  `json:"status"`
	OpenedAt time.Time    `json:"opened_at"`
	ClosedAt sql.NullTime `json:"closed_at"`
}

// VarianceApproval records who signed off a non-zero reconciliation
// difference and why. Created only when a close is forced into
// VARIANCE_REVIEW.
type VarianceApproval struct {
	ID         int64     `json:"id"`
	SubjectID  int64     `json:"subject_id"` // shift or day row id
	Reason     string    `json:"reason"`
	ApprovedBy string    `json:"approved_by"`
	ApprovedAt time.Time `json:"approved_at"`
}
