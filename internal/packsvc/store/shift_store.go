package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scratchpos/lottery-services/internal/packsvc/models"
)

type ShiftStore struct {
	db *pgxpool.Pool
}

func NewShiftStore(db *pgxpool.Pool) *ShiftStore {
	return &ShiftStore{db: db}
}

func (s *ShiftStore) GetShiftByID(ctx context.Context, shiftID int64) (*models.Shift, error) {
	query := `
		SELECT id, store_id, status, opened_at, closed_at
		FROM shifts
		WHERE id = $1
	`

	shift := &models.Shift{}
	err := s.db.QueryRow(ctx, query, shiftID).Scan(
		&shift.ID,
		&shift.StoreID,
		&shift.Status,
		&shift.OpenedAt,
		&shift.ClosedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Shift not found
		}
		return nil, fmt.Errorf("failed to get shift by ID: %w", err)
	}
	return shift, nil
}

func (s *ShiftStore) OpenShift(ctx context.Context, storeID int64) (*models.Shift, error) {
	query := `
		INSERT INTO shifts (store_id, status, opened_at)
		VALUES ($1, $2, now())
		RETURNING id, store_id, status, opened_at, closed_at
	`

	shift := &models.Shift{}
	err := s.db.QueryRow(ctx, query, storeID, models.ShiftOpen).Scan(
		&shift.ID,
		&shift.StoreID,
		&shift.Status,
		&shift.OpenedAt,
		&shift.ClosedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open shift: %w", err)
	}
	return shift, nil
}

// UpdateShiftStatus moves the shift along its closing funnel and stamps
// closed_at when it lands on CLOSED.
func (s *ShiftStore) UpdateShiftStatus(ctx context.Context, shiftID int64, status models.ShiftStatus) error {
	query := `
		UPDATE shifts
		SET status = $2,
			closed_at = CASE WHEN $2 = 'CLOSED' THEN now() ELSE closed_at END
		WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query, shiftID, status)
	if err != nil {
		return fmt.Errorf("failed to update shift %d: %w", shiftID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("shift %d not found for update", shiftID)
	}
	return nil
}

func (s *ShiftStore) CreateVarianceApproval(ctx context.Context, a *models.VarianceApproval) (*models.VarianceApproval, error) {
	query := `
		INSERT INTO variance_approvals (subject_id, reason, approved_by, approved_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	created := *a
	err := s.db.QueryRow(ctx, query, a.SubjectID, a.Reason, a.ApprovedBy, a.ApprovedAt).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create variance approval: %w", err)
	}
	return &created, nil
}
