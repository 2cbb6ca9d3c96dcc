package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scratchpos/lottery-services/internal/packsvc/models"
)

type BinStore struct {
	db *pgxpool.Pool
}

func NewBinStore(db *pgxpool.Pool) *BinStore {
	return &BinStore{db: db}
}

func (s *BinStore) GetBinByID(ctx context.Context, binID int64) (*models.Bin, error) {
	query := `
		SELECT id, store_id, bin_no, pack_id, created_at, updated_at
		FROM bins
		WHERE id = $1
	`

	b := &models.Bin{}
	err := s.db.QueryRow(ctx, query, binID).Scan(
		&b.ID,
		&b.StoreID,
		&b.BinNo,
		&b.PackID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Bin not found
		}
		return nil, fmt.Errorf("failed to get bin by ID: %w", err)
	}
	return b, nil
}

func (s *BinStore) GetBinsByStore(ctx context.Context, storeID int64) ([]*models.Bin, error) {
	query := `
		SELECT id, store_id, bin_no, pack_id, created_at, updated_at
		FROM bins
		WHERE store_id = $1
		ORDER BY bin_no
	`

	rows, err := s.db.Query(ctx, query, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bins []*models.Bin
	for rows.Next() {
		var b models.Bin
		err := rows.Scan(
			&b.ID,
			&b.StoreID,
			&b.BinNo,
			&b.PackID,
			&b.CreatedAt,
			&b.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		bins = append(bins, &b)
	}
	return bins, rows.Err()
}

// SetBinPack binds the bin to its new active pack. The WHERE clause only
// matches an empty bin, so a concurrent activation into the same bin
// loses cleanly instead of overwriting.
func (s *BinStore) SetBinPack(ctx context.Context, binID, packID int64) (bool, error) {
	query := `
		UPDATE bins
		SET pack_id = $2, updated_at = now()
		WHERE id = $1 AND pack_id IS NULL
	`
	tag, err := s.db.Exec(ctx, query, binID, packID)
	if err != nil {
		return false, fmt.Errorf("failed to bind bin %d: %w", binID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ClearBinPack detaches whatever pack the bin holds.
func (s *BinStore) ClearBinPack(ctx context.Context, binID int64) error {
	query := `
		UPDATE bins
		SET pack_id = NULL, updated_at = now()
		WHERE id = $1
	`
	if _, err := s.db.Exec(ctx, query, binID); err != nil {
		return fmt.Errorf("failed to clear bin %d: %w", binID, err)
	}
	return nil
}
