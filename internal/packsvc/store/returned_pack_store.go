package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scratchpos/lottery-services/internal/packsvc/models"
)

type ReturnedPackStore struct {
	db *pgxpool.Pool
}

func NewReturnedPackStore(db *pgxpool.Pool) *ReturnedPackStore {
	return &ReturnedPackStore{db: db}
}

// CreateReturnedPack persists the immutable return snapshot. Rows in this
// table are never updated.
func (s *ReturnedPackStore) CreateReturnedPack(ctx context.Context, rec *models.ReturnedPackRecord) (*models.ReturnedPackRecord, error) {
	query := `
		INSERT INTO returned_packs (pack_id, store_id, game_code, game_name, pack_number,
			bin_no, activated_at, returned_at, return_reason, return_notes,
			last_sold_serial, tickets_sold_on_return, return_sales_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	created := *rec
	err := s.db.QueryRow(ctx, query,
		rec.PackID, rec.StoreID, rec.GameCode, rec.GameName, rec.PackNumber,
		rec.BinNo, rec.ActivatedAt, rec.ReturnedAt, rec.ReturnReason, rec.ReturnNotes,
		rec.LastSoldSerial, rec.TicketsSoldOnReturn, rec.ReturnSalesAmount,
	).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create returned pack record: %w", err)
	}
	return &created, nil
}

func (s *ReturnedPackStore) ListReturnedPacks(ctx context.Context, storeID int64) ([]*models.ReturnedPackRecord, error) {
	query := `
		SELECT id, pack_id, store_id, game_code, game_name, pack_number,
			bin_no, activated_at, returned_at, return_reason, return_notes,
			last_sold_serial, tickets_sold_on_return, return_sales_amount
		FROM returned_packs
		WHERE store_id = $1
		ORDER BY returned_at DESC
	`

	rows, err := s.db.Query(ctx, query, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.ReturnedPackRecord
	for rows.Next() {
		var r models.ReturnedPackRecord
		err := rows.Scan(
			&r.ID,
			&r.PackID,
			&r.StoreID,
			&r.GameCode,
			&r.GameName,
			&r.PackNumber,
			&r.BinNo,
			&r.ActivatedAt,
			&r.ReturnedAt,
			&r.ReturnReason,
			&r.ReturnNotes,
			&r.LastSoldSerial,
			&r.TicketsSoldOnReturn,
			&r.ReturnSalesAmount,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}
