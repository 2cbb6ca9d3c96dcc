package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scratchpos/lottery-services/internal/packsvc/lifecycle"
	"github.com/scratchpos/lottery-services/internal/packsvc/models"
)

type PackStore struct {
	db *pgxpool.Pool
}

func NewPackStore(db *pgxpool.Pool) *PackStore {
	return &PackStore{db: db}
}

const packColumns = `id, store_id, game_code, pack_number, serial_start, serial_end,
	ticket_count, status, bin_id, last_sold_serial, received_at, activated_at, updated_at`

func scanPack(row pgx.Row) (*models.Pack, error) {
	p := &models.Pack{}
	err := row.Scan(
		&p.ID,
		&p.StoreID,
		&p.GameCode,
		&p.PackNumber,
		&p.SerialStart,
		&p.SerialEnd,
		&p.TicketCount,
		&p.Status,
		&p.BinID,
		&p.LastSoldSerial,
		&p.ReceivedAt,
		&p.ActivatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePack inserts a received pack. The unique (store_id, pack_number)
// constraint is how duplicate deliveries are caught; violations surface
// as lifecycle.ErrDuplicatePack.
func (s *PackStore) CreatePack(ctx context.Context, p *models.Pack) (*models.Pack, error) {
	query := `
		INSERT INTO packs (store_id, game_code, pack_number, serial_start, serial_end,
			ticket_count, status, received_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + packColumns

	created, err := scanPack(s.db.QueryRow(ctx, query,
		p.StoreID, p.GameCode, p.PackNumber, p.SerialStart, p.SerialEnd,
		p.TicketCount, p.Status, p.ReceivedAt, p.UpdatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: %s", lifecycle.ErrDuplicatePack, p.PackNumber)
		}
		return nil, fmt.Errorf("failed to create pack: %w", err)
	}
	return created, nil
}

func (s *PackStore) GetPackByID(ctx context.Context, packID int64) (*models.Pack, error) {
	query := `SELECT ` + packColumns + ` FROM packs WHERE id = $1`

	p, err := scanPack(s.db.QueryRow(ctx, query, packID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Pack not found
		}
		return nil, fmt.Errorf("failed to get pack by ID: %w", err)
	}
	return p, nil
}

// GetPackByIDForUpdate locks the pack row for the rest of the
// transaction. Lifecycle transitions must run under this lock so two
// operators cannot activate the same pack into two bins.
func (s *PackStore) GetPackByIDForUpdate(ctx context.Context, tx pgx.Tx, packID int64) (*models.Pack, error) {
	query := `SELECT ` + packColumns + ` FROM packs WHERE id = $1 FOR UPDATE`

	p, err := scanPack(tx.QueryRow(ctx, query, packID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock pack: %w", err)
	}
	return p, nil
}

// GetActivePacks returns the packs currently on display for a store.
func (s *PackStore) GetActivePacks(ctx context.Context, storeID int64) ([]*models.Pack, error) {
	query := `SELECT ` + packColumns + ` FROM packs WHERE store_id = $1 AND status = $2 ORDER BY bin_id`

	rows, err := s.db.Query(ctx, query, storeID, models.PackActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packs []*models.Pack
	for rows.Next() {
		p, err := scanPack(rows)
		if err != nil {
			return nil, err
		}
		packs = append(packs, p)
	}
	return packs, rows.Err()
}

// UpdatePackTx persists the mutable lifecycle fields after an engine
// transition. Writes only happen inside the row-lock transaction, so
// there is deliberately no unlocked variant.
func (s *PackStore) UpdatePackTx(ctx context.Context, tx pgx.Tx, p *models.Pack) error {
	query := `
		UPDATE packs
		SET status = $2, bin_id = $3, last_sold_serial = $4, activated_at = $5, updated_at = $6
		WHERE id = $1
	`
	_, err := tx.Exec(ctx, query,
		p.ID, p.Status, p.BinID, p.LastSoldSerial, p.ActivatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update pack %d: %w", p.ID, err)
	}
	return nil
}

// BeginTx opens a transaction for callers that need the row lock.
func (s *PackStore) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return s.db.Begin(ctx)
}

// WithPackForUpdate row-locks the pack, runs fn on it, and persists the
// mutation in the same transaction. Concurrent lifecycle transitions on
// one pack serialize on the lock; a failing fn rolls everything back.
// Returns (nil, nil) when the pack does not exist.
func (s *PackStore) WithPackForUpdate(ctx context.Context, packID int64, fn func(p *models.Pack) error) (*models.Pack, error) {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p, err := s.GetPackByIDForUpdate(ctx, tx, packID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	if err := fn(p); err != nil {
		return nil, err
	}
	if err := s.UpdatePackTx(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}
