package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scratchpos/lottery-services/internal/packsvc/models"
)

type GameStore struct {
	db *pgxpool.Pool
}

func NewGameStore(db *pgxpool.Pool) *GameStore {
	return &GameStore{db: db}
}

// GetGameByCode retrieves game metadata (name, ticket price) by its
// 4-digit game code. Returns nil, nil when the game is unknown.
func (s *GameStore) GetGameByCode(ctx context.Context, gameCode string) (*models.Game, error) {
	query := `
		SELECT id, game_code, name, ticket_price, tickets_per_pack, status, created_at, updated_at
		FROM games
		WHERE game_code = $1
	`

	game := &models.Game{}
	err := s.db.QueryRow(ctx, query, gameCode).Scan(
		&game.ID,
		&game.GameCode,
		&game.Name,
		&game.TicketPrice,
		&game.TicketsPerPack,
		&game.Status,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Game not found
		}
		return nil, fmt.Errorf("failed to get game by code: %w", err)
	}
	return game, nil
}

func (s *GameStore) ListGames(ctx context.Context) ([]*models.Game, error) {
	query := `
		SELECT id, game_code, name, ticket_price, tickets_per_pack, status, created_at, updated_at
		FROM games
		ORDER BY game_code
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		var g models.Game
		err := rows.Scan(
			&g.ID,
			&g.GameCode,
			&g.Name,
			&g.TicketPrice,
			&g.TicketsPerPack,
			&g.Status,
			&g.CreatedAt,
			&g.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		games = append(games, &g)
	}
	return games, rows.Err()
}
