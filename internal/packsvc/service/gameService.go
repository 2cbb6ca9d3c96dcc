package service

import (
	"context"
	"fmt"

	"github.com/scratchpos/lottery-services/internal/packsvc/models"
)

type GameService struct {
	gameStore GameStore
}

func NewGameService(gameStore GameStore) *GameService {
	return &GameService{gameStore: gameStore}
}

func (s *GameService) GetGameByCode(ctx context.Context, gameCode string) (*models.Game, error) {
	game, err := s.gameStore.GetGameByCode(ctx, gameCode)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameCode)
	}
	return game, nil
}

func (s *GameService) ListGames(ctx context.Context) ([]*models.Game, error) {
	return s.gameStore.ListGames(ctx)
}
