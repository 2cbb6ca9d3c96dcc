package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/scratchpos/lottery-services/internal/packsvc/lifecycle"
	"github.com/scratchpos/lottery-services/internal/packsvc/models"
	"github.com/scratchpos/lottery-services/internal/packsvc/ticket"
)

// Store interfaces are satisfied by the pgx stores; services only see
// these so tests can run against in-memory fakes.

type PackStore interface {
	CreatePack(ctx context.Context, p *models.Pack) (*models.Pack, error)
	GetPackByID(ctx context.Context, packID int64) (*models.Pack, error)
	GetActivePacks(ctx context.Context, storeID int64) ([]*models.Pack, error)
	// WithPackForUpdate runs fn on the row-locked pack and persists the
	// mutation atomically. (nil, nil) means the pack does not exist.
	WithPackForUpdate(ctx context.Context, packID int64, fn func(p *models.Pack) error) (*models.Pack, error)
}

type BinStore interface {
	GetBinByID(ctx context.Context, binID int64) (*models.Bin, error)
	GetBinsByStore(ctx context.Context, storeID int64) ([]*models.Bin, error)
	SetBinPack(ctx context.Context, binID, packID int64) (bool, error)
	ClearBinPack(ctx context.Context, binID int64) error
}

type GameStore interface {
	GetGameByCode(ctx context.Context, gameCode string) (*models.Game, error)
	ListGames(ctx context.Context) ([]*models.Game, error)
}

type ReturnedPackStore interface {
	CreateReturnedPack(ctx context.Context, rec *models.ReturnedPackRecord) (*models.ReturnedPackRecord, error)
	ListReturnedPacks(ctx context.Context, storeID int64) ([]*models.ReturnedPackRecord, error)
}

// PackService drives the pack lifecycle engine and persists its
// transitions. Every transition runs inside WithPackForUpdate, so two
// operators touching the same pack serialize on the row lock.
type PackService struct {
	packs   PackStore
	bins    BinStore
	games   GameStore
	returns ReturnedPackStore
	engine  *lifecycle.Engine
}

func NewPackService(packs PackStore, bins BinStore, games GameStore,
	returns ReturnedPackStore, engine *lifecycle.Engine) *PackService {
	return &PackService{
		packs:   packs,
		bins:    bins,
		games:   games,
		returns: returns,
		engine:  engine,
	}
}

// Receive validates and persists one delivered pack and returns the
// UPC set to print for its tickets.
func (s *PackService) Receive(ctx context.Context, in lifecycle.ReceiveInput) (*models.Pack, []string, error) {
	game, err := s.games.GetGameByCode(ctx, in.GameCode)
	if err != nil {
		return nil, nil, err
	}
	if game == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrGameNotFound, in.GameCode)
	}

	p, err := s.engine.Receive(in)
	if err != nil {
		return nil, nil, err
	}
	created, err := s.packs.CreatePack(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	upcs, err := ticket.GenerateUPCs(created.GameCode, created.PackNumber, created.TicketCount)
	if err != nil {
		return nil, nil, err
	}
	return created, upcs, nil
}

// BatchItemStatus classifies one item of a batch reception.
type BatchItemStatus string

const (
	BatchCreated      BatchItemStatus = "created"
	BatchDuplicate    BatchItemStatus = "duplicate"
	BatchGameNotFound BatchItemStatus = "game-not-found"
	BatchError        BatchItemStatus = "error"
)

type BatchItemResult struct {
	Barcode string          `json:"barcode"`
	Status  BatchItemStatus `json:"status"`
	Pack    *models.Pack    `json:"pack,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReceiveBatch processes many scanned pack barcodes independently. There
// is no shared transaction: partial success is expected and each item
// reports its own outcome.
func (s *PackService) ReceiveBatch(ctx context.Context, storeID int64, barcodes []string) []BatchItemResult {
	results := make([]BatchItemResult, 0, len(barcodes))
	for _, raw := range barcodes {
		results = append(results, s.receiveScanned(ctx, storeID, raw))
	}
	return results
}

func (s *PackService) receiveScanned(ctx context.Context, storeID int64, raw string) BatchItemResult {
	res := BatchItemResult{Barcode: raw}

	code, err := ticket.ParseScanBarcode(raw)
	if err != nil {
		res.Status = BatchError
		res.Error = err.Error()
		return res
	}

	game, err := s.games.GetGameByCode(ctx, code.GameCode)
	if err != nil {
		res.Status = BatchError
		res.Error = err.Error()
		return res
	}
	if game == nil {
		res.Status = BatchGameNotFound
		res.Error = fmt.Sprintf("game %s not found", code.GameCode)
		return res
	}

	pack, _, err := s.Receive(ctx, lifecycle.ReceiveInput{
		StoreID:     storeID,
		GameCode:    code.GameCode,
		PackNumber:  code.PackNumber,
		SerialStart: 0,
		SerialEnd:   game.TicketsPerPack - 1,
	})
	if err != nil {
		if errors.Is(err, lifecycle.ErrDuplicatePack) {
			res.Status = BatchDuplicate
		} else {
			res.Status = BatchError
		}
		res.Error = err.Error()
		return res
	}

	res.Status = BatchCreated
	res.Pack = pack
	return res
}

// GetPack fetches one pack by id.
func (s *PackService) GetPack(ctx context.Context, packID int64) (*models.Pack, error) {
	pack, err := s.packs.GetPackByID(ctx, packID)
	if err != nil {
		return nil, err
	}
	if pack == nil {
		return nil, fmt.Errorf("%w: %d", ErrPackNotFound, packID)
	}
	return pack, nil
}

// Activate puts a received pack on display in a bin.
func (s *PackService) Activate(ctx context.Context, packID, binID int64) (*models.Pack, error) {
	pack, err := s.packs.WithPackForUpdate(ctx, packID, func(p *models.Pack) error {
		bin, err := s.bins.GetBinByID(ctx, binID)
		if err != nil {
			return err
		}
		if bin == nil {
			return fmt.Errorf("%w: %d", ErrBinNotFound, binID)
		}

		if err := s.engine.Activate(p, binID, bin.PackID.Valid); err != nil {
			return err
		}

		// The conditional bind loses to a concurrent activation instead
		// of overwriting the bin.
		bound, err := s.bins.SetBinPack(ctx, binID, p.ID)
		if err != nil {
			return err
		}
		if !bound {
			return fmt.Errorf("%w: bin %d", lifecycle.ErrBinOccupied, binID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if pack == nil {
		return nil, fmt.Errorf("%w: %d", ErrPackNotFound, packID)
	}
	return pack, nil
}

// Return takes a pack out of circulation and persists its snapshot.
func (s *PackService) Return(ctx context.Context, packID int64, in lifecycle.ReturnInput) (*models.ReturnedPackRecord, error) {
	var rec models.ReturnedPackRecord
	var hadBin bool
	var boundBin int64

	pack, err := s.packs.WithPackForUpdate(ctx, packID, func(p *models.Pack) error {
		game, err := s.games.GetGameByCode(ctx, p.GameCode)
		if err != nil {
			return err
		}

		hadBin = p.BinID.Valid
		if hadBin {
			boundBin = p.BinID.Int64
			bin, err := s.bins.GetBinByID(ctx, boundBin)
			if err != nil {
				return err
			}
			if bin != nil && in.BinNo == nil {
				binNo := bin.BinNo
				in.BinNo = &binNo
			}
		}

		r, err := s.engine.Return(p, game, in)
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if pack == nil {
		return nil, fmt.Errorf("%w: %d", ErrPackNotFound, packID)
	}

	created, err := s.returns.CreateReturnedPack(ctx, &rec)
	if err != nil {
		return nil, err
	}
	if hadBin {
		if err := s.bins.ClearBinPack(ctx, boundBin); err != nil {
			return nil, err
		}
	}
	return created, nil
}

// MarkDepleted closes out a sold-through pack and frees its bin.
func (s *PackService) MarkDepleted(ctx context.Context, packID int64) (*models.Pack, error) {
	var hadBin bool
	var boundBin int64

	pack, err := s.packs.WithPackForUpdate(ctx, packID, func(p *models.Pack) error {
		hadBin = p.BinID.Valid
		boundBin = p.BinID.Int64
		return s.engine.MarkDepleted(p)
	})
	if err != nil {
		return nil, err
	}
	if pack == nil {
		return nil, fmt.Errorf("%w: %d", ErrPackNotFound, packID)
	}

	if hadBin {
		if err := s.bins.ClearBinPack(ctx, boundBin); err != nil {
			return nil, err
		}
	}
	return pack, nil
}
