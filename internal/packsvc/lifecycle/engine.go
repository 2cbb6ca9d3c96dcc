package lifecycle

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/scratchpos/lottery-services/internal/clock"
	"github.com/scratchpos/lottery-services/internal/packsvc/models"
	"github.com/scratchpos/lottery-services/internal/packsvc/ticket"
)

// Engine owns the pack state machine. It mutates packs in memory and
// leaves persistence to the caller; the caller must also serialize calls
// per pack (row lock or single writer), the engine assumes at most one
// concurrent transition per pack.
type Engine struct {
	clock clock.Clock
}

func NewEngine(clk clock.Clock) *Engine {
	return &Engine{clock: clk}
}

type ReceiveInput struct {
	StoreID     int64  `json:"store_id"`
	GameCode    string `json:"game_code"`
	PackNumber  string `json:"pack_number"`
	SerialStart int    `json:"serial_start"`
	SerialEnd   int    `json:"serial_end"`
	// TicketCount overrides the serial-range count when the pack
	// manifest supplies an explicit count. Zero means derive it.
	TicketCount int `json:"ticket_count"`
}

// Receive validates a delivery and produces a pack in RECEIVED. Duplicate
// pack numbers are caught by the store's unique constraint and surfaced
// as ErrDuplicatePack at insert time.
func (e *Engine) Receive(in ReceiveInput) (*models.Pack, error) {
	if !ticket.ValidGameCode(in.GameCode) {
		return nil, fmt.Errorf("%w: %q", ticket.ErrInvalidGameCode, in.GameCode)
	}
	if !ticket.ValidPackNumber(in.PackNumber) {
		return nil, fmt.Errorf("%w: %q", ticket.ErrInvalidPackNumber, in.PackNumber)
	}
	if in.SerialStart > in.SerialEnd {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidSerialRange, in.SerialStart, in.SerialEnd)
	}

	count := in.TicketCount
	if count == 0 {
		count = in.SerialEnd - in.SerialStart + 1
	}
	if count < 1 || count > ticket.MaxTicketCount {
		return nil, fmt.Errorf("%w: %d", ticket.ErrInvalidTicketCount, count)
	}

	now := e.clock.Now()
	return &models.Pack{
		StoreID:     in.StoreID,
		GameCode:    in.GameCode,
		PackNumber:  in.PackNumber,
		SerialStart: in.SerialStart,
		SerialEnd:   in.SerialEnd,
		TicketCount: count,
		Status:      models.PackReceived,
		ReceivedAt:  now,
		UpdatedAt:   now,
	}, nil
}

// Activate puts a RECEIVED pack on display in a bin. binOccupied is the
// caller's answer to "does this bin already hold an ACTIVE pack" from the
// current snapshot.
func (e *Engine) Activate(p *models.Pack, binID int64, binOccupied bool) error {
	if !p.Status.CanTransition(models.PackActive) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, p.Status, models.PackActive)
	}
	if binOccupied {
		return fmt.Errorf("%w: bin %d", ErrBinOccupied, binID)
	}

	now := e.clock.Now()
	p.Status = models.PackActive
	p.BinID = sql.NullInt64{Int64: binID, Valid: true}
	p.ActivatedAt = sql.NullTime{Time: now, Valid: true}
	p.UpdatedAt = now
	return nil
}

// MarkDepleted closes out an ACTIVE pack whose last ticket has been sold,
// triggered when reconciliation sees the scanned serial reach serial_end.
func (e *Engine) MarkDepleted(p *models.Pack) error {
	if !p.Status.CanTransition(models.PackDepleted) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, p.Status, models.PackDepleted)
	}

	p.Status = models.PackDepleted
	p.LastSoldSerial = sql.NullInt64{Int64: int64(p.SerialEnd), Valid: true}
	p.BinID = sql.NullInt64{}
	p.UpdatedAt = e.clock.Now()
	return nil
}

type ReturnInput struct {
	Reason         string
	Notes          string
	LastSoldSerial *int
	// BinNo is the display position the pack occupied, for the snapshot.
	BinNo *int
}

// Return takes a pack out of circulation from RECEIVED or ACTIVE and
// emits the immutable returned-pack snapshot. The snapshot owns its own
// copy of every field so later mutations to the pack row cannot touch it.
func (e *Engine) Return(p *models.Pack, game *models.Game, in ReturnInput) (models.ReturnedPackRecord, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return models.ReturnedPackRecord{}, ErrReturnReasonRequired
	}
	if !p.Status.CanTransition(models.PackReturned) {
		return models.ReturnedPackRecord{}, fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, p.Status, models.PackReturned)
	}

	// Without an explicit override the serial already recorded on the
	// pack stands; returns must not erase prior sales.
	lastSold := p.LastSoldSerial
	if in.LastSoldSerial != nil {
		lastSold = sql.NullInt64{Int64: int64(*in.LastSoldSerial), Valid: true}
	}
	ticketsSold := 0
	if lastSold.Valid {
		ticketsSold = int(lastSold.Int64) - p.SerialStart + 1
		if ticketsSold < 0 {
			ticketsSold = 0
		}
	}

	price := decimal.Zero
	gameName := ""
	if game != nil {
		price = game.TicketPrice
		gameName = game.Name
	}

	now := e.clock.Now()
	rec := models.ReturnedPackRecord{
		PackID:              p.ID,
		StoreID:             p.StoreID,
		GameCode:            p.GameCode,
		GameName:            gameName,
		PackNumber:          p.PackNumber,
		ActivatedAt:         p.ActivatedAt,
		ReturnedAt:          now,
		ReturnReason:        strings.TrimSpace(in.Reason),
		LastSoldSerial:      lastSold,
		TicketsSoldOnReturn: ticketsSold,
		ReturnSalesAmount:   price.Mul(decimal.NewFromInt(int64(ticketsSold))),
	}
	if in.Notes != "" {
		rec.ReturnNotes = sql.NullString{String: in.Notes, Valid: true}
	}
	if in.BinNo != nil {
		rec.BinNo = sql.NullInt64{Int64: int64(*in.BinNo), Valid: true}
	}

	p.Status = models.PackReturned
	p.BinID = sql.NullInt64{}
	p.LastSoldSerial = lastSold
	p.UpdatedAt = now
	return rec, nil
}
