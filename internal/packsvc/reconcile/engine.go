package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/scratchpos/lottery-services/internal/packsvc/models"
	"github.com/scratchpos/lottery-services/internal/packsvc/ticket"
)

// ErrMalformedScan wraps codec failures so callers can tell bad input
// apart from a pack that genuinely is not in the store.
var ErrMalformedScan = errors.New("scanned barcode is malformed")

// Outcome classifies one resolved day-close scan.
type Outcome string

const (
	Matched      Outcome = "MATCHED"
	Variance     Outcome = "VARIANCE"
	PackNotFound Outcome = "PACK_NOT_FOUND"
	PackReturned Outcome = "PACK_RETURNED"
)

// Key identifies a pack across the active and returned sets.
type Key struct {
	GameCode   string
	PackNumber string
}

// Snapshot is the plain data handed over by the persistence collaborator
// before each reconciliation run. The engine never reads storage itself.
type Snapshot struct {
	ActiveByKey   map[Key]*models.Pack
	ReturnedByKey map[Key]models.ReturnedPackRecord
	GamesByCode   map[string]models.Game
}

// Result is the structured outcome for one bin scan. The display fields
// (game name, pack number, return reason/date) are what the collaborator
// must surface to the operator.
type Result struct {
	Outcome    Outcome `json:"outcome"`
	BinID      *int64  `json:"bin_id,omitempty"`
	PackID     *int64  `json:"pack_id,omitempty"`
	GameName   string  `json:"game_name,omitempty"`
	PackNumber string  `json:"pack_number,omitempty"`

	// Ticket math, present for MATCHED/VARIANCE.
	SerialPosition int             `json:"serial_position,omitempty"`
	ExpectedCount  int             `json:"expected_count"`
	ActualCount    int             `json:"actual_count"`
	Difference     int             `json:"difference"`
	SalesAmount    decimal.Decimal `json:"sales_amount"`

	// PackDepleted is set when the scanned serial reached serial_end;
	// the caller should run the lifecycle depletion transition.
	PackDepleted bool `json:"pack_depleted,omitempty"`

	// Return display data, present for PACK_RETURNED.
	ReturnReason string     `json:"return_reason,omitempty"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`

	// Warning carries the dual-match inconsistency note; the active
	// match still wins.
	Warning string `json:"warning,omitempty"`
}

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// ResolveScan parses one 24-digit day-close barcode and resolves it
// against the snapshot. Lookup order: active packs first, then returned
// records, then not-found. A key present in both sets is a data
// inconsistency: the active match wins and the result carries a warning.
func (e *Engine) ResolveScan(raw string, snap Snapshot) (Result, error) {
	code, err := ticket.ParseScanBarcode(raw)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedScan, err)
	}

	key := Key{GameCode: code.GameCode, PackNumber: code.PackNumber}
	active, isActive := snap.ActiveByKey[key]
	returned, isReturned := snap.ReturnedByKey[key]

	if isActive {
		res := e.resolveActive(code, active, snap)
		if isReturned {
			res.Warning = fmt.Sprintf(
				"pack %s/%s exists as both active and returned, using active",
				key.GameCode, key.PackNumber)
			log.Warnf("reconcile: %s", res.Warning)
		}
		return res, nil
	}

	if isReturned {
		return Result{
			Outcome:      PackReturned,
			PackID:       &returned.PackID,
			GameName:     returned.GameName,
			PackNumber:   returned.PackNumber,
			ReturnReason: returned.ReturnReason,
			ReturnedAt:   &returned.ReturnedAt,
		}, nil
	}

	return Result{
		Outcome:    PackNotFound,
		PackNumber: code.PackNumber,
	}, nil
}

func (e *Engine) resolveActive(code ticket.ScanBarcode, pack *models.Pack, snap Snapshot) Result {
	// Tickets sold since the last reconciliation: from the last sold
	// serial if the pack has sold before, otherwise from serial_start.
	expected := code.SerialPosition - pack.SerialStart
	if pack.LastSoldSerial.Valid {
		expected = code.SerialPosition - int(pack.LastSoldSerial.Int64)
	}

	res := Result{
		Outcome:        Matched,
		PackID:         &pack.ID,
		PackNumber:     pack.PackNumber,
		SerialPosition: code.SerialPosition,
		ExpectedCount:  expected,
		ActualCount:    expected,
		SalesAmount:    decimal.Zero,
		PackDepleted:   code.SerialPosition >= pack.SerialEnd,
	}
	if pack.BinID.Valid {
		binID := pack.BinID.Int64
		res.BinID = &binID
	}
	if game, ok := snap.GamesByCode[pack.GameCode]; ok {
		res.GameName = game.Name
		res.SalesAmount = game.TicketPrice.Mul(decimal.NewFromInt(int64(expected)))
	}
	return res
}

// Confirm finalizes a resolved scan against the count the operator
// actually verified. A non-zero difference flips the outcome to VARIANCE;
// the signed difference feeds the variance approval workflow.
func (e *Engine) Confirm(res Result, actualCount int) Result {
	if res.Outcome != Matched && res.Outcome != Variance {
		return res
	}
	res.ActualCount = actualCount
	res.Difference = actualCount - res.ExpectedCount
	if res.Difference == 0 {
		res.Outcome = Matched
	} else {
		res.Outcome = Variance
	}
	return res
}

// Summary aggregates a close-out run across bins.
type Summary struct {
	TicketsSold   int             `json:"tickets_sold"`
	CashExpected  decimal.Decimal `json:"cash_expected"`
	TotalVariance int             `json:"total_variance"`
	Bins          int             `json:"bins"`
	Unresolved    int             `json:"unresolved"` // not-found or returned scans
}

// Summarize folds per-bin results into shift totals.
func (e *Engine) Summarize(results []Result) Summary {
	s := Summary{CashExpected: decimal.Zero}
	for _, r := range results {
		switch r.Outcome {
		case Matched, Variance:
			s.Bins++
			s.TicketsSold += r.ActualCount
			s.CashExpected = s.CashExpected.Add(r.SalesAmount)
			s.TotalVariance += r.Difference
		default:
			s.Unresolved++
		}
	}
	return s
}
