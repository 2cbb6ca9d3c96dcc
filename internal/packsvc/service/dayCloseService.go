package service

import (
	"context"
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/scratchpos/lottery-services/internal/clock"
	"github.com/scratchpos/lottery-services/internal/packsvc/models"
	"github.com/scratchpos/lottery-services/internal/packsvc/reconcile"
	"github.com/scratchpos/lottery-services/internal/packsvc/shiftclose"
)

type ShiftStore interface {
	GetShiftByID(ctx context.Context, shiftID int64) (*models.Shift, error)
	OpenShift(ctx context.Context, storeID int64) (*models.Shift, error)
	UpdateShiftStatus(ctx context.Context, shiftID int64, status models.ShiftStatus) error
	CreateVarianceApproval(ctx context.Context, a *models.VarianceApproval) (*models.VarianceApproval, error)
}

// DayCloseService orchestrates a shift or day close: it assembles the
// snapshot the reconciliation engine needs, resolves each bin scan, and
// drives the variance approval funnel, persisting every step.
type DayCloseService struct {
	packs   PackStore
	returns ReturnedPackStore
	games   GameStore
	shifts  ShiftStore
	packSvc *PackService
	recon   *reconcile.Engine
	// tolerance is the per-bin ticket difference allowed before a
	// close needs a variance sign-off.
	tolerance int
	clock     clock.Clock
}

func NewDayCloseService(packs PackStore, returns ReturnedPackStore, games GameStore,
	shifts ShiftStore, packSvc *PackService, recon *reconcile.Engine,
	tolerance int, clk clock.Clock) *DayCloseService {
	return &DayCloseService{
		packs:     packs,
		returns:   returns,
		games:     games,
		shifts:    shifts,
		packSvc:   packSvc,
		recon:     recon,
		tolerance: tolerance,
		clock:     clk,
	}
}

// OpenShift starts a fresh shift for a store.
func (s *DayCloseService) OpenShift(ctx context.Context, storeID int64) (*models.Shift, error) {
	return s.shifts.OpenShift(ctx, storeID)
}

// BuildSnapshot fetches the active packs, returned records and game
// metadata for one store as the plain snapshot the reconciliation engine
// consumes. The engine itself never touches storage.
func (s *DayCloseService) BuildSnapshot(ctx context.Context, storeID int64) (reconcile.Snapshot, error) {
	snap := reconcile.Snapshot{
		ActiveByKey:   map[reconcile.Key]*models.Pack{},
		ReturnedByKey: map[reconcile.Key]models.ReturnedPackRecord{},
		GamesByCode:   map[string]models.Game{},
	}

	active, err := s.packs.GetActivePacks(ctx, storeID)
	if err != nil {
		return snap, fmt.Errorf("failed to load active packs: %w", err)
	}
	for _, p := range active {
		snap.ActiveByKey[reconcile.Key{GameCode: p.GameCode, PackNumber: p.PackNumber}] = p
	}

	returned, err := s.returns.ListReturnedPacks(ctx, storeID)
	if err != nil {
		return snap, fmt.Errorf("failed to load returned packs: %w", err)
	}
	for _, r := range returned {
		key := reconcile.Key{GameCode: r.GameCode, PackNumber: r.PackNumber}
		if _, exists := snap.ReturnedByKey[key]; !exists {
			snap.ReturnedByKey[key] = *r
		}
	}

	games, err := s.games.ListGames(ctx)
	if err != nil {
		return snap, fmt.Errorf("failed to load games: %w", err)
	}
	for _, g := range games {
		snap.GamesByCode[g.GameCode] = *g
	}

	return snap, nil
}

// ResolveScan resolves one day-close barcode against the store's current
// snapshot. When the scan shows the pack sold through its last serial the
// depletion transition runs as a side effect.
func (s *DayCloseService) ResolveScan(ctx context.Context, storeID int64, barcode string, actualCount *int) (reconcile.Result, error) {
	snap, err := s.BuildSnapshot(ctx, storeID)
	if err != nil {
		return reconcile.Result{}, err
	}
	return s.resolve(ctx, snap, barcode, actualCount)
}

func (s *DayCloseService) resolve(ctx context.Context, snap reconcile.Snapshot, barcode string, actualCount *int) (reconcile.Result, error) {
	res, err := s.recon.ResolveScan(barcode, snap)
	if err != nil {
		return reconcile.Result{}, err
	}
	if actualCount != nil {
		res = s.recon.Confirm(res, *actualCount)
	}

	if res.PackID != nil && (res.Outcome == reconcile.Matched || res.Outcome == reconcile.Variance) {
		if res.PackDepleted {
			if _, err := s.packSvc.MarkDepleted(ctx, *res.PackID); err != nil {
				// The reconciliation result stands; depletion is retried
				// on the next scan of the pack.
				log.Errorf("failed to mark pack %d depleted: %v", *res.PackID, err)
			}
		} else {
			s.recordLastSold(ctx, *res.PackID, res.SerialPosition)
		}
	}
	return res, nil
}

// recordLastSold advances the pack's last sold serial to the scanned
// position so the next close counts only tickets sold since this one.
// The serial never moves backwards: a stale or repeated scan cannot
// erase sales already reconciled.
func (s *DayCloseService) recordLastSold(ctx context.Context, packID int64, serial int) {
	_, err := s.packs.WithPackForUpdate(ctx, packID, func(p *models.Pack) error {
		if p.Status != models.PackActive {
			return nil
		}
		if p.LastSoldSerial.Valid && p.LastSoldSerial.Int64 >= int64(serial) {
			return nil
		}
		p.LastSoldSerial = sql.NullInt64{Int64: int64(serial), Valid: true}
		p.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		log.Errorf("failed to record last sold serial for pack %d: %v", packID, err)
	}
}

// BinScanInput is one scanned ending barcode plus the count the operator
// verified for that bin.
type BinScanInput struct {
	Barcode     string `json:"barcode"`
	ActualCount *int   `json:"actual_count,omitempty"`
}

type CloseShiftResult struct {
	Status  models.ShiftStatus `json:"status"`
	Results []reconcile.Result `json:"results"`
	Summary reconcile.Summary  `json:"summary"`
}

// CloseShift runs the whole close-out for a shift: one scan per bin,
// reconciliation, and the closing funnel. When any bin differs beyond
// tolerance the shift lands in VARIANCE_REVIEW and stays there until
// ApproveVariance.
func (s *DayCloseService) CloseShift(ctx context.Context, shiftID int64, scans []BinScanInput) (*CloseShiftResult, error) {
	shift, err := s.shifts.GetShiftByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, fmt.Errorf("%w: %d", ErrShiftNotFound, shiftID)
	}

	wf := shiftclose.NewWorkflow(shift.ID, shift.Status, s.tolerance, s.clock)
	if err := wf.BeginClose(); err != nil {
		return nil, err
	}
	if err := s.shifts.UpdateShiftStatus(ctx, shift.ID, wf.Status()); err != nil {
		return nil, err
	}

	snap, err := s.BuildSnapshot(ctx, shift.StoreID)
	if err != nil {
		return nil, err
	}

	results := make([]reconcile.Result, 0, len(scans))
	for _, scan := range scans {
		res, err := s.resolve(ctx, snap, scan.Barcode, scan.ActualCount)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	if err := wf.RecordReconciliation(results); err != nil {
		return nil, err
	}
	if err := s.shifts.UpdateShiftStatus(ctx, shift.ID, wf.Status()); err != nil {
		return nil, err
	}

	return &CloseShiftResult{
		Status:  wf.Status(),
		Results: results,
		Summary: s.recon.Summarize(results),
	}, nil
}

// ApproveVariance signs off a shift stuck in VARIANCE_REVIEW and closes
// it. The justification must be non-empty after trimming.
func (s *DayCloseService) ApproveVariance(ctx context.Context, shiftID int64, reason, approvedBy string) (*models.VarianceApproval, error) {
	shift, err := s.shifts.GetShiftByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, fmt.Errorf("%w: %d", ErrShiftNotFound, shiftID)
	}

	wf := shiftclose.NewWorkflow(shift.ID, shift.Status, s.tolerance, s.clock)
	approval, err := wf.Approve(reason, approvedBy)
	if err != nil {
		return nil, err
	}

	created, err := s.shifts.CreateVarianceApproval(ctx, approval)
	if err != nil {
		return nil, err
	}
	if err := s.shifts.UpdateShiftStatus(ctx, shift.ID, wf.Status()); err != nil {
		return nil, err
	}
	return created, nil
}
