package service

import (
	"context"
	"fmt"

	"github.com/scratchpos/lottery-services/internal/packsvc/lifecycle"
	"github.com/scratchpos/lottery-services/internal/packsvc/models"
)

// In-memory stand-ins for the pgx stores.

type fakePackStore struct {
	nextID int64
	packs  map[int64]*models.Pack
}

func newFakePackStore() *fakePackStore {
	return &fakePackStore{nextID: 1, packs: map[int64]*models.Pack{}}
}

func (f *fakePackStore) CreatePack(_ context.Context, p *models.Pack) (*models.Pack, error) {
	for _, existing := range f.packs {
		if existing.StoreID == p.StoreID && existing.PackNumber == p.PackNumber {
			return nil, fmt.Errorf("%w: %s", lifecycle.ErrDuplicatePack, p.PackNumber)
		}
	}
	cp := *p
	cp.ID = f.nextID
	f.nextID++
	f.packs[cp.ID] = &cp
	return &cp, nil
}

func (f *fakePackStore) GetPackByID(_ context.Context, packID int64) (*models.Pack, error) {
	p, ok := f.packs[packID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePackStore) GetActivePacks(_ context.Context, storeID int64) ([]*models.Pack, error) {
	var out []*models.Pack
	for _, p := range f.packs {
		if p.StoreID == storeID && p.Status == models.PackActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// WithPackForUpdate mirrors the store's transactional contract: fn runs
// on a copy and nothing persists unless it succeeds.
func (f *fakePackStore) WithPackForUpdate(_ context.Context, packID int64, fn func(p *models.Pack) error) (*models.Pack, error) {
	p, ok := f.packs[packID]
	if !ok {
		return nil, nil
	}
	cp := *p
	if err := fn(&cp); err != nil {
		return nil, err
	}
	f.packs[packID] = &cp
	out := cp
	return &out, nil
}

type fakeBinStore struct {
	bins map[int64]*models.Bin
}

func newFakeBinStore(bins ...*models.Bin) *fakeBinStore {
	f := &fakeBinStore{bins: map[int64]*models.Bin{}}
	for _, b := range bins {
		f.bins[b.ID] = b
	}
	return f
}

func (f *fakeBinStore) GetBinByID(_ context.Context, binID int64) (*models.Bin, error) {
	b, ok := f.bins[binID]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBinStore) GetBinsByStore(_ context.Context, storeID int64) ([]*models.Bin, error) {
	var out []*models.Bin
	for _, b := range f.bins {
		if b.StoreID == storeID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeBinStore) SetBinPack(_ context.Context, binID, packID int64) (bool, error) {
	b, ok := f.bins[binID]
	if !ok || b.PackID.Valid {
		return false, nil
	}
	b.PackID.Int64 = packID
	b.PackID.Valid = true
	return true, nil
}

func (f *fakeBinStore) ClearBinPack(_ context.Context, binID int64) error {
	if b, ok := f.bins[binID]; ok {
		b.PackID.Int64 = 0
		b.PackID.Valid = false
	}
	return nil
}

type fakeGameStore struct {
	games map[string]*models.Game
}

func newFakeGameStore(games ...*models.Game) *fakeGameStore {
	f := &fakeGameStore{games: map[string]*models.Game{}}
	for _, g := range games {
		f.games[g.GameCode] = g
	}
	return f
}

func (f *fakeGameStore) GetGameByCode(_ context.Context, gameCode string) (*models.Game, error) {
	g, ok := f.games[gameCode]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (f *fakeGameStore) ListGames(_ context.Context) ([]*models.Game, error) {
	var out []*models.Game
	for _, g := range f.games {
		cp := *g
		out = append(out, &cp)
	}
	return out, nil
}

type fakeReturnedPackStore struct {
	nextID  int64
	records []*models.ReturnedPackRecord
}

func newFakeReturnedPackStore() *fakeReturnedPackStore {
	return &fakeReturnedPackStore{nextID: 1}
}

func (f *fakeReturnedPackStore) CreateReturnedPack(_ context.Context, rec *models.ReturnedPackRecord) (*models.ReturnedPackRecord, error) {
	cp := *rec
	cp.ID = f.nextID
	f.nextID++
	f.records = append(f.records, &cp)
	out := cp
	return &out, nil
}

func (f *fakeReturnedPackStore) ListReturnedPacks(_ context.Context, storeID int64) ([]*models.ReturnedPackRecord, error) {
	var out []*models.ReturnedPackRecord
	for _, r := range f.records {
		if r.StoreID == storeID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeShiftStore struct {
	shifts    map[int64]*models.Shift
	approvals []*models.VarianceApproval
}

func newFakeShiftStore(shifts ...*models.Shift) *fakeShiftStore {
	f := &fakeShiftStore{shifts: map[int64]*models.Shift{}}
	for _, s := range shifts {
		f.shifts[s.ID] = s
	}
	return f
}

func (f *fakeShiftStore) GetShiftByID(_ context.Context, shiftID int64) (*models.Shift, error) {
	s, ok := f.shifts[shiftID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeShiftStore) OpenShift(_ context.Context, storeID int64) (*models.Shift, error) {
	s := &models.Shift{ID: int64(len(f.shifts) + 1), StoreID: storeID, Status: models.ShiftOpen}
	f.shifts[s.ID] = s
	cp := *s
	return &cp, nil
}

func (f *fakeShiftStore) UpdateShiftStatus(_ context.Context, shiftID int64, status models.ShiftStatus) error {
	s, ok := f.shifts[shiftID]
	if !ok {
		return fmt.Errorf("shift %d not found for update", shiftID)
	}
	s.Status = status
	return nil
}

func (f *fakeShiftStore) CreateVarianceApproval(_ context.Context, a *models.VarianceApproval) (*models.VarianceApproval, error) {
	cp := *a
	cp.ID = int64(len(f.approvals) + 1)
	f.approvals = append(f.approvals, &cp)
	out := cp
	return &out, nil
}
