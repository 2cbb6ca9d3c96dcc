package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scratchpos/lottery-services/internal/clock"
	"github.com/scratchpos/lottery-services/internal/packsvc/lifecycle"
	"github.com/scratchpos/lottery-services/internal/packsvc/models"
)

var svcNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type packFixture struct {
	svc     *PackService
	packs   *fakePackStore
	bins    *fakeBinStore
	returns *fakeReturnedPackStore
}

func newPackFixture() packFixture {
	packs := newFakePackStore()
	bins := newFakeBinStore(
		&models.Bin{ID: 1, StoreID: 1, BinNo: 1},
		&models.Bin{ID: 2, StoreID: 1, BinNo: 2},
	)
	games := newFakeGameStore(&models.Game{
		ID: 1, GameCode: "0033", Name: "Lucky 7s",
		TicketPrice: decimal.NewFromInt(5), TicketsPerPack: 150, Status: "active",
	})
	returns := newFakeReturnedPackStore()
	engine := lifecycle.NewEngine(clock.NewFixed(svcNow))
	return packFixture{
		svc:     NewPackService(packs, bins, games, returns, engine),
		packs:   packs,
		bins:    bins,
		returns: returns,
	}
}

func receiveInput(packNumber string) lifecycle.ReceiveInput {
	return lifecycle.ReceiveInput{
		StoreID:     1,
		GameCode:    "0033",
		PackNumber:  packNumber,
		SerialStart: 0,
		SerialEnd:   149,
	}
}

func TestPackServiceReceive(t *testing.T) {
	ctx := context.Background()
	f := newPackFixture()

	p, upcs, err := f.svc.Receive(ctx, receiveInput("5633005"))
	require.NoError(t, err)
	assert.Equal(t, models.PackReceived, p.Status)
	assert.NotZero(t, p.ID)

	require.Len(t, upcs, 150, "one UPC per ticket to print")
	assert.Equal(t, "035633005000", upcs[0])
	assert.Equal(t, "035633005149", upcs[149])

	_, _, err = f.svc.Receive(ctx, receiveInput("5633005"))
	assert.ErrorIs(t, err, lifecycle.ErrDuplicatePack)

	_, _, err = f.svc.Receive(ctx, lifecycle.ReceiveInput{
		StoreID: 1, GameCode: "9999", PackNumber: "1", SerialEnd: 10,
	})
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestPackServiceReceiveBatch(t *testing.T) {
	ctx := context.Background()
	f := newPackFixture()

	// Second scan duplicates the first; third is an unknown game; fourth
	// is malformed. Each item reports independently.
	barcodes := []string{
		"003356330050001234567890",
		"003356330050001234567890",
		"999911111110001234567890",
		"garbage",
	}

	results := f.svc.ReceiveBatch(ctx, 1, barcodes)
	require.Len(t, results, 4)

	assert.Equal(t, BatchCreated, results[0].Status)
	require.NotNil(t, results[0].Pack)
	assert.Equal(t, 150, results[0].Pack.TicketCount, "count derived from game metadata")

	assert.Equal(t, BatchDuplicate, results[1].Status)
	assert.Equal(t, BatchGameNotFound, results[2].Status)
	assert.Equal(t, BatchError, results[3].Status)
	assert.NotEmpty(t, results[3].Error)
}

func TestPackServiceGetPack(t *testing.T) {
	ctx := context.Background()
	f := newPackFixture()

	p, _, err := f.svc.Receive(ctx, receiveInput("5633005"))
	require.NoError(t, err)

	got, err := f.svc.GetPack(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = f.svc.GetPack(ctx, 9999)
	assert.ErrorIs(t, err, ErrPackNotFound)
}

func TestPackServiceActivate(t *testing.T) {
	ctx := context.Background()
	f := newPackFixture()

	p, _, err := f.svc.Receive(ctx, receiveInput("5633005"))
	require.NoError(t, err)

	activated, err := f.svc.Activate(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PackActive, activated.Status)
	assert.Equal(t, int64(1), activated.BinID.Int64)

	bin, err := f.bins.GetBinByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, p.ID, bin.PackID.Int64, "bin points back at its pack")

	t.Run("occupied bin refused", func(t *testing.T) {
		q, _, err := f.svc.Receive(ctx, receiveInput("5633006"))
		require.NoError(t, err)
		_, err = f.svc.Activate(ctx, q.ID, 1)
		assert.ErrorIs(t, err, lifecycle.ErrBinOccupied)

		stored, err := f.packs.GetPackByID(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PackReceived, stored.Status, "failed transition leaves the pack untouched")
	})

	t.Run("double activate refused", func(t *testing.T) {
		_, err := f.svc.Activate(ctx, p.ID, 2)
		assert.ErrorIs(t, err, lifecycle.ErrInvalidStateTransition)
	})

	t.Run("unknown pack and bin", func(t *testing.T) {
		_, err := f.svc.Activate(ctx, 9999, 1)
		assert.ErrorIs(t, err, ErrPackNotFound)

		q, _, err := f.svc.Receive(ctx, receiveInput("5633007"))
		require.NoError(t, err)
		_, err = f.svc.Activate(ctx, q.ID, 9999)
		assert.ErrorIs(t, err, ErrBinNotFound)
	})
}

func TestPackServiceReturn(t *testing.T) {
	ctx := context.Background()
	f := newPackFixture()

	p, _, err := f.svc.Receive(ctx, receiveInput("5633005"))
	require.NoError(t, err)
	_, err = f.svc.Activate(ctx, p.ID, 1)
	require.NoError(t, err)

	last := 28
	rec, err := f.svc.Return(ctx, p.ID, lifecycle.ReturnInput{
		Reason:         "damaged pack",
		LastSoldSerial: &last,
	})
	require.NoError(t, err)

	assert.Equal(t, 29, rec.TicketsSoldOnReturn)
	assert.True(t, rec.ReturnSalesAmount.Equal(decimal.NewFromInt(145)))
	assert.Equal(t, int64(1), rec.BinNo.Int64, "snapshot captures the display position")
	assert.Equal(t, "Lucky 7s", rec.GameName)

	bin, err := f.bins.GetBinByID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, bin.PackID.Valid, "bin freed on return")

	stored, err := f.packs.GetPackByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PackReturned, stored.Status)

	_, err = f.svc.Return(ctx, p.ID, lifecycle.ReturnInput{Reason: "again"})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidStateTransition)
}

func TestPackServiceMarkDepleted(t *testing.T) {
	ctx := context.Background()
	f := newPackFixture()

	p, _, err := f.svc.Receive(ctx, receiveInput("5633005"))
	require.NoError(t, err)
	_, err = f.svc.Activate(ctx, p.ID, 1)
	require.NoError(t, err)

	depleted, err := f.svc.MarkDepleted(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PackDepleted, depleted.Status)
	assert.Equal(t, sql.NullInt64{}, depleted.BinID)

	bin, err := f.bins.GetBinByID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, bin.PackID.Valid, "bin freed on depletion")
}
