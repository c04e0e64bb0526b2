package positions

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"nightstalker/internal/domain"
)

func newPosition(t *testing.T, symbol string, openedAt time.Time) *domain.Position {
	t.Helper()
	pos, err := domain.NewPosition(symbol, decimal.NewFromInt(100), decimal.NewFromInt(10), openedAt)
	require.NoError(t, err)
	return pos
}

func TestMemoryStoreCreateAssignsIDs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	a := newPosition(t, "AAA", now)
	b := newPosition(t, "BBB", now)
	require.NoError(t, store.Create(ctx, a))
	require.NoError(t, store.Create(ctx, b))

	require.Equal(t, uint(1), a.ID)
	require.Equal(t, uint(2), b.ID)

	count, err := store.CountOpen(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestMemoryStoreListOpenOrdersByOpenedAt(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	newer := newPosition(t, "NEWER", now.Add(time.Hour))
	older := newPosition(t, "OLDER", now)
	require.NoError(t, store.Create(ctx, newer))
	require.NoError(t, store.Create(ctx, older))

	open, err := store.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	require.Equal(t, "OLDER", open[0].Symbol)
	require.Equal(t, "NEWER", open[1].Symbol)
}

func TestMemoryStoreUpdateTracking(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	pos := newPosition(t, "AAA", time.Now())
	require.NoError(t, store.Create(ctx, pos))

	dropStart := time.Now()
	apex := decimal.NewFromInt(120)
	require.NoError(t, store.UpdateTracking(ctx, pos.ID, apex, &dropStart))

	stored, ok := store.Get(pos.ID)
	require.True(t, ok)
	require.True(t, stored.ApexPrice.Equal(apex))
	require.NotNil(t, stored.DropStartedAt)
	require.Equal(t, dropStart, *stored.DropStartedAt)
}

func TestMemoryStoreCloseRetainsPosition(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	pos := newPosition(t, "AAA", time.Now())
	require.NoError(t, store.Create(ctx, pos))

	closedAt := time.Now()
	details := domain.CloseDetails{
		ClosedAt:   closedAt,
		ClosePrice: decimal.NewFromInt(110),
		Profit:     decimal.NewFromInt(100),
		ProfitPct:  decimal.NewFromInt(10),
	}
	require.NoError(t, store.Close(ctx, pos.ID, details))

	count, err := store.CountOpen(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	// closed positions are retained, not deleted
	stored, ok := store.Get(pos.ID)
	require.True(t, ok)
	require.Equal(t, domain.PositionStatusClosed, stored.Status)
	require.True(t, stored.ClosePrice.Equal(details.ClosePrice))
	require.True(t, stored.Profit.Equal(details.Profit))
	require.NotNil(t, stored.ClosedAt)
}

func TestMemoryStoreCloseTwiceFails(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	pos := newPosition(t, "AAA", time.Now())
	require.NoError(t, store.Create(ctx, pos))

	details := domain.CloseDetails{ClosedAt: time.Now(), ClosePrice: decimal.NewFromInt(110)}
	require.NoError(t, store.Close(ctx, pos.ID, details))

	err := store.Close(ctx, pos.ID, details)
	require.ErrorIs(t, err, ErrNotOpen)
}

func TestMemoryStoreUpdateTrackingOnClosedFails(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	pos := newPosition(t, "AAA", time.Now())
	require.NoError(t, store.Create(ctx, pos))
	require.NoError(t, store.Close(ctx, pos.ID, domain.CloseDetails{ClosedAt: time.Now(), ClosePrice: decimal.NewFromInt(90)}))

	err := store.UpdateTracking(ctx, pos.ID, decimal.NewFromInt(120), nil)
	require.ErrorIs(t, err, ErrNotOpen)
}

func TestMemoryStoreUnknownIDFails(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.ErrorIs(t, store.UpdateTracking(ctx, 42, decimal.NewFromInt(1), nil), ErrNotOpen)
	require.ErrorIs(t, store.Close(ctx, 42, domain.CloseDetails{}), ErrNotOpen)
}
