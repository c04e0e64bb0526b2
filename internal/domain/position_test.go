package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewPositionStartsOpenWithApexAtEntry(t *testing.T) {
	openedAt := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	pos, err := NewPosition("new ", decimal.NewFromInt(100), decimal.NewFromInt(10), openedAt)
	require.NoError(t, err)

	require.Equal(t, "NEW", pos.Symbol)
	require.Equal(t, PositionStatusOpen, pos.Status)
	require.True(t, pos.IsOpen())
	require.True(t, pos.ApexPrice.Equal(pos.EntryPrice))
	require.Nil(t, pos.DropStartedAt)
	require.Nil(t, pos.ClosedAt)
}

func TestNewPositionRejectsInvalidInput(t *testing.T) {
	openedAt := time.Now()

	_, err := NewPosition("", decimal.NewFromInt(100), decimal.NewFromInt(10), openedAt)
	require.Error(t, err)

	_, err = NewPosition("NEW", decimal.Zero, decimal.NewFromInt(10), openedAt)
	require.Error(t, err)

	_, err = NewPosition("NEW", decimal.NewFromInt(100), decimal.NewFromInt(-1), openedAt)
	require.Error(t, err)
}

func TestChangePct(t *testing.T) {
	pos, err := NewPosition("NEW", decimal.NewFromInt(100), decimal.NewFromInt(10), time.Now())
	require.NoError(t, err)

	require.True(t, pos.ChangePct(decimal.NewFromInt(110)).Equal(decimal.NewFromInt(10)))
	require.True(t, pos.ChangePct(decimal.NewFromInt(90)).Equal(decimal.NewFromInt(-10)))
	require.True(t, pos.ChangePct(decimal.NewFromInt(100)).IsZero())
}

func TestProfitAt(t *testing.T) {
	pos, err := NewPosition("NEW", decimal.NewFromInt(100), decimal.NewFromInt(10), time.Now())
	require.NoError(t, err)

	require.True(t, pos.ProfitAt(decimal.NewFromInt(110)).Equal(decimal.NewFromInt(100)))
	require.True(t, pos.ProfitAt(decimal.NewFromInt(95)).Equal(decimal.NewFromInt(-50)))
}

func TestSellEventComputesProfitAndHoldingTime(t *testing.T) {
	openedAt := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	pos, err := NewPosition("NEW", decimal.NewFromInt(100), decimal.NewFromInt(10), openedAt)
	require.NoError(t, err)

	fill := Fill{Price: decimal.NewFromInt(110), Quantity: pos.Amount}
	event := NewSellEvent("new_coin", pos, fill, "profit_target", "USDT", openedAt.Add(90*time.Second))

	require.Equal(t, EventSell, event.Type)
	require.True(t, event.Payload.Profit.Equal(decimal.NewFromInt(100)))
	require.True(t, event.Payload.ProfitPct.Equal(decimal.NewFromInt(10)))
	require.Equal(t, int64(90), event.Payload.HoldingSeconds)
	require.Equal(t, "profit_target", event.Payload.Reason)
}

func TestCandidateValidate(t *testing.T) {
	valid := CoinCandidate{Symbol: "NEW", PriceUsd: decimal.NewFromInt(1), AgeHours: 2}
	require.NoError(t, valid.Validate())

	require.Error(t, CoinCandidate{PriceUsd: decimal.NewFromInt(1)}.Validate())
	require.Error(t, CoinCandidate{Symbol: "NEW", AgeHours: -1}.Validate())
}

func TestNormalizeSymbol(t *testing.T) {
	require.Equal(t, "BTC", NormalizeSymbol(" btc "))
	require.Equal(t, "ETH", NormalizeSymbol("ETH"))
	require.Equal(t, "", NormalizeSymbol("  "))
}
