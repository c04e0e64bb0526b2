package domain

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// PositionStatus is the lifecycle state of a trade.
type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "open"
	PositionStatusClosed PositionStatus = "closed"
)

// Position is an open or closed trade. ApexPrice and DropStartedAt are the
// monitor's tracking fields: ApexPrice is monotonically non-decreasing while
// the position is open and DropStartedAt marks the first tick that stayed
// below the apex. Closed positions are retained for audit, never deleted.
type Position struct {
	ID            uint
	Symbol        string
	EntryPrice    decimal.Decimal
	Amount        decimal.Decimal
	OpenedAt      time.Time
	Status        PositionStatus
	ApexPrice     decimal.Decimal
	DropStartedAt *time.Time
	ClosedAt      *time.Time
	ClosePrice    decimal.Decimal
	Profit        decimal.Decimal
	ProfitPct     decimal.Decimal
}

// NewPosition constructs an open position created by a successful buy.
// The apex starts at the entry price and no drop is pending.
func NewPosition(symbol string, entryPrice, amount decimal.Decimal, openedAt time.Time) (*Position, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, errors.New("position symbol is empty")
	}
	if entryPrice.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("entry price must be greater than zero")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("position amount must be greater than zero")
	}

	return &Position{
		Symbol:     symbol,
		EntryPrice: entryPrice,
		Amount:     amount,
		OpenedAt:   openedAt,
		Status:     PositionStatusOpen,
		ApexPrice:  entryPrice,
	}, nil
}

// ChangePct returns the percentage change of price relative to the entry price.
func (p *Position) ChangePct(price decimal.Decimal) decimal.Decimal {
	if p.EntryPrice.IsZero() {
		return decimal.Zero
	}
	return price.Sub(p.EntryPrice).Div(p.EntryPrice).Mul(decimal.NewFromInt(100))
}

// ProfitAt returns the realised profit if the full position were sold at price.
func (p *Position) ProfitAt(price decimal.Decimal) decimal.Decimal {
	return price.Sub(p.EntryPrice).Mul(p.Amount)
}

// IsOpen reports whether the position is still held.
func (p *Position) IsOpen() bool {
	return p != nil && p.Status == PositionStatusOpen
}

// CloseDetails carries the bookkeeping recorded when a position is closed.
type CloseDetails struct {
	ClosedAt   time.Time
	ClosePrice decimal.Decimal
	Profit     decimal.Decimal
	ProfitPct  decimal.Decimal
}
