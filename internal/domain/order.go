package domain

import "github.com/shopspring/decimal"

// Side is the direction of a market order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Fill is the executed result of a market order.
type Fill struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}
