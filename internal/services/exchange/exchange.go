// Package exchange wraps exchange accounts behind the order-placement
// capability the executor needs: market orders, tickers, balances.
package exchange

import (
	"context"

	"github.com/shopspring/decimal"

	"nightstalker/internal/domain"
)

// Client is the exchange account capability consumed by the strategy engine.
type Client interface {
	// SubmitMarketOrder places a market order and returns the executed fill.
	SubmitMarketOrder(ctx context.Context, symbol string, side domain.Side, quantity decimal.Decimal) (domain.Fill, error)
	// FetchTicker returns the last traded price of the pair.
	FetchTicker(ctx context.Context, symbol string) (decimal.Decimal, error)
	// FetchBalance returns the free balance of a currency.
	FetchBalance(ctx context.Context, currency string) (decimal.Decimal, error)
}
