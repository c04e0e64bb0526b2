package domain

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Source identifies which market data provider produced a candidate snapshot.
type Source string

const (
	SourceCoinMarketCap Source = "coinmarketcap"
	SourceCoinGecko     Source = "coingecko"
	SourceExchange      Source = "exchange"
)

// CoinCandidate is a market snapshot of a coin considered for purchase.
// All monetary values are quoted in USD.
type CoinCandidate struct {
	Symbol       string
	PriceUsd     decimal.Decimal
	MarketCapUsd decimal.Decimal
	Volume24hUsd decimal.Decimal
	AgeHours     float64
	Source       Source
}

// NormalizeSymbol returns the canonical ticker representation used for
// deduplication and position lookups.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Validate checks the invariants that must hold for any candidate crossing
// the gateway boundary.
func (c CoinCandidate) Validate() error {
	if NormalizeSymbol(c.Symbol) == "" {
		return errors.New("candidate symbol is empty")
	}
	if c.AgeHours < 0 {
		return errors.Errorf("candidate %s has negative age %.2f", c.Symbol, c.AgeHours)
	}
	return nil
}
