// Package screener filters raw market candidates down to the coins eligible
// for purchase under the configured thresholds.
package screener

import (
	"sort"

	"github.com/shopspring/decimal"

	"nightstalker/config"
	"nightstalker/internal/domain"
)

// SelectCandidates applies the eligibility rules in order: coin age, market
// cap floor, 24h volume floor, positive price, then dedup by normalized
// symbol keeping the snapshot with the lowest age. The result is ordered by
// market cap descending with ties broken by ascending age, so the biggest
// fresh listings are evaluated first for the limited trade slots.
//
// It is a pure function; an empty result is a normal outcome, not an error.
func SelectCandidates(raw []domain.CoinCandidate, cfg config.Config) []domain.CoinCandidate {
	bySymbol := make(map[string]domain.CoinCandidate, len(raw))

	for _, c := range raw {
		if !eligible(c, cfg) {
			continue
		}

		symbol := domain.NormalizeSymbol(c.Symbol)
		existing, ok := bySymbol[symbol]
		if ok && existing.AgeHours <= c.AgeHours {
			continue
		}
		c.Symbol = symbol
		bySymbol[symbol] = c
	}

	selected := make([]domain.CoinCandidate, 0, len(bySymbol))
	for _, c := range bySymbol {
		selected = append(selected, c)
	}

	sort.Slice(selected, func(i, j int) bool {
		if !selected[i].MarketCapUsd.Equal(selected[j].MarketCapUsd) {
			return selected[i].MarketCapUsd.GreaterThan(selected[j].MarketCapUsd)
		}
		return selected[i].AgeHours < selected[j].AgeHours
	})

	return selected
}

func eligible(c domain.CoinCandidate, cfg config.Config) bool {
	if c.AgeHours < 0 || c.AgeHours > cfg.MaxCoinAgeHours {
		return false
	}
	if c.MarketCapUsd.LessThan(cfg.MinMarketCapUsd) {
		return false
	}
	if c.Volume24hUsd.LessThan(cfg.MinVolumeUsd) {
		return false
	}
	if c.PriceUsd.LessThanOrEqual(decimal.Zero) {
		return false
	}
	return true
}
