package screener

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"nightstalker/config"
	"nightstalker/internal/domain"
)

func testConfig() config.Config {
	return config.Config{
		MaxCoinAgeHours: 24,
		MinMarketCapUsd: decimal.NewFromInt(1_000_000),
		MinVolumeUsd:    decimal.NewFromInt(100_000),
	}
}

func candidate(symbol string, price, marketCap, volume int64, ageHours float64, source domain.Source) domain.CoinCandidate {
	return domain.CoinCandidate{
		Symbol:       symbol,
		PriceUsd:     decimal.NewFromInt(price),
		MarketCapUsd: decimal.NewFromInt(marketCap),
		Volume24hUsd: decimal.NewFromInt(volume),
		AgeHours:     ageHours,
		Source:       source,
	}
}

func TestSelectCandidatesAppliesThresholds(t *testing.T) {
	cfg := testConfig()

	raw := []domain.CoinCandidate{
		candidate("OLD", 1, 5_000_000, 500_000, 48, domain.SourceCoinGecko),       // too old
		candidate("SMALL", 1, 500_000, 500_000, 2, domain.SourceCoinGecko),       // cap too low
		candidate("THIN", 1, 5_000_000, 50_000, 2, domain.SourceCoinGecko),       // volume too low
		candidate("FREE", 0, 5_000_000, 500_000, 2, domain.SourceCoinGecko),      // zero price
		candidate("GOOD", 1, 5_000_000, 500_000, 2, domain.SourceCoinMarketCap),  // passes
		candidate("ALSO", 2, 10_000_000, 500_000, 3, domain.SourceCoinMarketCap), // passes
	}

	selected := SelectCandidates(raw, cfg)

	require.Len(t, selected, 2)
	for _, c := range selected {
		require.LessOrEqual(t, c.AgeHours, cfg.MaxCoinAgeHours)
		require.True(t, c.MarketCapUsd.GreaterThanOrEqual(cfg.MinMarketCapUsd))
		require.True(t, c.Volume24hUsd.GreaterThanOrEqual(cfg.MinVolumeUsd))
		require.True(t, c.PriceUsd.GreaterThan(decimal.Zero))
	}
}

func TestSelectCandidatesDedupKeepsLowestAge(t *testing.T) {
	cfg := testConfig()

	raw := []domain.CoinCandidate{
		candidate("abc", 1, 5_000_000, 500_000, 10, domain.SourceCoinGecko),
		candidate(" ABC ", 1, 6_000_000, 500_000, 2, domain.SourceCoinMarketCap),
		candidate("ABC", 1, 7_000_000, 500_000, 5, domain.SourceExchange),
	}

	selected := SelectCandidates(raw, cfg)

	require.Len(t, selected, 1)
	require.Equal(t, "ABC", selected[0].Symbol)
	require.Equal(t, 2.0, selected[0].AgeHours)
	require.Equal(t, domain.SourceCoinMarketCap, selected[0].Source)
}

func TestSelectCandidatesOrdering(t *testing.T) {
	cfg := testConfig()

	raw := []domain.CoinCandidate{
		candidate("MID", 1, 5_000_000, 500_000, 1, domain.SourceCoinGecko),
		candidate("BIG", 1, 10_000_000, 500_000, 1, domain.SourceCoinGecko),
		candidate("TIEOLD", 1, 8_000_000, 500_000, 6, domain.SourceCoinGecko),
		candidate("TIENEW", 1, 8_000_000, 500_000, 2, domain.SourceCoinGecko),
	}

	selected := SelectCandidates(raw, cfg)

	require.Len(t, selected, 4)
	require.Equal(t, "BIG", selected[0].Symbol)
	require.Equal(t, "TIENEW", selected[1].Symbol)
	require.Equal(t, "TIEOLD", selected[2].Symbol)
	require.Equal(t, "MID", selected[3].Symbol)
}

func TestSelectCandidatesEmptyInputIsNormal(t *testing.T) {
	selected := SelectCandidates(nil, testConfig())
	require.Empty(t, selected)
}

func TestSelectCandidatesNegativeAgeNeverEligible(t *testing.T) {
	raw := []domain.CoinCandidate{
		candidate("NEG", 1, 5_000_000, 500_000, -1, domain.SourceCoinGecko),
	}
	require.Empty(t, SelectCandidates(raw, testConfig()))
}
