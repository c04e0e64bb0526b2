package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"nightstalker/internal/domain"
)

const (
	coinGeckoBaseURL = "https://api.coingecko.com"
	geckoMarketsPath = "/api/v3/coins/markets"
	geckoPageSize    = 250
)

// CoinGeckoSource fetches market snapshots from the CoinGecko public API.
// The markets feed carries no listing date, so coin age comes from the
// first-seen discovery tracker.
type CoinGeckoSource struct {
	httpClient *http.Client
	baseURL    string
	discovery  *discoveryTracker
}

// NewCoinGeckoSource creates a CoinGecko candidate source.
func NewCoinGeckoSource() *CoinGeckoSource {
	return &CoinGeckoSource{
		httpClient: &http.Client{},
		baseURL:    coinGeckoBaseURL,
		discovery:  newDiscoveryTracker(),
	}
}

func (s *CoinGeckoSource) Name() string { return string(domain.SourceCoinGecko) }

type geckoMarket struct {
	Symbol       string  `json:"symbol"`
	CurrentPrice float64 `json:"current_price"`
	MarketCap    float64 `json:"market_cap"`
	TotalVolume  float64 `json:"total_volume"`
}

// Fetch returns current market snapshots as candidates.
func (s *CoinGeckoSource) Fetch(ctx context.Context) ([]domain.CoinCandidate, error) {
	url := fmt.Sprintf("%s%s?vs_currency=usd&order=volume_desc&per_page=%d&page=1", s.baseURL, geckoMarketsPath, geckoPageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build coingecko request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "coingecko request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko API error: %d", resp.StatusCode)
	}

	var markets []geckoMarket
	if err := json.NewDecoder(resp.Body).Decode(&markets); err != nil {
		return nil, errors.Wrap(err, "decode coingecko response")
	}

	now := time.Now()
	candidates := make([]domain.CoinCandidate, 0, len(markets))
	for _, m := range markets {
		symbol := domain.NormalizeSymbol(m.Symbol)

		candidates = append(candidates, domain.CoinCandidate{
			Symbol:       symbol,
			PriceUsd:     decimal.NewFromFloat(m.CurrentPrice),
			MarketCapUsd: decimal.NewFromFloat(m.MarketCap),
			Volume24hUsd: decimal.NewFromFloat(m.TotalVolume),
			AgeHours:     s.discovery.ageHours(symbol, now),
			Source:       domain.SourceCoinGecko,
		})
	}

	return candidates, nil
}
