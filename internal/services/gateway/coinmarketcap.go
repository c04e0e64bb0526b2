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
	coinMarketCapBaseURL = "https://pro-api.coinmarketcap.com"
	cmcListingsPath      = "/v1/cryptocurrency/listings/latest"
	cmcAPIKeyHeader      = "X-CMC_PRO_API_KEY"
	cmcPageSize          = 200
)

// CoinMarketCapSource fetches the latest listings from the CoinMarketCap
// pro API. The listing date is authoritative, so coin age comes straight
// from the feed.
type CoinMarketCapSource struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewCoinMarketCapSource creates a CoinMarketCap candidate source.
func NewCoinMarketCapSource(apiKey string) *CoinMarketCapSource {
	return &CoinMarketCapSource{
		httpClient: &http.Client{},
		baseURL:    coinMarketCapBaseURL,
		apiKey:     apiKey,
	}
}

func (s *CoinMarketCapSource) Name() string { return string(domain.SourceCoinMarketCap) }

type cmcListingsResponse struct {
	Data []struct {
		Symbol    string `json:"symbol"`
		DateAdded string `json:"date_added"`
		Quote     struct {
			USD struct {
				Price     float64 `json:"price"`
				MarketCap float64 `json:"market_cap"`
				Volume24h float64 `json:"volume_24h"`
			} `json:"USD"`
		} `json:"quote"`
	} `json:"data"`
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}

// Fetch returns the newest listings as candidate snapshots.
func (s *CoinMarketCapSource) Fetch(ctx context.Context) ([]domain.CoinCandidate, error) {
	url := fmt.Sprintf("%s%s?sort=date_added&sort_dir=desc&limit=%d&convert=USD", s.baseURL, cmcListingsPath, cmcPageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build coinmarketcap request")
	}
	req.Header.Set(cmcAPIKeyHeader, s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "coinmarketcap request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coinmarketcap API error: %d", resp.StatusCode)
	}

	var listings cmcListingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return nil, errors.Wrap(err, "decode coinmarketcap response")
	}
	if listings.Status.ErrorCode != 0 {
		return nil, fmt.Errorf("coinmarketcap API error %d: %s", listings.Status.ErrorCode, listings.Status.ErrorMessage)
	}

	now := time.Now()
	candidates := make([]domain.CoinCandidate, 0, len(listings.Data))
	for _, item := range listings.Data {
		ageHours := 0.0
		if added, parseErr := time.Parse(time.RFC3339, item.DateAdded); parseErr == nil {
			ageHours = now.Sub(added).Hours()
		}

		candidates = append(candidates, domain.CoinCandidate{
			Symbol:       domain.NormalizeSymbol(item.Symbol),
			PriceUsd:     decimal.NewFromFloat(item.Quote.USD.Price),
			MarketCapUsd: decimal.NewFromFloat(item.Quote.USD.MarketCap),
			Volume24hUsd: decimal.NewFromFloat(item.Quote.USD.Volume24h),
			AgeHours:     ageHours,
			Source:       domain.SourceCoinMarketCap,
		})
	}

	return candidates, nil
}
