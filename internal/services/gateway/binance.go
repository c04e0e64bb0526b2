package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"nightstalker/internal/domain"
)

// BinanceSource derives candidates from the exchange's 24h ticker feed for
// pairs quoted in the configured currency. Exchange tickers carry neither a
// listing date nor capitalization, so age comes from the discovery tracker
// and MarketCapUsd stays zero; pair this source with a metadata provider or
// a zero market-cap floor.
type BinanceSource struct {
	client        *binance.Client
	quoteCurrency string
	discovery     *discoveryTracker
}

// NewBinanceSource creates an exchange-backed candidate source.
func NewBinanceSource(client *binance.Client, quoteCurrency string) *BinanceSource {
	return &BinanceSource{
		client:        client,
		quoteCurrency: domain.NormalizeSymbol(quoteCurrency),
		discovery:     newDiscoveryTracker(),
	}
}

func (s *BinanceSource) Name() string { return string(domain.SourceExchange) }

// Fetch returns one candidate per trading pair quoted in the configured currency.
func (s *BinanceSource) Fetch(ctx context.Context) ([]domain.CoinCandidate, error) {
	stats, err := s.client.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch binance 24h ticker stats")
	}

	now := time.Now()
	candidates := make([]domain.CoinCandidate, 0, len(stats))
	for _, st := range stats {
		base, ok := strings.CutSuffix(st.Symbol, s.quoteCurrency)
		if !ok || base == "" {
			continue
		}

		price, err := decimal.NewFromString(st.LastPrice)
		if err != nil {
			continue
		}
		volume, err := decimal.NewFromString(st.QuoteVolume)
		if err != nil {
			continue
		}

		symbol := domain.NormalizeSymbol(base)
		candidates = append(candidates, domain.CoinCandidate{
			Symbol:       symbol,
			PriceUsd:     price,
			Volume24hUsd: volume,
			AgeHours:     s.discovery.ageHours(symbol, now),
			Source:       domain.SourceExchange,
		})
	}

	return candidates, nil
}

// BinancePricer resolves live prices from the exchange ticker.
type BinancePricer struct {
	client        *binance.Client
	quoteCurrency string
}

// NewBinancePricer creates a Binance-backed pricer.
func NewBinancePricer(client *binance.Client, quoteCurrency string) *BinancePricer {
	return &BinancePricer{client: client, quoteCurrency: domain.NormalizeSymbol(quoteCurrency)}
}

// GetPrice fetches the current market price of symbol against the quote currency.
func (p *BinancePricer) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	pair := domain.NormalizeSymbol(symbol) + p.quoteCurrency

	prices, err := p.client.NewListPricesService().Symbol(pair).Do(ctx)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "fetch binance price for %s", pair)
	}
	if len(prices) == 0 {
		return decimal.Decimal{}, fmt.Errorf("binance API returned empty prices for %s", pair)
	}

	return decimal.NewFromString(prices[0].Price)
}
