package exchange

import (
	"context"
	"fmt"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"nightstalker/internal/domain"
)

// BybitClient implements Client on a Bybit spot account via the V5 API.
type BybitClient struct {
	client        *bybit.Client
	quoteCurrency string
}

// NewBybitClient wraps an authenticated Bybit API client.
func NewBybitClient(client *bybit.Client, quoteCurrency string) *BybitClient {
	return &BybitClient{client: client, quoteCurrency: domain.NormalizeSymbol(quoteCurrency)}
}

func (c *BybitClient) pairSymbol(symbol string) string {
	return domain.NormalizeSymbol(symbol) + c.quoteCurrency
}

// SubmitMarketOrder places a spot market order. The V5 create-order response
// carries no fill data, so the last traded price is recorded as the fill
// price for the requested quantity.
func (c *BybitClient) SubmitMarketOrder(ctx context.Context, symbol string, side domain.Side, quantity decimal.Decimal) (domain.Fill, error) {
	quantity = quantity.RoundFloor(8)
	if quantity.LessThanOrEqual(decimal.Zero) {
		return domain.Fill{}, fmt.Errorf("order quantity must be positive, got %s", quantity.String())
	}

	orderSide := bybit.SideBuy
	if side == domain.SideSell {
		orderSide = bybit.SideSell
	}

	_, err := c.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
		Category:  bybit.CategoryV5Spot,
		Symbol:    bybit.SymbolV5(c.pairSymbol(symbol)),
		Side:      orderSide,
		OrderType: bybit.OrderTypeMarket,
		Qty:       quantity.String(),
	})
	if err != nil {
		return domain.Fill{}, errors.Wrapf(err, "bybit %s order failed for %s", side, symbol)
	}

	price, err := c.FetchTicker(ctx, symbol)
	if err != nil {
		return domain.Fill{}, errors.Wrapf(err, "bybit order placed but price lookup failed for %s", symbol)
	}

	return domain.Fill{Price: price, Quantity: quantity}, nil
}

// FetchTicker returns the last traded price of the pair.
func (c *BybitClient) FetchTicker(ctx context.Context, symbol string) (decimal.Decimal, error) {
	pair := bybit.SymbolV5(c.pairSymbol(symbol))

	result, err := c.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   &pair,
	})
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "fetch bybit ticker for %s", pair)
	}

	if len(result.Result.Spot.List) == 0 {
		return decimal.Decimal{}, fmt.Errorf("bybit API returned empty prices for %s", pair)
	}

	return decimal.NewFromString(result.Result.Spot.List[0].LastPrice)
}

// FetchBalance returns the free balance of a currency on the unified account.
func (c *BybitClient) FetchBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	currency = domain.NormalizeSymbol(currency)

	result, err := c.client.V5().Account().GetWalletBalance(bybit.AccountTypeV5UNIFIED, []bybit.Coin{bybit.Coin(currency)})
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to get bybit wallet balance")
	}

	for _, account := range result.Result.List {
		for _, coin := range account.Coin {
			if string(coin.Coin) != currency {
				continue
			}
			free, parseErr := decimal.NewFromString(coin.WalletBalance)
			if parseErr != nil {
				return decimal.Zero, errors.Wrap(parseErr, "failed to parse bybit balance")
			}
			return free, nil
		}
	}

	return decimal.Zero, nil
}
