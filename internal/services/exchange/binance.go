package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"nightstalker/internal/domain"
)

const binanceClientOrderPrefix = "nightstalker-"

// BinanceClient implements Client on a Binance spot account.
type BinanceClient struct {
	client        *binance.Client
	quoteCurrency string
}

// NewBinanceClient wraps an authenticated Binance API client.
func NewBinanceClient(client *binance.Client, quoteCurrency string) *BinanceClient {
	return &BinanceClient{client: client, quoteCurrency: domain.NormalizeSymbol(quoteCurrency)}
}

func (c *BinanceClient) pairSymbol(symbol string) string {
	return domain.NormalizeSymbol(symbol) + c.quoteCurrency
}

// SubmitMarketOrder places a spot market order. The fill price is averaged
// over the per-lot fills of the create-order response; when the response
// carries no lot data the cumulative quote amount is used instead.
func (c *BinanceClient) SubmitMarketOrder(ctx context.Context, symbol string, side domain.Side, quantity decimal.Decimal) (domain.Fill, error) {
	quantity = quantity.RoundFloor(8)
	if quantity.LessThanOrEqual(decimal.Zero) {
		return domain.Fill{}, fmt.Errorf("order quantity must be positive, got %s", quantity.String())
	}

	orderSide := binance.SideTypeBuy
	if side == domain.SideSell {
		orderSide = binance.SideTypeSell
	}

	clientOrderID := fmt.Sprintf("%s%d", binanceClientOrderPrefix, time.Now().UnixNano())

	resp, err := c.client.NewCreateOrderService().
		Symbol(c.pairSymbol(symbol)).
		Side(orderSide).
		Type(binance.OrderTypeMarket).
		Quantity(quantity.String()).
		NewClientOrderID(clientOrderID).
		Do(ctx)
	if err != nil {
		return domain.Fill{}, errors.Wrapf(err, "binance %s order failed for %s", side, symbol)
	}

	return fillFromOrderResponse(resp)
}

func fillFromOrderResponse(resp *binance.CreateOrderResponse) (domain.Fill, error) {
	executedQty, err := decimal.NewFromString(resp.ExecutedQuantity)
	if err != nil {
		return domain.Fill{}, errors.Wrap(err, "parse executed quantity")
	}
	if executedQty.LessThanOrEqual(decimal.Zero) {
		return domain.Fill{}, fmt.Errorf("binance order %d reported no executed quantity", resp.OrderID)
	}

	totalQty := decimal.Zero
	totalQuote := decimal.Zero
	for _, f := range resp.Fills {
		price, perr := decimal.NewFromString(f.Price)
		if perr != nil {
			continue
		}
		qty, qerr := decimal.NewFromString(f.Quantity)
		if qerr != nil {
			continue
		}
		totalQty = totalQty.Add(qty)
		totalQuote = totalQuote.Add(price.Mul(qty))
	}

	if totalQty.GreaterThan(decimal.Zero) {
		return domain.Fill{Price: totalQuote.Div(totalQty), Quantity: executedQty}, nil
	}

	cumQuote, err := decimal.NewFromString(resp.CummulativeQuoteQuantity)
	if err != nil || cumQuote.LessThanOrEqual(decimal.Zero) {
		return domain.Fill{}, fmt.Errorf("binance order %d carries no fill price information", resp.OrderID)
	}

	return domain.Fill{Price: cumQuote.Div(executedQty), Quantity: executedQty}, nil
}

// FetchTicker returns the last price of the pair.
func (c *BinanceClient) FetchTicker(ctx context.Context, symbol string) (decimal.Decimal, error) {
	pair := c.pairSymbol(symbol)

	prices, err := c.client.NewListPricesService().Symbol(pair).Do(ctx)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "fetch binance ticker for %s", pair)
	}
	if len(prices) == 0 {
		return decimal.Decimal{}, fmt.Errorf("binance API returned empty prices for %s", pair)
	}

	return decimal.NewFromString(prices[0].Price)
}

// FetchBalance returns the free spot balance of a currency.
func (c *BinanceClient) FetchBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	account, err := c.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to get binance account balance")
	}

	currency = domain.NormalizeSymbol(currency)
	for _, balance := range account.Balances {
		if balance.Asset == currency {
			free, err := decimal.NewFromString(balance.Free)
			if err != nil {
				return decimal.Zero, errors.Wrap(err, "failed to parse balance")
			}
			return free, nil
		}
	}

	return decimal.Zero, nil
}
