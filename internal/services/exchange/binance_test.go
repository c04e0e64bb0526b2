package exchange

import (
	"testing"

	binance "github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFillFromOrderResponseAveragesLots(t *testing.T) {
	resp := &binance.CreateOrderResponse{
		OrderID:          1,
		ExecutedQuantity: "10",
		Fills: []*binance.Fill{
			{Price: "100", Quantity: "4"},
			{Price: "110", Quantity: "6"},
		},
	}

	fill, err := fillFromOrderResponse(resp)
	require.NoError(t, err)

	// (100*4 + 110*6) / 10 = 106
	require.True(t, fill.Price.Equal(decimal.NewFromInt(106)))
	require.True(t, fill.Quantity.Equal(decimal.NewFromInt(10)))
}

func TestFillFromOrderResponseFallsBackToCumulativeQuote(t *testing.T) {
	resp := &binance.CreateOrderResponse{
		OrderID:                  2,
		ExecutedQuantity:         "5",
		CummulativeQuoteQuantity: "550",
	}

	fill, err := fillFromOrderResponse(resp)
	require.NoError(t, err)
	require.True(t, fill.Price.Equal(decimal.NewFromInt(110)))
	require.True(t, fill.Quantity.Equal(decimal.NewFromInt(5)))
}

func TestFillFromOrderResponseRejectsEmptyExecution(t *testing.T) {
	_, err := fillFromOrderResponse(&binance.CreateOrderResponse{
		OrderID:          3,
		ExecutedQuantity: "0",
	})
	require.Error(t, err)
}

func TestFillFromOrderResponseRejectsMissingPriceData(t *testing.T) {
	_, err := fillFromOrderResponse(&binance.CreateOrderResponse{
		OrderID:                  4,
		ExecutedQuantity:         "5",
		CummulativeQuoteQuantity: "0",
	})
	require.Error(t, err)
}
