package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType tags a strategy event. The payload fields that are meaningful
// depend on the type, so events are only built through the constructors below.
type EventType string

const (
	EventBuy     EventType = "buy"
	EventSell    EventType = "sell"
	EventMonitor EventType = "monitor"
	EventError   EventType = "error"
)

// EventPayload is the structured payload of a strategy event. Unused fields
// stay at their zero values; the constructors decide which ones are set.
type EventPayload struct {
	Price          decimal.Decimal `json:"price,omitempty"`
	Amount         decimal.Decimal `json:"amount,omitempty"`
	Cost           decimal.Decimal `json:"cost,omitempty"`
	BuyPrice       decimal.Decimal `json:"buy_price,omitempty"`
	SellPrice      decimal.Decimal `json:"sell_price,omitempty"`
	Profit         decimal.Decimal `json:"profit,omitempty"`
	ProfitPct      decimal.Decimal `json:"profit_percentage,omitempty"`
	ChangePct      decimal.Decimal `json:"change_percentage,omitempty"`
	MarketCapUsd   decimal.Decimal `json:"market_cap,omitempty"`
	Volume24hUsd   decimal.Decimal `json:"volume_24h,omitempty"`
	AgeHours       float64         `json:"age_hours,omitempty"`
	HoldingSeconds int64           `json:"holding_time_seconds,omitempty"`
	Currency       string          `json:"currency,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// StrategyEvent is an immutable log entry describing one strategy action.
type StrategyEvent struct {
	Strategy  string       `json:"strategy"`
	Type      EventType    `json:"type"`
	Symbol    string       `json:"symbol"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   EventPayload `json:"payload"`
}

// NewBuyEvent records a filled buy with the market context it was taken in.
func NewBuyEvent(strategy string, candidate CoinCandidate, fill Fill, currency string, at time.Time) StrategyEvent {
	return StrategyEvent{
		Strategy:  strategy,
		Type:      EventBuy,
		Symbol:    NormalizeSymbol(candidate.Symbol),
		Timestamp: at,
		Payload: EventPayload{
			Price:        fill.Price,
			Amount:       fill.Quantity,
			Cost:         fill.Price.Mul(fill.Quantity),
			MarketCapUsd: candidate.MarketCapUsd,
			Volume24hUsd: candidate.Volume24hUsd,
			AgeHours:     candidate.AgeHours,
			Currency:     currency,
		},
	}
}

// NewSellEvent records a filled sell with realised profit figures.
func NewSellEvent(strategy string, pos *Position, fill Fill, reason string, currency string, at time.Time) StrategyEvent {
	return StrategyEvent{
		Strategy:  strategy,
		Type:      EventSell,
		Symbol:    pos.Symbol,
		Timestamp: at,
		Payload: EventPayload{
			SellPrice:      fill.Price,
			BuyPrice:       pos.EntryPrice,
			Amount:         fill.Quantity,
			Profit:         fill.Price.Sub(pos.EntryPrice).Mul(fill.Quantity),
			ProfitPct:      pos.ChangePct(fill.Price),
			HoldingSeconds: int64(at.Sub(pos.OpenedAt).Seconds()),
			Currency:       currency,
			Reason:         reason,
		},
	}
}

// NewMonitorEvent records one price tick of an open position.
func NewMonitorEvent(strategy string, pos *Position, price decimal.Decimal, at time.Time) StrategyEvent {
	return StrategyEvent{
		Strategy:  strategy,
		Type:      EventMonitor,
		Symbol:    pos.Symbol,
		Timestamp: at,
		Payload: EventPayload{
			Price:     price,
			ChangePct: pos.ChangePct(price),
		},
	}
}

// NewErrorEvent records a recovered failure for a symbol.
func NewErrorEvent(strategy, symbol, reason string, err error, at time.Time) StrategyEvent {
	e := StrategyEvent{
		Strategy:  strategy,
		Type:      EventError,
		Symbol:    NormalizeSymbol(symbol),
		Timestamp: at,
		Payload:   EventPayload{Reason: reason},
	}
	if err != nil {
		e.Payload.Error = err.Error()
	}
	return e
}
