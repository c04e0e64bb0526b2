// Package stats derives the dashboard read surface from the event log.
// There is no separate source of truth: every figure is recomputed from the
// recorded events, respecting the latest reset marker.
package stats

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"nightstalker/internal/domain"
	"nightstalker/internal/storage/events"
)

type eventSource interface {
	Query(strategy string, filter events.Filter) ([]domain.StrategyEvent, error)
}

// Service computes aggregates over a strategy's event history.
type Service struct {
	events eventSource
}

// New creates a stats service over the event log.
func New(source eventSource) *Service {
	return &Service{events: source}
}

// Summary aggregates the closed trades of one strategy.
type Summary struct {
	Trades      int             `json:"trades"`
	Wins        int             `json:"wins"`
	Losses      int             `json:"losses"`
	WinRatePct  decimal.Decimal `json:"win_rate_pct"`
	TotalProfit decimal.Decimal `json:"total_profit"`
	BestTrade   decimal.Decimal `json:"best_trade"`
	BestSymbol  string          `json:"best_symbol,omitempty"`
	WorstTrade  decimal.Decimal `json:"worst_trade"`
	WorstSymbol string          `json:"worst_symbol,omitempty"`
}

// Summary computes win rate, total profit and best/worst trade from the
// sell events recorded after the latest aggregate reset.
func (s *Service) Summary(strategy string) (Summary, error) {
	sells, err := s.events.Query(strategy, events.Filter{
		Type:       domain.EventSell,
		SinceReset: true,
	})
	if err != nil {
		return Summary{}, errors.Wrap(err, "query sell events")
	}

	summary := Summary{
		WinRatePct:  decimal.Zero,
		TotalProfit: decimal.Zero,
		BestTrade:   decimal.Zero,
		WorstTrade:  decimal.Zero,
	}

	for i, event := range sells {
		profit := event.Payload.Profit

		summary.Trades++
		if profit.GreaterThan(decimal.Zero) {
			summary.Wins++
		} else {
			summary.Losses++
		}
		summary.TotalProfit = summary.TotalProfit.Add(profit)

		if i == 0 || profit.GreaterThan(summary.BestTrade) {
			summary.BestTrade = profit
			summary.BestSymbol = event.Symbol
		}
		if i == 0 || profit.LessThan(summary.WorstTrade) {
			summary.WorstTrade = profit
			summary.WorstSymbol = event.Symbol
		}
	}

	if summary.Trades > 0 {
		summary.WinRatePct = decimal.NewFromInt(int64(summary.Wins)).
			Div(decimal.NewFromInt(int64(summary.Trades))).
			Mul(decimal.NewFromInt(100))
	}

	return summary, nil
}

// RecentEvents returns the newest events of a strategy for display.
func (s *Service) RecentEvents(strategy string, limit int) ([]domain.StrategyEvent, error) {
	return s.events.Query(strategy, events.Filter{Limit: limit})
}
