// Package executor coordinates the new-coin trading strategy: it turns
// screened candidates into buys, monitored positions into sells, and keeps
// the portfolio and event log consistent with what the exchange executed.
package executor

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"nightstalker/config"
	"nightstalker/internal/domain"
	"nightstalker/internal/services/monitor"
	"nightstalker/internal/services/screener"
)

type marketData interface {
	GetCandidateCoins(ctx context.Context) []domain.CoinCandidate
	GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

type exchangeClient interface {
	SubmitMarketOrder(ctx context.Context, symbol string, side domain.Side, quantity decimal.Decimal) (domain.Fill, error)
}

type positionStore interface {
	Create(ctx context.Context, p *domain.Position) error
	ListOpen(ctx context.Context) ([]domain.Position, error)
	CountOpen(ctx context.Context) (int, error)
	UpdateTracking(ctx context.Context, id uint, apex decimal.Decimal, dropStartedAt *time.Time) error
	Close(ctx context.Context, id uint, details domain.CloseDetails) error
}

type eventLog interface {
	Append(event domain.StrategyEvent) error
}

// Executor runs the buy and sell passes of one trading cycle. It is
// stateless between cycles: everything it needs to resume lives in the
// position store and the event log.
type Executor struct {
	cfg       config.Config
	market    marketData
	exchange  exchangeClient
	positions positionStore
	events    eventLog
	monitor   *monitor.Monitor
	logger    *zap.Logger

	// now is swappable so tests can drive the clock.
	now func() time.Time
}

// New validates the configuration and builds an executor. Configuration
// errors are fatal here, before any order can be attempted.
func New(cfg config.Config, market marketData, exchange exchangeClient, positions positionStore, events eventLog, logger *zap.Logger) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid strategy config")
	}
	if market == nil {
		return nil, errors.New("market data gateway is required")
	}
	if positions == nil {
		return nil, errors.New("position store is required")
	}
	if events == nil {
		return nil, errors.New("event log is required")
	}
	if !cfg.TestMode && exchange == nil {
		return nil, errors.New("exchange client is required outside test mode")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Executor{
		cfg:       cfg,
		market:    market,
		exchange:  exchange,
		positions: positions,
		events:    events,
		monitor:   monitor.New(cfg),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// RunCycle executes one full trading cycle: the sell pass first to free
// capacity, then the buy pass. Failures of individual candidates or
// positions never abort the cycle.
func (e *Executor) RunCycle(ctx context.Context) (domain.CycleSummary, error) {
	if err := e.cfg.Validate(); err != nil {
		return domain.CycleSummary{}, errors.Wrap(err, "invalid strategy config")
	}

	summary := domain.CycleSummary{
		Sell: e.ExecuteSellPass(ctx),
		Buy:  e.ExecuteBuyPass(ctx),
	}

	e.logger.Info("trading cycle finished",
		zap.String("strategy", e.cfg.StrategyName),
		zap.Int("sell_attempted", summary.Sell.Attempted),
		zap.Int("sell_successful", summary.Sell.Successful),
		zap.Int("buy_attempted", summary.Buy.Attempted),
		zap.Int("buy_successful", summary.Buy.Successful))

	return summary, nil
}

// ExecuteBuyPass screens fresh candidates and opens positions up to the
// remaining capacity and the per-run trade limit.
func (e *Executor) ExecuteBuyPass(ctx context.Context) domain.PassResult {
	var result domain.PassResult

	raw := e.market.GetCandidateCoins(ctx)
	candidates := screener.SelectCandidates(raw, e.cfg)
	if len(candidates) == 0 {
		return result
	}

	open, err := e.positions.ListOpen(ctx)
	if err != nil {
		e.logger.Error("buy pass aborted: cannot read open positions", zap.Error(err))
		return result
	}

	capacity := e.cfg.MaxOpenPositions - len(open)
	if capacity <= 0 {
		e.logger.Info("buy pass skipped: no capacity",
			zap.Int("open_positions", len(open)),
			zap.Int("max_open_positions", e.cfg.MaxOpenPositions))
		return result
	}

	held := make(map[string]bool, len(open))
	for _, p := range open {
		held[p.Symbol] = true
	}

	for _, candidate := range candidates {
		if result.Attempted >= capacity || result.Attempted >= e.cfg.MaxTradesPerRun {
			break
		}
		if held[candidate.Symbol] {
			// no pyramiding into a symbol we already hold
			continue
		}

		result.Attempted++
		outcome := e.buyCandidate(ctx, candidate)
		if outcome.Status == domain.OutcomeFilled {
			result.Successful++
			held[candidate.Symbol] = true
		}
		result.Details = append(result.Details, outcome)
	}

	return result
}

func (e *Executor) buyCandidate(ctx context.Context, candidate domain.CoinCandidate) domain.TradeOutcome {
	quantity := e.cfg.BuyAmountQuote.Div(candidate.PriceUsd)

	fill, err := e.fill(ctx, candidate.Symbol, domain.SideBuy, quantity, candidate.PriceUsd)
	if err != nil {
		e.logger.Error("buy order failed",
			zap.String("symbol", candidate.Symbol),
			zap.Error(err))
		e.appendEvent(domain.NewErrorEvent(e.cfg.StrategyName, candidate.Symbol, "buy order failed", err, e.now()))
		return domain.TradeOutcome{Symbol: candidate.Symbol, Status: domain.OutcomeOrderFailed, Error: err.Error()}
	}

	pos, err := domain.NewPosition(candidate.Symbol, fill.Price, fill.Quantity, e.now())
	if err == nil {
		err = e.positions.Create(ctx, pos)
	}
	if err != nil {
		// Money moved on the exchange but the portfolio write failed. This
		// must never be silently swallowed: alert distinctly and surface a
		// dedicated status to the caller.
		e.logger.Error("filled buy could not be recorded",
			zap.Bool("unrecorded_fill", !e.cfg.TestMode),
			zap.String("symbol", candidate.Symbol),
			zap.String("fill_price", fill.Price.String()),
			zap.String("fill_quantity", fill.Quantity.String()),
			zap.Error(err))
		e.appendEvent(domain.NewErrorEvent(e.cfg.StrategyName, candidate.Symbol, "filled buy not recorded", err, e.now()))
		return domain.TradeOutcome{Symbol: candidate.Symbol, Status: domain.OutcomeFillUnrecorded, Error: err.Error()}
	}

	e.appendEvent(domain.NewBuyEvent(e.cfg.StrategyName, candidate, fill, e.cfg.QuoteCurrency, e.now()))

	e.logger.Info("buy executed",
		zap.String("symbol", candidate.Symbol),
		zap.String("price", fill.Price.String()),
		zap.String("amount", fill.Quantity.String()),
		zap.String("cost", fill.Price.Mul(fill.Quantity).String()),
		zap.Float64("age_hours", candidate.AgeHours),
		zap.Bool("test_mode", e.cfg.TestMode))

	return domain.TradeOutcome{Symbol: candidate.Symbol, Status: domain.OutcomeFilled}
}

// ExecuteSellPass ticks every open position against the latest price and
// sells the ones whose exit became due. A position that fails to sell stays
// open and is retried on the next cycle.
func (e *Executor) ExecuteSellPass(ctx context.Context) domain.PassResult {
	var result domain.PassResult

	open, err := e.positions.ListOpen(ctx)
	if err != nil {
		e.logger.Error("sell pass aborted: cannot read open positions", zap.Error(err))
		return result
	}

	for i := range open {
		pos := &open[i]

		price, err := e.market.GetCurrentPrice(ctx, pos.Symbol)
		if err != nil {
			e.logger.Warn("price unavailable, skipping position for this tick",
				zap.String("symbol", pos.Symbol),
				zap.Error(err))
			e.appendEvent(domain.NewErrorEvent(e.cfg.StrategyName, pos.Symbol, "monitor price fetch failed", err, e.now()))
			result.Details = append(result.Details, domain.TradeOutcome{
				Symbol: pos.Symbol,
				Status: domain.OutcomePriceUnavailable,
				Error:  err.Error(),
			})
			continue
		}

		now := e.now()
		sig := e.monitor.Tick(pos, price, now)

		if err := e.positions.UpdateTracking(ctx, pos.ID, pos.ApexPrice, pos.DropStartedAt); err != nil {
			e.logger.Warn("failed to persist position tracking",
				zap.Uint("position_id", pos.ID),
				zap.Error(err))
		}
		e.appendEvent(domain.NewMonitorEvent(e.cfg.StrategyName, pos, price, now))

		if !sig.SellDue {
			continue
		}

		result.Attempted++
		outcome := e.sellPosition(ctx, pos, price, sig)
		if outcome.Status == domain.OutcomeSold {
			result.Successful++
		}
		result.Details = append(result.Details, outcome)
	}

	return result
}

func (e *Executor) sellPosition(ctx context.Context, pos *domain.Position, price decimal.Decimal, sig monitor.Signal) domain.TradeOutcome {
	e.logger.Info("sell due",
		zap.String("symbol", pos.Symbol),
		zap.String("reason", string(sig.Reason)),
		zap.String("price", price.String()),
		zap.String("change_pct", sig.ChangePct.String()))

	fill, err := e.fill(ctx, pos.Symbol, domain.SideSell, pos.Amount, price)
	if err != nil {
		// Position stays open and is retried next cycle; order submissions
		// are never re-sent within the same cycle.
		e.logger.Error("sell order failed, position remains open",
			zap.String("symbol", pos.Symbol),
			zap.Error(err))
		e.appendEvent(domain.NewErrorEvent(e.cfg.StrategyName, pos.Symbol, "sell order failed", err, e.now()))
		return domain.TradeOutcome{Symbol: pos.Symbol, Status: domain.OutcomeOrderFailed, Error: err.Error()}
	}

	closedAt := e.now()
	details := domain.CloseDetails{
		ClosedAt:   closedAt,
		ClosePrice: fill.Price,
		Profit:     pos.ProfitAt(fill.Price),
		ProfitPct:  pos.ChangePct(fill.Price),
	}

	if err := e.positions.Close(ctx, pos.ID, details); err != nil {
		e.logger.Error("filled sell could not be recorded",
			zap.Bool("unrecorded_fill", !e.cfg.TestMode),
			zap.Uint("position_id", pos.ID),
			zap.String("symbol", pos.Symbol),
			zap.String("fill_price", fill.Price.String()),
			zap.Error(err))
		e.appendEvent(domain.NewErrorEvent(e.cfg.StrategyName, pos.Symbol, "filled sell not recorded", err, e.now()))
		return domain.TradeOutcome{Symbol: pos.Symbol, Status: domain.OutcomeFillUnrecorded, Error: err.Error()}
	}

	e.appendEvent(domain.NewSellEvent(e.cfg.StrategyName, pos, fill, string(sig.Reason), e.cfg.QuoteCurrency, closedAt))

	e.logger.Info("sell executed",
		zap.String("symbol", pos.Symbol),
		zap.String("sell_price", fill.Price.String()),
		zap.String("buy_price", pos.EntryPrice.String()),
		zap.String("profit", details.Profit.String()),
		zap.String("profit_pct", details.ProfitPct.String()),
		zap.Int64("holding_seconds", int64(closedAt.Sub(pos.OpenedAt).Seconds())),
		zap.Bool("test_mode", e.cfg.TestMode))

	return domain.TradeOutcome{Symbol: pos.Symbol, Status: domain.OutcomeSold}
}

// fill executes a market order, or synthesizes one at the observed price in
// test mode without contacting the exchange.
func (e *Executor) fill(ctx context.Context, symbol string, side domain.Side, quantity, price decimal.Decimal) (domain.Fill, error) {
	if e.cfg.TestMode {
		return domain.Fill{Price: price, Quantity: quantity}, nil
	}
	return e.exchange.SubmitMarketOrder(ctx, symbol, side, quantity)
}

// appendEvent writes one event, logging append failures instead of failing
// the pass: the event log is bookkeeping, the position store is the source
// of truth for held funds.
func (e *Executor) appendEvent(event domain.StrategyEvent) {
	if err := e.events.Append(event); err != nil {
		e.logger.Error("failed to append strategy event",
			zap.String("type", string(event.Type)),
			zap.String("symbol", event.Symbol),
			zap.Error(err))
	}
}
