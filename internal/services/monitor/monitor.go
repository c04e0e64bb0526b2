// Package monitor tracks live price movement of open positions and decides
// exit timing. A single tick below a local high is noise, so the drop exit
// requires the price to stay below the apex for a configured duration, while
// profit target, stop loss and max holding time fire immediately.
package monitor

import (
	"time"

	"github.com/shopspring/decimal"

	"nightstalker/config"
	"nightstalker/internal/domain"
)

// Reason explains why a sell became due.
type Reason string

const (
	ReasonProfitTarget  Reason = "profit_target"
	ReasonStopLoss      Reason = "stop_loss"
	ReasonMaxHolding    Reason = "max_holding_time"
	ReasonSustainedDrop Reason = "sustained_drop"
)

// Signal is the outcome of one price tick for one position.
type Signal struct {
	SellDue   bool
	Reason    Reason
	ChangePct decimal.Decimal
}

// Monitor evaluates the per-position exit state machine.
type Monitor struct {
	profitTargetPct decimal.Decimal
	stopLossPct     decimal.Decimal
	sellTrigger     time.Duration
	maxHolding      time.Duration
}

// New builds a Monitor from the strategy configuration.
func New(cfg config.Config) *Monitor {
	return &Monitor{
		profitTargetPct: cfg.ProfitTargetPct,
		stopLossPct:     cfg.StopLossPct,
		sellTrigger:     cfg.SellTrigger,
		maxHolding:      cfg.MaxHoldingTime,
	}
}

// Tick feeds one price observation at time now into the position's tracking
// state and reports whether a sell is due. Only ApexPrice and DropStartedAt
// are mutated; the position status stays untouched.
//
// Apex bookkeeping: a price at or above the apex raises the apex and cancels
// any pending drop; the first price below the apex starts the drop clock.
// Exit checks run in precedence order: profit target (realise gains
// immediately), stop loss (never debounced, caps downside fast), max holding
// time (forced exit regardless of price), then the sustained-drop trigger.
func (m *Monitor) Tick(pos *domain.Position, price decimal.Decimal, now time.Time) Signal {
	if price.GreaterThanOrEqual(pos.ApexPrice) {
		pos.ApexPrice = price
		pos.DropStartedAt = nil
	} else if pos.DropStartedAt == nil {
		dropStart := now
		pos.DropStartedAt = &dropStart
	}

	sig := Signal{ChangePct: pos.ChangePct(price)}

	switch {
	case sig.ChangePct.GreaterThanOrEqual(m.profitTargetPct):
		sig.SellDue = true
		sig.Reason = ReasonProfitTarget
	case sig.ChangePct.LessThanOrEqual(m.stopLossPct):
		sig.SellDue = true
		sig.Reason = ReasonStopLoss
	case m.maxHolding > 0 && now.Sub(pos.OpenedAt) >= m.maxHolding:
		sig.SellDue = true
		sig.Reason = ReasonMaxHolding
	case pos.DropStartedAt != nil && price.LessThan(pos.ApexPrice) && now.Sub(*pos.DropStartedAt) >= m.sellTrigger:
		sig.SellDue = true
		sig.Reason = ReasonSustainedDrop
	}

	return sig
}
