package domain

// Trade outcome status strings surfaced to callers in cycle summaries.
const (
	OutcomeFilled           = "filled"
	OutcomeSold             = "sold"
	OutcomeOrderFailed      = "order_failed"
	OutcomeFillUnrecorded   = "fill_unrecorded"
	OutcomePriceUnavailable = "price_unavailable"
)

// TradeOutcome is the per-symbol result of one attempted trade.
type TradeOutcome struct {
	Symbol string `json:"symbol"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// PassResult aggregates one buy or sell pass.
type PassResult struct {
	Attempted  int            `json:"trades_attempted"`
	Successful int            `json:"trades_successful"`
	Details    []TradeOutcome `json:"details,omitempty"`
}

// CycleSummary is returned from one full trading cycle: the sell pass runs
// first to free capacity, then the buy pass.
type CycleSummary struct {
	Sell PassResult `json:"sell"`
	Buy  PassResult `json:"buy"`
}
