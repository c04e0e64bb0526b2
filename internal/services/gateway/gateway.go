// Package gateway aggregates external market data providers behind a narrow
// contract: candidate coins for the screener and live prices for the monitor.
package gateway

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"nightstalker/internal/domain"
	"nightstalker/pkg/retrier"
)

const defaultCallTimeout = 15 * time.Second

// CandidateSource produces raw coin snapshots from one provider.
type CandidateSource interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.CoinCandidate, error)
}

// Pricer resolves the current price of a symbol against the quote currency.
type Pricer interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Gateway fans out to the enabled sources with a per-call timeout and a
// bounded fixed-delay retry. Provider failures are recovered locally: a
// failing source contributes no candidates, it never fails the cycle.
type Gateway struct {
	sources     []CandidateSource
	pricer      Pricer
	retrier     *retrier.Retrier
	callTimeout time.Duration
	logger      *zap.Logger
}

// Option configures the Gateway.
type Option func(*Gateway)

// WithCallTimeout overrides the per-provider call timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.callTimeout = d
		}
	}
}

// WithRetrier overrides the retry policy for data-fetch calls.
func WithRetrier(r *retrier.Retrier) Option {
	return func(g *Gateway) {
		if r != nil {
			g.retrier = r
		}
	}
}

// New builds a Gateway over the given pricer and candidate sources.
func New(logger *zap.Logger, pricer Pricer, sources []CandidateSource, opts ...Option) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Gateway{
		sources:     sources,
		pricer:      pricer,
		retrier:     retrier.New(),
		callTimeout: defaultCallTimeout,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// GetCandidateCoins fetches raw candidates from every enabled source.
// Snapshots that fail boundary validation are dropped with a log line;
// deduplication across sources is the screener's job.
func (g *Gateway) GetCandidateCoins(ctx context.Context) []domain.CoinCandidate {
	var all []domain.CoinCandidate

	for _, source := range g.sources {
		coins, err := retrier.DoWithData(g.retrier, ctx, func(ctx context.Context) ([]domain.CoinCandidate, error) {
			callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
			defer cancel()
			return source.Fetch(callCtx)
		})
		if err != nil {
			g.logger.Warn("candidate source failed, skipping for this cycle",
				zap.String("source", source.Name()),
				zap.Error(err))
			continue
		}

		valid := coins[:0]
		for _, c := range coins {
			if err := c.Validate(); err != nil {
				g.logger.Warn("dropping invalid candidate snapshot",
					zap.String("source", source.Name()),
					zap.Error(err))
				continue
			}
			valid = append(valid, c)
		}

		g.logger.Debug("candidate source fetched",
			zap.String("source", source.Name()),
			zap.Int("candidates", len(valid)))

		all = append(all, valid...)
	}

	return all
}

// GetCurrentPrice resolves the live price for a symbol with the same
// timeout and retry policy as candidate fetches.
func (g *Gateway) GetCurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return retrier.DoWithData(g.retrier, ctx, func(ctx context.Context) (decimal.Decimal, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
		return g.pricer.GetPrice(callCtx, symbol)
	})
}
