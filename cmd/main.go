// Command nightstalker runs the new-coin trading strategy engine. It screens
// freshly listed coins against age/market-cap/volume thresholds, buys the
// best candidates, monitors open positions for apex drops, profit targets
// and stop losses, and records every action in the position store and the
// event log.
//
// Usage:
//
//	nightstalker --config config.yaml
//
// Recognized environment variables (a .env file is honored):
//
//	For Binance: BINANCE_API_KEY, BINANCE_API_SECRET
//	For Bybit: BYBIT_API_KEY, BYBIT_API_SECRET
//	For CoinMarketCap: CMC_API_KEY
//	For the position store: POSTGRES_DSN (in-memory store when unset)
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"nightstalker/config"
	"nightstalker/internal/domain"
	"nightstalker/internal/services/exchange"
	"nightstalker/internal/services/executor"
	"nightstalker/internal/services/gateway"
	"nightstalker/internal/services/stats"
	"nightstalker/internal/storage/events"
	"nightstalker/internal/storage/positions"
)

func main() {
	_ = godotenv.Load()

	conf, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	exchangeClient, pricer, candidateSources := buildMarketAccess(conf, logger)

	positionStore, err := buildPositionStore(conf, logger)
	if err != nil {
		logger.Fatal("failed to build position store", zap.Error(err))
	}

	eventLog, err := events.NewLog(conf.EventLogDir)
	if err != nil {
		logger.Fatal("failed to open event log", zap.Error(err))
	}
	defer eventLog.Close()

	marketGateway := gateway.New(logger, pricer, candidateSources)

	engine, err := executor.New(conf, marketGateway, exchangeClient, positionStore, eventLog, logger)
	if err != nil {
		logger.Fatal("failed to build strategy executor", zap.Error(err))
	}

	statsService := stats.New(eventLog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("night stalker started",
		zap.String("strategy", conf.StrategyName),
		zap.String("platform", conf.Platform),
		zap.Bool("test_mode", conf.TestMode),
		zap.Duration("refresh_interval", conf.RefreshInterval))

	runLoop(ctx, engine, statsService, conf, logger)

	logger.Info("night stalker stopped")
}

// runLoop triggers one trading cycle per refresh interval. Cycles run
// sequentially on this goroutine, so two cycles can never overlap.
func runLoop(ctx context.Context, engine *executor.Executor, statsService *stats.Service, conf config.Config, logger *zap.Logger) {
	ticker := time.NewTicker(conf.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summary, err := engine.RunCycle(ctx)
			if err != nil {
				logger.Error("trading cycle failed", zap.Error(err))
				continue
			}
			logSummary(logger, conf.StrategyName, summary, statsService)
		}
	}
}

func logSummary(logger *zap.Logger, strategy string, summary domain.CycleSummary, statsService *stats.Service) {
	aggregate, err := statsService.Summary(strategy)
	if err != nil {
		logger.Warn("failed to compute aggregate stats", zap.Error(err))
		return
	}

	logger.Info("cycle summary",
		zap.Int("buys", summary.Buy.Successful),
		zap.Int("sells", summary.Sell.Successful),
		zap.Int("total_trades", aggregate.Trades),
		zap.String("win_rate_pct", aggregate.WinRatePct.StringFixed(1)),
		zap.String("total_profit", aggregate.TotalProfit.String()))
}

func buildMarketAccess(conf config.Config, logger *zap.Logger) (exchange.Client, gateway.Pricer, []gateway.CandidateSource) {
	var (
		exchangeClient exchange.Client
		pricer         gateway.Pricer
		sources        []gateway.CandidateSource
	)

	switch conf.Platform {
	case "binance":
		apiKey := os.Getenv("BINANCE_API_KEY")
		apiSecret := os.Getenv("BINANCE_API_SECRET")
		if !conf.TestMode && (apiKey == "" || apiSecret == "") {
			logger.Fatal("BINANCE_API_KEY and BINANCE_API_SECRET must be set outside test mode")
		}

		client := binance.NewClient(apiKey, apiSecret)
		exchangeClient = exchange.NewBinanceClient(client, conf.QuoteCurrency)
		pricer = gateway.NewBinancePricer(client, conf.QuoteCurrency)
		if conf.EnableExchangeFeed {
			sources = append(sources, gateway.NewBinanceSource(client, conf.QuoteCurrency))
		}
	case "bybit":
		apiKey := os.Getenv("BYBIT_API_KEY")
		apiSecret := os.Getenv("BYBIT_API_SECRET")
		if !conf.TestMode && (apiKey == "" || apiSecret == "") {
			logger.Fatal("BYBIT_API_KEY and BYBIT_API_SECRET must be set outside test mode")
		}

		bybitClient := exchange.NewBybitClient(bybit.NewClient().WithAuth(apiKey, apiSecret), conf.QuoteCurrency)
		exchangeClient = bybitClient
		pricer = tickerPricer{client: bybitClient}
	default:
		logger.Fatal("unsupported platform", zap.String("platform", conf.Platform))
	}

	if conf.EnableCoinMarketCap {
		apiKey := os.Getenv("CMC_API_KEY")
		if apiKey == "" {
			logger.Fatal("CMC_API_KEY must be set when the coinmarketcap source is enabled")
		}
		sources = append(sources, gateway.NewCoinMarketCapSource(apiKey))
	}
	if conf.EnableCoinGecko {
		sources = append(sources, gateway.NewCoinGeckoSource())
	}

	return exchangeClient, pricer, sources
}

// positionStore matches the store contract the executor consumes; both the
// Postgres and the in-memory implementation satisfy it.
type positionStore interface {
	Create(ctx context.Context, p *domain.Position) error
	ListOpen(ctx context.Context) ([]domain.Position, error)
	CountOpen(ctx context.Context) (int, error)
	UpdateTracking(ctx context.Context, id uint, apex decimal.Decimal, dropStartedAt *time.Time) error
	Close(ctx context.Context, id uint, details domain.CloseDetails) error
}

func buildPositionStore(conf config.Config, logger *zap.Logger) (positionStore, error) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		if !conf.TestMode {
			logger.Warn("POSTGRES_DSN not set, positions are kept in memory and lost on restart")
		}
		return positions.NewMemoryStore(), nil
	}
	return positions.NewGormStore(dsn)
}

// tickerPricer adapts an exchange client's ticker lookup to the gateway
// pricer contract.
type tickerPricer struct {
	client exchange.Client
}

func (p tickerPricer) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return p.client.FetchTicker(ctx, symbol)
}
