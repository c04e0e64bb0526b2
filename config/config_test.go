package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetYamlParsesFullConfig(t *testing.T) {
	path := writeConfig(t, `
platform: binance
strategy_name: new_coin
quote_currency: usdt
test_mode: true
max_coin_age_hours: 48
min_market_cap_usd: "2000000"
min_volume_usd: "250000"
buy_amount_quote: "75.5"
profit_target_pct: "30"
stop_loss_pct: "-15"
sell_trigger: 45s
max_holding_time: 6h
monitoring_interval: 15s
refresh_interval: 10m
max_trades_per_run: 2
max_open_positions: 4
enable_coinmarketcap: true
enable_coingecko: true
enable_exchange_feed: true
event_log_dir: /tmp/events
`)

	conf, err := getYaml(path)
	require.NoError(t, err)

	require.Equal(t, "binance", conf.Platform)
	require.Equal(t, "new_coin", conf.StrategyName)
	require.True(t, conf.TestMode)
	require.Equal(t, 48.0, conf.MaxCoinAgeHours)
	require.True(t, conf.MinMarketCapUsd.Equal(decimal.NewFromInt(2_000_000)))
	require.True(t, conf.MinVolumeUsd.Equal(decimal.NewFromInt(250_000)))
	require.True(t, conf.BuyAmountQuote.Equal(decimal.RequireFromString("75.5")))
	require.True(t, conf.ProfitTargetPct.Equal(decimal.NewFromInt(30)))
	require.True(t, conf.StopLossPct.Equal(decimal.NewFromInt(-15)))
	require.Equal(t, 45*time.Second, conf.SellTrigger)
	require.Equal(t, 6*time.Hour, conf.MaxHoldingTime)
	require.Equal(t, 10*time.Minute, conf.RefreshInterval)
	require.Equal(t, 2, conf.MaxTradesPerRun)
	require.Equal(t, 4, conf.MaxOpenPositions)
	require.True(t, conf.EnableCoinMarketCap)
	require.True(t, conf.EnableExchangeFeed)
	require.Equal(t, "/tmp/events", conf.EventLogDir)
}

func TestGetYamlAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
platform: bybit
test_mode: true
`)

	conf, err := getYaml(path)
	require.NoError(t, err)

	require.Equal(t, "new_coin", conf.StrategyName)
	require.Equal(t, "USDT", conf.QuoteCurrency)
	require.Equal(t, 24.0, conf.MaxCoinAgeHours)
	require.True(t, conf.MinMarketCapUsd.Equal(decimal.NewFromInt(1_000_000)))
	require.True(t, conf.BuyAmountQuote.Equal(decimal.NewFromInt(50)))
	require.True(t, conf.StopLossPct.Equal(decimal.NewFromInt(-10)))
	require.Equal(t, 30*time.Second, conf.SellTrigger)
	require.Equal(t, 12*time.Hour, conf.MaxHoldingTime)
	require.Equal(t, 5*time.Minute, conf.RefreshInterval)
	require.Equal(t, 3, conf.MaxTradesPerRun)
	require.Equal(t, 5, conf.MaxOpenPositions)
	require.Equal(t, defaultEventLogDir, conf.EventLogDir)
}

func TestGetYamlRejectsMalformedDecimal(t *testing.T) {
	path := writeConfig(t, `
platform: binance
buy_amount_quote: "not-a-number"
`)

	_, err := getYaml(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "buy_amount_quote")
}

func TestGetYamlMissingFile(t *testing.T) {
	_, err := getYaml(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	base := func() Config {
		return Config{
			MaxCoinAgeHours:  24,
			MinMarketCapUsd:  decimal.NewFromInt(1_000_000),
			MinVolumeUsd:     decimal.NewFromInt(100_000),
			BuyAmountQuote:   decimal.NewFromInt(50),
			ProfitTargetPct:  decimal.NewFromInt(25),
			StopLossPct:      decimal.NewFromInt(-10),
			SellTrigger:      30 * time.Second,
			MaxHoldingTime:   12 * time.Hour,
			MaxTradesPerRun:  3,
			MaxOpenPositions: 5,
		}
	}

	require.NoError(t, base().Validate())

	for name, mutate := range map[string]func(*Config){
		"zero age":             func(c *Config) { c.MaxCoinAgeHours = 0 },
		"negative market cap":  func(c *Config) { c.MinMarketCapUsd = decimal.NewFromInt(-1) },
		"negative volume":      func(c *Config) { c.MinVolumeUsd = decimal.NewFromInt(-1) },
		"zero buy amount":      func(c *Config) { c.BuyAmountQuote = decimal.Zero },
		"zero profit target":   func(c *Config) { c.ProfitTargetPct = decimal.Zero },
		"positive stop loss":   func(c *Config) { c.StopLossPct = decimal.NewFromInt(5) },
		"zero sell trigger":    func(c *Config) { c.SellTrigger = 0 },
		"zero max holding":     func(c *Config) { c.MaxHoldingTime = 0 },
		"zero trades per run":  func(c *Config) { c.MaxTradesPerRun = 0 },
		"zero open positions":  func(c *Config) { c.MaxOpenPositions = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(&c)
			require.Error(t, c.Validate())
		})
	}
}
