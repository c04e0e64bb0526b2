package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Default thresholds applied when the YAML config omits a field.
var (
	defaultMinMarketCapUsd = decimal.NewFromInt(1_000_000)
	defaultMinVolumeUsd    = decimal.NewFromInt(100_000)
	defaultBuyAmountQuote  = decimal.NewFromInt(50)
	defaultProfitTargetPct = decimal.NewFromInt(25)
	defaultStopLossPct     = decimal.NewFromInt(-10)
)

const (
	defaultStrategyName       = "new_coin"
	defaultMaxCoinAgeHours    = 24.0
	defaultSellTrigger        = 30 * time.Second
	defaultMaxHoldingTime     = 12 * time.Hour
	defaultMonitoringInterval = 10 * time.Second
	defaultRefreshInterval    = 5 * time.Minute
	defaultMaxTradesPerRun    = 3
	defaultMaxOpenPositions   = 5
	defaultEventLogDir        = "./wal/events"
)

// Config holds the runtime-tunable strategy parameters. It is loaded once
// per run and treated as immutable within a trading cycle.
type Config struct {
	Platform      string
	StrategyName  string
	QuoteCurrency string
	TestMode      bool

	MaxCoinAgeHours float64
	MinMarketCapUsd decimal.Decimal
	MinVolumeUsd    decimal.Decimal
	BuyAmountQuote  decimal.Decimal
	ProfitTargetPct decimal.Decimal
	StopLossPct     decimal.Decimal

	SellTrigger        time.Duration
	MaxHoldingTime     time.Duration
	MonitoringInterval time.Duration
	RefreshInterval    time.Duration

	MaxTradesPerRun  int
	MaxOpenPositions int

	EnableCoinMarketCap bool
	EnableCoinGecko     bool
	EnableExchangeFeed  bool

	EventLogDir string
}

type configTmp struct {
	Platform      string `yaml:"platform"`
	StrategyName  string `yaml:"strategy_name,omitempty"`
	QuoteCurrency string `yaml:"quote_currency,omitempty"`
	TestMode      bool   `yaml:"test_mode"`

	MaxCoinAgeHours    float64       `yaml:"max_coin_age_hours,omitempty"`
	MinMarketCapUsdStr string        `yaml:"min_market_cap_usd,omitempty"`
	MinVolumeUsdStr    string        `yaml:"min_volume_usd,omitempty"`
	BuyAmountQuoteStr  string        `yaml:"buy_amount_quote,omitempty"`
	ProfitTargetPctStr string        `yaml:"profit_target_pct,omitempty"`
	StopLossPctStr     string        `yaml:"stop_loss_pct,omitempty"`
	SellTrigger        time.Duration `yaml:"sell_trigger,omitempty"`
	MaxHoldingTime     time.Duration `yaml:"max_holding_time,omitempty"`
	MonitoringInterval time.Duration `yaml:"monitoring_interval,omitempty"`
	RefreshInterval    time.Duration `yaml:"refresh_interval,omitempty"`
	MaxTradesPerRun    int           `yaml:"max_trades_per_run,omitempty"`
	MaxOpenPositions   int           `yaml:"max_open_positions,omitempty"`

	EnableCoinMarketCap bool   `yaml:"enable_coinmarketcap"`
	EnableCoinGecko     bool   `yaml:"enable_coingecko"`
	EnableExchangeFeed  bool   `yaml:"enable_exchange_feed"`
	EventLogDir         string `yaml:"event_log_dir,omitempty"`
}

// Get loads the configuration from the YAML file given by --config.
func Get() (Config, error) {
	path := flag.String("config", "config.yaml", "path to yaml config")
	flag.Parse()

	return getYaml(*path)
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	conf := Config{
		Platform:            tmp.Platform,
		StrategyName:        tmp.StrategyName,
		QuoteCurrency:       tmp.QuoteCurrency,
		TestMode:            tmp.TestMode,
		MaxCoinAgeHours:     tmp.MaxCoinAgeHours,
		SellTrigger:         tmp.SellTrigger,
		MaxHoldingTime:      tmp.MaxHoldingTime,
		MonitoringInterval:  tmp.MonitoringInterval,
		RefreshInterval:     tmp.RefreshInterval,
		MaxTradesPerRun:     tmp.MaxTradesPerRun,
		MaxOpenPositions:    tmp.MaxOpenPositions,
		EnableCoinMarketCap: tmp.EnableCoinMarketCap,
		EnableCoinGecko:     tmp.EnableCoinGecko,
		EnableExchangeFeed:  tmp.EnableExchangeFeed,
		EventLogDir:         tmp.EventLogDir,
	}

	if conf.MinMarketCapUsd, err = decimalOrDefault(tmp.MinMarketCapUsdStr, "min_market_cap_usd", defaultMinMarketCapUsd); err != nil {
		return Config{}, err
	}
	if conf.MinVolumeUsd, err = decimalOrDefault(tmp.MinVolumeUsdStr, "min_volume_usd", defaultMinVolumeUsd); err != nil {
		return Config{}, err
	}
	if conf.BuyAmountQuote, err = decimalOrDefault(tmp.BuyAmountQuoteStr, "buy_amount_quote", defaultBuyAmountQuote); err != nil {
		return Config{}, err
	}
	if conf.ProfitTargetPct, err = decimalOrDefault(tmp.ProfitTargetPctStr, "profit_target_pct", defaultProfitTargetPct); err != nil {
		return Config{}, err
	}
	if conf.StopLossPct, err = decimalOrDefault(tmp.StopLossPctStr, "stop_loss_pct", defaultStopLossPct); err != nil {
		return Config{}, err
	}

	conf.applyDefaults()

	if err := conf.Validate(); err != nil {
		return Config{}, err
	}

	return conf, nil
}

func decimalOrDefault(raw, field string, def decimal.Decimal) (decimal.Decimal, error) {
	if raw == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("incorrect '%s' param in yaml config (must be a decimal): %w", field, err)
	}
	return d, nil
}

func (c *Config) applyDefaults() {
	if c.StrategyName == "" {
		c.StrategyName = defaultStrategyName
	}
	if c.QuoteCurrency == "" {
		c.QuoteCurrency = "USDT"
	}
	if c.MaxCoinAgeHours == 0 {
		c.MaxCoinAgeHours = defaultMaxCoinAgeHours
	}
	if c.SellTrigger == 0 {
		c.SellTrigger = defaultSellTrigger
	}
	if c.MaxHoldingTime == 0 {
		c.MaxHoldingTime = defaultMaxHoldingTime
	}
	if c.MonitoringInterval == 0 {
		c.MonitoringInterval = defaultMonitoringInterval
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = defaultRefreshInterval
	}
	if c.MaxTradesPerRun == 0 {
		c.MaxTradesPerRun = defaultMaxTradesPerRun
	}
	if c.MaxOpenPositions == 0 {
		c.MaxOpenPositions = defaultMaxOpenPositions
	}
	if c.EventLogDir == "" {
		c.EventLogDir = defaultEventLogDir
	}
}

// Validate rejects configurations that must never reach a trading pass.
// It is called before the first order of every cycle.
func (c Config) Validate() error {
	if c.MaxCoinAgeHours <= 0 {
		return fmt.Errorf("max_coin_age_hours must be positive, got %.2f", c.MaxCoinAgeHours)
	}
	if c.MinMarketCapUsd.IsNegative() {
		return fmt.Errorf("min_market_cap_usd must not be negative, got %s", c.MinMarketCapUsd.String())
	}
	if c.MinVolumeUsd.IsNegative() {
		return fmt.Errorf("min_volume_usd must not be negative, got %s", c.MinVolumeUsd.String())
	}
	if c.BuyAmountQuote.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("buy_amount_quote must be greater than zero, got %s", c.BuyAmountQuote.String())
	}
	if c.ProfitTargetPct.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("profit_target_pct must be greater than zero, got %s", c.ProfitTargetPct.String())
	}
	if c.StopLossPct.GreaterThan(decimal.Zero) {
		return fmt.Errorf("stop_loss_pct must be zero or negative, got %s", c.StopLossPct.String())
	}
	if c.SellTrigger <= 0 {
		return fmt.Errorf("sell_trigger must be positive, got %s", c.SellTrigger)
	}
	if c.MaxHoldingTime <= 0 {
		return fmt.Errorf("max_holding_time must be positive, got %s", c.MaxHoldingTime)
	}
	if c.MaxTradesPerRun < 1 {
		return fmt.Errorf("max_trades_per_run must be at least 1, got %d", c.MaxTradesPerRun)
	}
	if c.MaxOpenPositions < 1 {
		return fmt.Errorf("max_open_positions must be at least 1, got %d", c.MaxOpenPositions)
	}
	return nil
}
