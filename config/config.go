// Package config loads the application configuration from a YAML or
// JSON file, applies environment overrides, and validates the result.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// FXPILOT_OANDA_TOKEN.
const EnvPrefix = "fxpilot"

// Config is the complete application configuration.
type Config struct {
	Risk     RiskConfig     `json:"risk" yaml:"risk"`
	Trailing TrailingConfig `json:"trailing" yaml:"trailing"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Runner   RunnerConfig   `json:"runner" yaml:"runner"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Broker   BrokerConfig   `json:"broker" yaml:"broker"`
}

// RiskConfig carries the guardrail limits.
type RiskConfig struct {
	MaxDailyLoss         float64 `json:"max_daily_loss" yaml:"max_daily_loss"`
	MaxDrawdown          float64 `json:"max_drawdown" yaml:"max_drawdown"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses" yaml:"max_consecutive_losses"`
	MaxOpenTrades        int     `json:"max_open_trades" yaml:"max_open_trades"`
	ExposurePerSymbol    float64 `json:"exposure_per_symbol" yaml:"exposure_per_symbol"`
	AccountBalance       float64 `json:"account_balance" yaml:"account_balance"`
	RiskPerTrade         float64 `json:"risk_per_trade" yaml:"risk_per_trade"`
}

// TrailingConfig carries the trailing-stop parameters in pips.
type TrailingConfig struct {
	Enabled      bool    `json:"enabled" yaml:"enabled"`
	InitialPips  float64 `json:"initial_pips" yaml:"initial_pips"`
	TrailingPips float64 `json:"trailing_pips" yaml:"trailing_pips"`
	StepPips     float64 `json:"step_pips" yaml:"step_pips"`
	PipSize      float64 `json:"pip_size" yaml:"pip_size"`
}

// StrategyConfig selects and parameterizes the signal generator.
type StrategyConfig struct {
	Name       string  `json:"name" yaml:"name"`
	FastPeriod int     `json:"fast_period" yaml:"fast_period"`
	SlowPeriod int     `json:"slow_period" yaml:"slow_period"`
	StopPips   float64 `json:"stop_pips" yaml:"stop_pips"`
	UnitValue  float64 `json:"unit_value" yaml:"unit_value"`
}

// RunnerConfig drives the polling loop.
type RunnerConfig struct {
	Symbols             []string `json:"symbols" yaml:"symbols"`
	TimeframeMinutes    int      `json:"timeframe_minutes" yaml:"timeframe_minutes"`
	PollIntervalSeconds int      `json:"poll_interval_seconds" yaml:"poll_interval_seconds"`
	WarmupBars          int      `json:"warmup_bars" yaml:"warmup_bars"`
}

// JournalConfig selects the persistence backend.
type JournalConfig struct {
	Type          string `json:"type" yaml:"type"` // "sqlite", "csv", or "none"
	DBPath        string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	TradesFile    string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	SnapshotsFile string `json:"snapshots_file,omitempty" yaml:"snapshots_file,omitempty"`
}

// BrokerConfig selects the market-data/execution providers.
type BrokerConfig struct {
	Mode  string      `json:"mode" yaml:"mode"` // "sim" or "oanda"
	Seed  int64       `json:"seed,omitempty" yaml:"seed,omitempty"`
	Oanda OandaConfig `json:"oanda,omitempty" yaml:"oanda,omitempty"`
}

// OandaConfig carries the live-broker credentials. Token and account
// are usually supplied via FXPILOT_OANDA_TOKEN / FXPILOT_OANDA_ACCOUNT
// rather than committed to a config file.
type OandaConfig struct {
	Token     string `json:"token,omitempty" yaml:"token,omitempty"`
	AccountID string `json:"account_id,omitempty" yaml:"account_id,omitempty"`
	Practice  bool   `json:"practice" yaml:"practice"`
}

// overrides are the environment-supplied values layered on top of the
// file. Only settings that make sense per-deployment are overridable.
type overrides struct {
	BrokerMode   string `envconfig:"BROKER_MODE"`
	OandaToken   string `envconfig:"OANDA_TOKEN"`
	OandaAccount string `envconfig:"OANDA_ACCOUNT"`
	JournalType  string `envconfig:"JOURNAL_TYPE"`
	JournalDB    string `envconfig:"JOURNAL_DB"`
}

// Default returns the stock paper-trading configuration.
func Default() *Config {
	return &Config{
		Risk: RiskConfig{
			MaxDailyLoss:         1000,
			MaxDrawdown:          5000,
			MaxConsecutiveLosses: 10,
			MaxOpenTrades:        5,
			ExposurePerSymbol:    1.0,
			AccountBalance:       10000,
			RiskPerTrade:         0.01,
		},
		Trailing: TrailingConfig{
			Enabled:      true,
			InitialPips:  20,
			TrailingPips: 10,
			StepPips:     5,
			PipSize:      0.0001,
		},
		Strategy: StrategyConfig{
			Name:       "sma-cross",
			FastPeriod: 10,
			SlowPeriod: 30,
			StopPips:   20,
			UnitValue:  10,
		},
		Runner: RunnerConfig{
			Symbols:             []string{"EURUSD"},
			TimeframeMinutes:    5,
			PollIntervalSeconds: 5,
			WarmupBars:          200,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "fxpilot.db",
		},
		Broker: BrokerConfig{
			Mode: "sim",
			Seed: 42,
		},
	}
}

// LoadFromFile loads a config file (YAML first, JSON fallback), applies
// environment overrides, and validates. An empty path yields the
// defaults plus overrides.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			if jerr := json.Unmarshal(data, cfg); jerr != nil {
				return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
			}
		}
	}

	var env overrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("process env overrides: %w", err)
	}
	cfg.apply(env)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) apply(env overrides) {
	if env.BrokerMode != "" {
		c.Broker.Mode = env.BrokerMode
	}
	if env.OandaToken != "" {
		c.Broker.Oanda.Token = env.OandaToken
	}
	if env.OandaAccount != "" {
		c.Broker.Oanda.AccountID = env.OandaAccount
	}
	if env.JournalType != "" {
		c.Journal.Type = env.JournalType
	}
	if env.JournalDB != "" {
		c.Journal.DBPath = env.JournalDB
	}
}

// Validate checks the configuration for values that would break the
// engine or the loop.
func (c *Config) Validate() error {
	if c.Risk.AccountBalance <= 0 {
		return fmt.Errorf("risk.account_balance must be positive")
	}
	if c.Risk.RiskPerTrade <= 0 || c.Risk.RiskPerTrade > 1 {
		return fmt.Errorf("risk.risk_per_trade must be in (0, 1]")
	}
	if c.Risk.MaxOpenTrades <= 0 {
		return fmt.Errorf("risk.max_open_trades must be positive")
	}
	if c.Risk.ExposurePerSymbol <= 0 {
		return fmt.Errorf("risk.exposure_per_symbol must be positive")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if c.Strategy.StopPips <= 0 {
		return fmt.Errorf("strategy.stop_pips must be positive")
	}
	if c.Strategy.UnitValue <= 0 {
		return fmt.Errorf("strategy.unit_value must be positive")
	}
	if len(c.Runner.Symbols) == 0 {
		return fmt.Errorf("runner.symbols must not be empty")
	}
	if c.Runner.TimeframeMinutes <= 0 {
		return fmt.Errorf("runner.timeframe_minutes must be positive")
	}
	if c.Runner.PollIntervalSeconds <= 0 {
		return fmt.Errorf("runner.poll_interval_seconds must be positive")
	}

	switch strings.ToLower(c.Journal.Type) {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite journal")
		}
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.SnapshotsFile == "" {
			return fmt.Errorf("journal trades_file and snapshots_file required for csv journal")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv', or 'none'")
	}

	switch strings.ToLower(c.Broker.Mode) {
	case "sim":
	case "oanda":
		if c.Broker.Oanda.Token == "" {
			return fmt.Errorf("broker.oanda.token required for oanda mode (set %s_OANDA_TOKEN)", strings.ToUpper(EnvPrefix))
		}
		if c.Broker.Oanda.AccountID == "" {
			return fmt.Errorf("broker.oanda.account_id required for oanda mode (set %s_OANDA_ACCOUNT)", strings.ToUpper(EnvPrefix))
		}
	default:
		return fmt.Errorf("broker.mode must be 'sim' or 'oanda'")
	}

	return nil
}

// SaveToFile writes the config as YAML (.yaml/.yml extension) or
// indented JSON.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
