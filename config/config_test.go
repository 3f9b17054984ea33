package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadFromFileYAML(t *testing.T) {
	path := writeFile(t, "cfg.yaml", `
risk:
  max_daily_loss: 250
  max_drawdown: 1000
  max_consecutive_losses: 4
  max_open_trades: 2
  exposure_per_symbol: 0.5
  account_balance: 25000
  risk_per_trade: 0.02
strategy:
  name: sma-cross
  fast_period: 5
  slow_period: 20
  stop_pips: 15
  unit_value: 10
runner:
  symbols: [EURUSD, GBPUSD]
  timeframe_minutes: 1
  poll_interval_seconds: 2
  warmup_bars: 50
journal:
  type: csv
  trades_file: trades.csv
  snapshots_file: snapshots.csv
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.InDelta(t, 250, cfg.Risk.MaxDailyLoss, 1e-9)
	assert.Equal(t, 2, cfg.Risk.MaxOpenTrades)
	assert.InDelta(t, 25000, cfg.Risk.AccountBalance, 1e-9)
	assert.Equal(t, []string{"EURUSD", "GBPUSD"}, cfg.Runner.Symbols)
	assert.Equal(t, "csv", cfg.Journal.Type)

	// Untouched sections keep their defaults.
	assert.True(t, cfg.Trailing.Enabled)
	assert.InDelta(t, 20, cfg.Trailing.InitialPips, 1e-9)
	assert.Equal(t, "sim", cfg.Broker.Mode)
}

func TestLoadFromFileJSON(t *testing.T) {
	path := writeFile(t, "cfg.json", `{
  "risk": {"max_daily_loss": 500, "max_drawdown": 2000, "max_consecutive_losses": 5,
           "max_open_trades": 3, "exposure_per_symbol": 1.0,
           "account_balance": 5000, "risk_per_trade": 0.01}
}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 500, cfg.Risk.MaxDailyLoss, 1e-9)
	assert.InDelta(t, 5000, cfg.Risk.AccountBalance, 1e-9)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/cfg.yaml")
	assert.Error(t, err)
}

func TestLoadFromFileGarbage(t *testing.T) {
	path := writeFile(t, "cfg.yaml", "{{{not a config")
	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FXPILOT_JOURNAL_TYPE", "none")
	t.Setenv("FXPILOT_OANDA_TOKEN", "tok-123")
	t.Setenv("FXPILOT_OANDA_ACCOUNT", "001-001-1234567-001")
	t.Setenv("FXPILOT_BROKER_MODE", "oanda")

	cfg, err := LoadFromFile("")
	require.NoError(t, err)

	assert.Equal(t, "none", cfg.Journal.Type)
	assert.Equal(t, "oanda", cfg.Broker.Mode)
	assert.Equal(t, "tok-123", cfg.Broker.Oanda.Token)
	assert.Equal(t, "001-001-1234567-001", cfg.Broker.Oanda.AccountID)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero balance", func(c *Config) { c.Risk.AccountBalance = 0 }},
		{"risk over one", func(c *Config) { c.Risk.RiskPerTrade = 2 }},
		{"no symbols", func(c *Config) { c.Runner.Symbols = nil }},
		{"zero poll interval", func(c *Config) { c.Runner.PollIntervalSeconds = 0 }},
		{"missing strategy", func(c *Config) { c.Strategy.Name = "" }},
		{"bad journal type", func(c *Config) { c.Journal.Type = "postgres" }},
		{"sqlite without path", func(c *Config) { c.Journal.DBPath = "" }},
		{"csv without files", func(c *Config) { c.Journal.Type = "csv" }},
		{"bad broker mode", func(c *Config) { c.Broker.Mode = "ib" }},
		{"oanda without token", func(c *Config) { c.Broker.Mode = "oanda" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")

	cfg := Default()
	cfg.Risk.MaxDailyLoss = 750
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 750, loaded.Risk.MaxDailyLoss, 1e-9)
}
