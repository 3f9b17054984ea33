package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwatts/fxpilot/journal"
	"github.com/mwatts/fxpilot/market"
	"github.com/mwatts/fxpilot/metrics"
	"github.com/mwatts/fxpilot/risk"
	"github.com/mwatts/fxpilot/stop"
	"github.com/mwatts/fxpilot/strategies"
)

// fakeExec is an in-test execution provider with scriptable failures
// and a fixed close profit.
type fakeExec struct {
	placeErr error
	closeErr error
	profit   float64

	placed int
	closed []string
}

func (f *fakeExec) PlaceOrder(_ context.Context, symbol string, size float64, side market.Side) (string, error) {
	if f.placeErr != nil {
		return "", f.placeErr
	}
	f.placed++
	return fmt.Sprintf("T%d", f.placed), nil
}

func (f *fakeExec) CloseOrder(_ context.Context, ticket string) (market.TradeResult, error) {
	if f.closeErr != nil {
		return market.TradeResult{}, f.closeErr
	}
	f.closed = append(f.closed, ticket)
	return market.NewTradeResult("EURUSD", 0.5, f.profit, time.Now()), nil
}

// stubStrategy always returns the configured signal.
type stubStrategy struct {
	side market.Side
}

func (stubStrategy) Name() string { return "stub" }

func (s stubStrategy) Signal(prices []float64, symbol string, ts time.Time) *strategies.Signal {
	if s.side == "" {
		return nil
	}
	return &strategies.Signal{Symbol: symbol, Side: s.side, Time: ts}
}

// recordingJournal captures trade records.
type recordingJournal struct {
	journal.Nop
	trades []journal.TradeRecord
}

func (r *recordingJournal) RecordTrade(t journal.TradeRecord) error {
	r.trades = append(r.trades, t)
	return nil
}

type harness struct {
	ctrl    *Controller
	exec    *fakeExec
	risk    *risk.Manager
	stops   *stop.Tracker
	metrics *metrics.Tracker
	journal *recordingJournal
}

func newHarness(t *testing.T, strat strategies.Strategy, limits risk.Limits) *harness {
	t.Helper()

	riskMgr, err := risk.New(limits)
	require.NoError(t, err)

	h := &harness{
		exec:    &fakeExec{},
		risk:    riskMgr,
		stops:   stop.NewTracker(stop.DefaultConfig()),
		metrics: metrics.NewTracker(),
		journal: &recordingJournal{},
	}

	h.ctrl, err = New(Config{
		Execution: h.exec,
		Risk:      h.risk,
		Stops:     h.stops,
		Metrics:   h.metrics,
		Strategy:  strat,
		Journal:   h.journal,
	})
	require.NoError(t, err)
	return h
}

func defaultLimits() risk.Limits {
	return risk.Limits{
		MaxDailyLoss:         1000,
		MaxDrawdown:          5000,
		MaxConsecutiveLosses: 10,
		MaxOpenTrades:        5,
		ExposurePerSymbol:    1.0,
		AccountBalance:       10000,
		RiskPerTrade:         0.01,
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	t.Parallel()

	riskMgr, err := risk.New(defaultLimits())
	require.NoError(t, err)

	valid := Config{
		Execution: &fakeExec{},
		Risk:      riskMgr,
		Stops:     stop.NewTracker(stop.DefaultConfig()),
		Metrics:   metrics.NewTracker(),
		Strategy:  stubStrategy{},
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no execution", func(c *Config) { c.Execution = nil }},
		{"no risk", func(c *Config) { c.Risk = nil }},
		{"no stops", func(c *Config) { c.Stops = nil }},
		{"no metrics", func(c *Config) { c.Metrics = nil }},
		{"no strategy", func(c *Config) { c.Strategy = nil }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestProcessOpensPositionOnSignal(t *testing.T) {
	t.Parallel()

	h := newHarness(t, stubStrategy{side: market.Buy}, defaultLimits())
	ctx := context.Background()

	err := h.ctrl.Process(ctx, "EURUSD", []float64{1.0, 1.0, 1.0000}, time.Now())
	require.NoError(t, err)

	require.Equal(t, 1, h.ctrl.OpenCount())
	pos := h.ctrl.OpenPositions()[0]
	assert.Equal(t, "T1", pos.Ticket)
	assert.Equal(t, market.Buy, pos.Side)
	assert.InDelta(t, 0.5, pos.Size, 1e-9)

	assert.InDelta(t, 0.5, h.risk.OpenExposure("EURUSD"), 1e-9)
	assert.Equal(t, 1, h.stops.Tracked())
}

func TestProcessNoSignalNoOrder(t *testing.T) {
	t.Parallel()

	h := newHarness(t, stubStrategy{}, defaultLimits())
	err := h.ctrl.Process(context.Background(), "EURUSD", []float64{1.0, 1.0}, time.Now())
	require.NoError(t, err)
	assert.Zero(t, h.exec.placed)
	assert.Zero(t, h.ctrl.OpenCount())
}

func TestProcessEmptyPrices(t *testing.T) {
	t.Parallel()

	h := newHarness(t, stubStrategy{side: market.Buy}, defaultLimits())
	err := h.ctrl.Process(context.Background(), "EURUSD", nil, time.Now())
	require.NoError(t, err)
	assert.Zero(t, h.exec.placed)
}

func TestProcessGuardrailRejection(t *testing.T) {
	t.Parallel()

	limits := defaultLimits()
	limits.MaxOpenTrades = 1
	h := newHarness(t, stubStrategy{side: market.Buy}, limits)
	ctx := context.Background()

	require.NoError(t, h.ctrl.Process(ctx, "EURUSD", []float64{1.0}, time.Now()))
	require.Equal(t, 1, h.ctrl.OpenCount())

	// Second signal is rejected by the open-trade limit, not an error.
	require.NoError(t, h.ctrl.Process(ctx, "GBPUSD", []float64{1.0}, time.Now()))
	assert.Equal(t, 1, h.ctrl.OpenCount())
	assert.Equal(t, 1, h.exec.placed)
}

func TestProcessExecutionFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, stubStrategy{side: market.Buy}, defaultLimits())
	h.exec.placeErr = errors.New("venue down")

	err := h.ctrl.Process(context.Background(), "EURUSD", []float64{1.0}, time.Now())
	require.Error(t, err)

	assert.Zero(t, h.ctrl.OpenCount())
	assert.Zero(t, h.risk.OpenExposure("EURUSD"))
	assert.Zero(t, h.stops.Tracked())
}

func TestCheckTrailingStopsClosesTriggered(t *testing.T) {
	t.Parallel()

	h := newHarness(t, stubStrategy{side: market.Buy}, defaultLimits())
	h.exec.profit = -30
	ctx := context.Background()

	require.NoError(t, h.ctrl.Process(ctx, "EURUSD", []float64{1.0000}, time.Now()))
	require.Equal(t, 1, h.ctrl.OpenCount())

	// Above the initial 20-pip stop: stays open.
	require.NoError(t, h.ctrl.CheckTrailingStops(ctx, "EURUSD", 0.9990))
	assert.Equal(t, 1, h.ctrl.OpenCount())

	// Through the stop: closed and fanned out.
	require.NoError(t, h.ctrl.CheckTrailingStops(ctx, "EURUSD", 0.9975))
	assert.Zero(t, h.ctrl.OpenCount())
	assert.Zero(t, h.stops.Tracked())
	assert.Equal(t, 1, h.metrics.TradeCount())
	assert.Equal(t, 1, h.risk.LossStreak())

	require.Len(t, h.journal.trades, 1)
	assert.Equal(t, ReasonTrailingStop, h.journal.trades[0].Reason)
}

func TestClosePositionIsIdempotent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, stubStrategy{side: market.Buy}, defaultLimits())
	h.exec.profit = 40
	ctx := context.Background()

	require.NoError(t, h.ctrl.Process(ctx, "EURUSD", []float64{1.0}, time.Now()))
	ticket := h.ctrl.OpenPositions()[0].Ticket

	require.NoError(t, h.ctrl.ClosePosition(ctx, ticket))
	require.NoError(t, h.ctrl.ClosePosition(ctx, ticket))

	assert.Equal(t, 1, h.metrics.TradeCount())
	assert.Len(t, h.exec.closed, 1)
	require.Len(t, h.journal.trades, 1)
	assert.Equal(t, ReasonManual, h.journal.trades[0].Reason)
}

func TestCloseFailureLeavesPositionOpen(t *testing.T) {
	t.Parallel()

	h := newHarness(t, stubStrategy{side: market.Buy}, defaultLimits())
	ctx := context.Background()

	require.NoError(t, h.ctrl.Process(ctx, "EURUSD", []float64{1.0}, time.Now()))
	ticket := h.ctrl.OpenPositions()[0].Ticket

	h.exec.closeErr = errors.New("venue down")
	require.Error(t, h.ctrl.ClosePosition(ctx, ticket))

	assert.Equal(t, 1, h.ctrl.OpenCount())
	assert.Equal(t, 1, h.stops.Tracked())
	assert.Zero(t, h.metrics.TradeCount())
	assert.InDelta(t, 0.5, h.risk.OpenExposure("EURUSD"), 1e-9)
}

func TestCloseAll(t *testing.T) {
	t.Parallel()

	h := newHarness(t, stubStrategy{side: market.Buy}, defaultLimits())
	ctx := context.Background()

	require.NoError(t, h.ctrl.Process(ctx, "EURUSD", []float64{1.0}, time.Now()))
	require.NoError(t, h.ctrl.Process(ctx, "GBPUSD", []float64{1.0}, time.Now()))
	require.Equal(t, 2, h.ctrl.OpenCount())

	require.NoError(t, h.ctrl.CloseAll(ctx, "EndOfDay"))

	assert.Zero(t, h.ctrl.OpenCount())
	assert.Equal(t, 2, h.metrics.TradeCount())
	require.Len(t, h.journal.trades, 2)
	for _, tr := range h.journal.trades {
		assert.Equal(t, "EndOfDay", tr.Reason)
	}
}
