// Package backtest replays historical bars through the engine,
// closing each bar's trailing stops before evaluating the strategy on
// the updated series.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mwatts/fxpilot/broker"
	"github.com/mwatts/fxpilot/engine"
	"github.com/mwatts/fxpilot/market"
	"github.com/mwatts/fxpilot/metrics"
	"github.com/mwatts/fxpilot/runner"
)

// ReasonEndOfData marks positions force-closed when the replay runs
// out of bars.
const ReasonEndOfData = "EndOfData"

// Result summarizes one backtest run.
type Result struct {
	Symbol   string
	Bars     int
	Trades   int
	Metrics  metrics.Snapshot
	Duration time.Duration
}

// Config wires a Backtester.
type Config struct {
	Engine  *engine.Controller
	Data    broker.MarketData
	Metrics *metrics.Tracker
	Logger  *logrus.Entry

	// Sink receives each bar's synthetic tick so the execution
	// provider fills at replay prices.
	Sink runner.TickSink
}

// Backtester replays bars through the engine.
type Backtester struct {
	engine  *engine.Controller
	data    broker.MarketData
	metrics *metrics.Tracker
	log     *logrus.Entry
	sink    runner.TickSink
}

// New creates a Backtester from the config.
func New(cfg Config) (*Backtester, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("backtest: engine is required")
	}
	if cfg.Data == nil {
		return nil, fmt.Errorf("backtest: market data provider is required")
	}
	if cfg.Metrics == nil {
		return nil, fmt.Errorf("backtest: metrics tracker is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Backtester{
		engine:  cfg.Engine,
		data:    cfg.Data,
		metrics: cfg.Metrics,
		log:     log,
		sink:    cfg.Sink,
	}, nil
}

// Run fetches count bars of history for the symbol and replays them in
// order. Remaining open positions are flattened after the last bar so
// the metrics reflect completed trades only.
func (b *Backtester) Run(ctx context.Context, symbol string, interval time.Duration, count int) (Result, error) {
	start := time.Now()

	bars, err := b.data.HistoricalBars(ctx, symbol, interval, count)
	if err != nil {
		return Result{}, fmt.Errorf("backtest %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return Result{}, fmt.Errorf("backtest %s: no bars", symbol)
	}

	series := market.NewSeries(len(bars))
	for _, bar := range bars {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		tick := market.Tick{
			Symbol: symbol,
			Bid:    bar.Close,
			Ask:    bar.Close,
			Time:   bar.Time,
		}
		if b.sink != nil {
			b.sink.SetTick(tick)
		}
		series.Append(bar.Close)

		if err := b.engine.CheckTrailingStops(ctx, symbol, bar.Close); err != nil {
			return Result{}, err
		}
		if err := b.engine.Process(ctx, symbol, series.Prices(), bar.Time); err != nil {
			return Result{}, err
		}
	}

	if err := b.engine.CloseAll(ctx, ReasonEndOfData); err != nil {
		return Result{}, err
	}

	snap := b.metrics.Snapshot()
	res := Result{
		Symbol:   symbol,
		Bars:     len(bars),
		Trades:   len(snap.EquityCurve),
		Metrics:  snap,
		Duration: time.Since(start),
	}

	b.log.WithFields(logrus.Fields{
		"symbol":        symbol,
		"bars":          res.Bars,
		"trades":        res.Trades,
		"win_rate":      snap.WinRate,
		"profit_factor": snap.ProfitFactor,
		"max_drawdown":  snap.MaxDrawdown,
		"elapsed":       res.Duration,
	}).Info("backtest complete")
	return res, nil
}
