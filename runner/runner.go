// Package runner drives the live polling loop: it warms the price
// series from historical bars, then polls ticks on an interval, feeding
// each one through the trailing-stop check and the strategy.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mwatts/fxpilot/broker"
	"github.com/mwatts/fxpilot/engine"
	"github.com/mwatts/fxpilot/internal/id"
	"github.com/mwatts/fxpilot/journal"
	"github.com/mwatts/fxpilot/market"
	"github.com/mwatts/fxpilot/metrics"
)

// heartbeatEvery is the number of poll cycles between metrics
// snapshots written to the journal.
const heartbeatEvery = 5

// TickSink is implemented by execution providers that fill orders from
// locally posted quotes. The runner forwards every polled tick so sim
// fills use current prices.
type TickSink interface {
	SetTick(market.Tick)
}

// Config wires a LiveRunner.
type Config struct {
	Engine  *engine.Controller
	Data    broker.MarketData
	Metrics *metrics.Tracker
	Journal journal.Journal
	Logger  *logrus.Entry

	// Sink receives polled ticks when the execution provider needs
	// them posted. Nil for brokers that quote their own fills.
	Sink TickSink

	Symbols      []string
	Timeframe    time.Duration
	PollInterval time.Duration
	WarmupBars   int
}

// LiveRunner polls market data and hands it to the engine until its
// context is cancelled.
type LiveRunner struct {
	engine  *engine.Controller
	data    broker.MarketData
	metrics *metrics.Tracker
	journal journal.Journal
	log     *logrus.Entry
	sink    TickSink

	symbols      []string
	timeframe    time.Duration
	pollInterval time.Duration
	warmupBars   int

	session string
	series  map[string]*market.Series
}

// New creates a LiveRunner from the config.
func New(cfg Config) (*LiveRunner, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("runner: engine is required")
	}
	if cfg.Data == nil {
		return nil, fmt.Errorf("runner: market data provider is required")
	}
	if cfg.Metrics == nil {
		return nil, fmt.Errorf("runner: metrics tracker is required")
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("runner: at least one symbol is required")
	}

	jrnl := cfg.Journal
	if jrnl == nil {
		jrnl = journal.Nop{}
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	warmup := cfg.WarmupBars
	if warmup < 10 {
		warmup = 10
	}
	poll := cfg.PollInterval
	if poll < time.Second {
		poll = time.Second
	}
	timeframe := cfg.Timeframe
	if timeframe <= 0 {
		timeframe = 5 * time.Minute
	}

	series := make(map[string]*market.Series, len(cfg.Symbols))
	for _, sym := range cfg.Symbols {
		series[sym] = market.NewSeries(warmup + 1)
	}

	return &LiveRunner{
		engine:       cfg.Engine,
		data:         cfg.Data,
		metrics:      cfg.Metrics,
		journal:      jrnl,
		log:          log,
		sink:         cfg.Sink,
		symbols:      cfg.Symbols,
		timeframe:    timeframe,
		pollInterval: poll,
		warmupBars:   warmup,
		session:      id.New(),
		series:       series,
	}, nil
}

// SessionID returns the ULID assigned to this run.
func (r *LiveRunner) SessionID() string { return r.session }

// Run executes the polling loop until ctx is cancelled. On shutdown it
// ends the journal session and logs a summary; open positions are left
// to the caller, who may choose to flatten them first.
func (r *LiveRunner) Run(ctx context.Context) error {
	start := time.Now().UTC()
	if err := r.journal.StartSession(journal.SessionRecord{
		ID:        r.session,
		StartedAt: start,
		Note:      fmt.Sprintf("live symbols=%v timeframe=%s", r.symbols, r.timeframe),
	}); err != nil {
		r.log.WithError(err).Error("failed to record session start")
	}

	r.warmup(ctx)

	r.log.WithFields(logrus.Fields{
		"session":  r.session,
		"symbols":  r.symbols,
		"interval": r.pollInterval,
	}).Info("live loop started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	cycles := 0
	for {
		select {
		case <-ctx.Done():
			return r.shutdown()
		case <-ticker.C:
			r.poll(ctx)
			cycles++
			if cycles%heartbeatEvery == 0 {
				r.heartbeat()
			}
		}
	}
}

// warmup seeds each symbol's series from historical bars. A symbol
// whose history fails to load starts cold and fills from live ticks.
func (r *LiveRunner) warmup(ctx context.Context) {
	for _, sym := range r.symbols {
		bars, err := r.data.HistoricalBars(ctx, sym, r.timeframe, r.warmupBars)
		if err != nil {
			r.log.WithError(err).WithField("symbol", sym).Warn("warmup failed, starting cold")
			continue
		}
		closes := make([]float64, len(bars))
		for i, b := range bars {
			closes[i] = b.Close
		}
		r.series[sym].Seed(closes)
		r.log.WithFields(logrus.Fields{
			"symbol": sym,
			"bars":   len(bars),
		}).Info("series warmed")
	}
}

// poll runs one cycle over every symbol. A failing symbol is logged
// and skipped; it gets another chance next cycle.
func (r *LiveRunner) poll(ctx context.Context) {
	for _, sym := range r.symbols {
		tick, err := r.data.LatestTick(ctx, sym)
		if err != nil {
			r.log.WithError(err).WithField("symbol", sym).Warn("tick fetch failed")
			continue
		}
		if r.sink != nil {
			r.sink.SetTick(tick)
		}

		s := r.series[sym]
		s.Append(tick.Mid())

		if err := r.engine.CheckTrailingStops(ctx, sym, tick.Bid); err != nil {
			r.log.WithError(err).WithField("symbol", sym).Error("trailing stop check failed")
			continue
		}
		if err := r.engine.Process(ctx, sym, s.Prices(), tick.Time); err != nil {
			r.log.WithError(err).WithField("symbol", sym).Error("signal processing failed")
		}
	}
}

func (r *LiveRunner) heartbeat() {
	snap := r.metrics.Snapshot()
	if err := r.journal.RecordSnapshot(journal.NewSnapshotRecord(snap, time.Now().UTC())); err != nil {
		r.log.WithError(err).Error("failed to record metrics snapshot")
	}
}

func (r *LiveRunner) shutdown() error {
	open := r.engine.OpenCount()
	if err := r.journal.EndSession(journal.SessionRecord{
		ID:            r.session,
		EndedAt:       time.Now().UTC(),
		OpenPositions: open,
	}); err != nil {
		r.log.WithError(err).Error("failed to record session end")
	}

	snap := r.metrics.Snapshot()
	r.log.WithFields(logrus.Fields{
		"session":       r.session,
		"trades":        len(snap.EquityCurve),
		"win_rate":      snap.WinRate,
		"profit_factor": snap.ProfitFactor,
		"max_drawdown":  snap.MaxDrawdown,
		"open":          open,
	}).Info("live loop stopped")
	return nil
}
