package cmd

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mwatts/fxpilot/broker"
	"github.com/mwatts/fxpilot/broker/oanda"
	"github.com/mwatts/fxpilot/broker/sim"
	"github.com/mwatts/fxpilot/config"
	"github.com/mwatts/fxpilot/engine"
	"github.com/mwatts/fxpilot/journal"
	"github.com/mwatts/fxpilot/metrics"
	"github.com/mwatts/fxpilot/risk"
	"github.com/mwatts/fxpilot/runner"
	"github.com/mwatts/fxpilot/stop"
	"github.com/mwatts/fxpilot/strategies"
)

// stack holds everything a command needs to trade.
type stack struct {
	engine  *engine.Controller
	data    broker.MarketData
	metrics *metrics.Tracker
	journal journal.Journal
	sink    runner.TickSink
	log     *logrus.Entry
}

// buildStack assembles journal, risk, stops, metrics, strategy,
// broker, and engine from the config. The caller owns the journal and
// must Close it.
func buildStack(cfg *config.Config) (*stack, error) {
	log := logrus.WithField("app", "fxpilot")

	jrnl, err := buildJournal(cfg.Journal)
	if err != nil {
		return nil, err
	}

	riskMgr, err := risk.New(risk.Limits{
		MaxDailyLoss:         cfg.Risk.MaxDailyLoss,
		MaxDrawdown:          cfg.Risk.MaxDrawdown,
		MaxConsecutiveLosses: cfg.Risk.MaxConsecutiveLosses,
		MaxOpenTrades:        cfg.Risk.MaxOpenTrades,
		ExposurePerSymbol:    cfg.Risk.ExposurePerSymbol,
		AccountBalance:       cfg.Risk.AccountBalance,
		RiskPerTrade:         cfg.Risk.RiskPerTrade,
	})
	if err != nil {
		jrnl.Close()
		return nil, fmt.Errorf("risk limits: %w", err)
	}

	stops := stop.NewTracker(stop.Config{
		Enabled:      cfg.Trailing.Enabled,
		InitialPips:  cfg.Trailing.InitialPips,
		TrailingPips: cfg.Trailing.TrailingPips,
		StepPips:     cfg.Trailing.StepPips,
		PipSize:      cfg.Trailing.PipSize,
	})

	strat, err := strategies.ByName(cfg.Strategy.Name, cfg.Strategy.FastPeriod, cfg.Strategy.SlowPeriod)
	if err != nil {
		jrnl.Close()
		return nil, fmt.Errorf("strategy: %w", err)
	}

	perf := metrics.NewTracker()

	var (
		data broker.MarketData
		exec broker.Execution
		sink runner.TickSink
	)
	switch strings.ToLower(cfg.Broker.Mode) {
	case "oanda":
		client := oanda.NewClient(cfg.Broker.Oanda.Token, cfg.Broker.Oanda.AccountID, cfg.Broker.Oanda.Practice)
		data, exec = client, client
	default:
		exchange := sim.NewExchange()
		data = sim.NewDataProvider(cfg.Broker.Seed)
		exec = exchange
		sink = exchange
	}

	eng, err := engine.New(engine.Config{
		Execution:        exec,
		Risk:             riskMgr,
		Stops:            stops,
		Metrics:          perf,
		Strategy:         strat,
		Journal:          jrnl,
		Logger:           log,
		StopDistancePips: cfg.Strategy.StopPips,
		UnitValue:        cfg.Strategy.UnitValue,
	})
	if err != nil {
		jrnl.Close()
		return nil, err
	}

	return &stack{
		engine:  eng,
		data:    data,
		metrics: perf,
		journal: jrnl,
		sink:    sink,
		log:     log,
	}, nil
}

func buildJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch strings.ToLower(cfg.Type) {
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	case "csv":
		return journal.NewCSV(cfg.TradesFile, cfg.SnapshotsFile)
	default:
		return journal.Nop{}, nil
	}
}
