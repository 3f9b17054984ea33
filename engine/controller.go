// Package engine contains the position-lifecycle controller: it turns
// strategy signals into guarded order placements, supervises trailing
// stops on every price update, and fans closed trades out to the risk
// manager, metrics tracker, and journal.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mwatts/fxpilot/broker"
	"github.com/mwatts/fxpilot/journal"
	"github.com/mwatts/fxpilot/market"
	"github.com/mwatts/fxpilot/metrics"
	"github.com/mwatts/fxpilot/risk"
	"github.com/mwatts/fxpilot/stop"
	"github.com/mwatts/fxpilot/strategies"
)

// Close reasons recorded in the journal.
const (
	ReasonTrailingStop = "TrailingStop"
	ReasonManual       = "Manual"
)

// Config wires a Controller. Execution, Risk, Stops, Metrics, and
// Strategy are required; Journal and Logger are optional.
type Config struct {
	Execution broker.Execution
	Risk      *risk.Manager
	Stops     *stop.Tracker
	Metrics   *metrics.Tracker
	Strategy  strategies.Strategy
	Journal   journal.Journal
	Logger    *logrus.Entry

	// StopDistancePips and UnitValue feed position sizing. Zero values
	// take the 20-pip / $10-per-pip-per-lot defaults.
	StopDistancePips float64
	UnitValue        float64
}

// Controller owns the open-position book and drives each position from
// signal to close. Opens and closes are transactional: a collaborator
// failure leaves every tracker untouched.
type Controller struct {
	exec     broker.Execution
	risk     *risk.Manager
	stops    *stop.Tracker
	metrics  *metrics.Tracker
	strategy strategies.Strategy
	journal  journal.Journal
	log      *logrus.Entry

	book *positionBook

	stopDistance float64
	unitValue    float64
}

// New creates a Controller from the config.
func New(cfg Config) (*Controller, error) {
	if cfg.Execution == nil {
		return nil, fmt.Errorf("engine: execution provider is required")
	}
	if cfg.Risk == nil {
		return nil, fmt.Errorf("engine: risk manager is required")
	}
	if cfg.Stops == nil {
		return nil, fmt.Errorf("engine: stop tracker is required")
	}
	if cfg.Metrics == nil {
		return nil, fmt.Errorf("engine: metrics tracker is required")
	}
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("engine: strategy is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	stopDistance := cfg.StopDistancePips
	if stopDistance == 0 {
		stopDistance = 20
	}
	unitValue := cfg.UnitValue
	if unitValue == 0 {
		unitValue = 10
	}

	return &Controller{
		exec:         cfg.Execution,
		risk:         cfg.Risk,
		stops:        cfg.Stops,
		metrics:      cfg.Metrics,
		strategy:     cfg.Strategy,
		journal:      cfg.Journal,
		log:          log,
		book:         newPositionBook(),
		stopDistance: stopDistance,
		unitValue:    unitValue,
	}, nil
}

// Process evaluates the strategy on the price series and, if a signal
// fires, runs it through sizing and the risk guardrails before placing
// the order. A guardrail rejection is a normal outcome, logged at info
// and returning nil. An execution failure propagates with no state
// change.
func (c *Controller) Process(ctx context.Context, symbol string, prices []float64, ts time.Time) error {
	if len(prices) == 0 {
		return nil
	}

	sig := c.strategy.Signal(prices, symbol, ts)
	if sig == nil {
		return nil
	}

	size, err := c.risk.PositionSize(c.stopDistance, c.unitValue)
	if err != nil {
		return err
	}

	if d := c.risk.CanOpen(symbol, size, ts); !d.Allowed {
		c.log.WithFields(logrus.Fields{
			"symbol": symbol,
			"size":   size,
			"reason": d.Reason(),
		}).Info("risk guardrail rejected trade")
		return nil
	}

	ticket, err := c.exec.PlaceOrder(ctx, symbol, size, sig.Side)
	if err != nil {
		return fmt.Errorf("process %s: %w", symbol, err)
	}

	c.book.add(market.NewPosition(ticket, symbol, sig.Side, size, ts))
	c.risk.RegisterOpen(symbol, size)
	c.stops.Register(ticket, sig.Side, prices[len(prices)-1])

	c.log.WithFields(logrus.Fields{
		"ticket": ticket,
		"symbol": symbol,
		"side":   sig.Side,
		"size":   size,
	}).Info("position opened")
	return nil
}

// CheckTrailingStops feeds the latest price to every open position on
// the symbol and closes those whose stop triggered. Collection happens
// before any close so the position set is never mutated while being
// iterated.
func (c *Controller) CheckTrailingStops(ctx context.Context, symbol string, price float64) error {
	var triggered []string
	for _, pos := range c.book.bySymbol(symbol) {
		if c.stops.Update(pos.Ticket, pos.Side, price) {
			triggered = append(triggered, pos.Ticket)
		}
	}

	for _, ticket := range triggered {
		c.log.WithFields(logrus.Fields{
			"ticket": ticket,
			"symbol": symbol,
			"price":  price,
		}).Info("trailing stop triggered")
		if err := c.closePosition(ctx, ticket, ReasonTrailingStop); err != nil {
			return err
		}
	}
	return nil
}

// ClosePosition closes one position by ticket. Unknown tickets are a
// no-op, which makes a double close harmless.
func (c *Controller) ClosePosition(ctx context.Context, ticket string) error {
	return c.closePosition(ctx, ticket, ReasonManual)
}

// CloseAll closes every open position, stopping at the first execution
// failure.
func (c *Controller) CloseAll(ctx context.Context, reason string) error {
	if reason == "" {
		reason = ReasonManual
	}
	for _, pos := range c.book.all() {
		if err := c.closePosition(ctx, pos.Ticket, reason); err != nil {
			return err
		}
	}
	return nil
}

// closePosition is the single close path. On execution success the
// four bookkeeping steps happen together: risk close, metrics, stop
// removal, and book removal. On execution failure none of them do and
// the position stays open and tracked.
func (c *Controller) closePosition(ctx context.Context, ticket, reason string) error {
	pos, ok := c.book.get(ticket)
	if !ok {
		return nil
	}

	res, err := c.exec.CloseOrder(ctx, ticket)
	if err != nil {
		return fmt.Errorf("close %s: %w", ticket, err)
	}

	c.risk.RegisterClose(res)
	c.metrics.AddTrade(res)
	c.stops.Remove(ticket)
	c.book.remove(ticket)

	if c.journal != nil {
		if jerr := c.journal.RecordTrade(journal.NewTradeRecord(ticket, pos.Side, res, reason)); jerr != nil {
			c.log.WithError(jerr).WithField("ticket", ticket).Error("failed to journal trade")
		}
	}

	c.log.WithFields(logrus.Fields{
		"ticket": ticket,
		"symbol": res.Symbol,
		"profit": res.Profit,
		"reason": reason,
	}).Info("position closed")
	return nil
}

// OpenPositions returns a snapshot of all open positions.
func (c *Controller) OpenPositions() []market.Position {
	return c.book.all()
}

// OpenCount returns the number of open positions.
func (c *Controller) OpenCount() int {
	return c.book.len()
}
