// Package stop maintains trailing stop-loss levels for open positions.
// Each registered ticket carries exactly two floats: the stop price and
// the most favorable price seen. Stops ratchet in discrete steps so a
// noisy series does not thrash the level on every tick, and a stop
// never retreats once set.
package stop

import (
	"sync"

	"github.com/mwatts/fxpilot/market"
)

// Config controls trailing-stop behavior. Distances are in pips scaled
// by PipSize into price terms.
type Config struct {
	Enabled      bool
	InitialPips  float64 // stop distance from entry at registration
	TrailingPips float64 // stop distance from the extreme price
	StepPips     float64 // minimum improvement before the stop moves
	PipSize      float64 // price value of one pip, 0.0001 when zero
}

// DefaultConfig mirrors the standard 20/10/5 pip setup on a 4-decimal
// FX pair.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		InitialPips:  20,
		TrailingPips: 10,
		StepPips:     5,
		PipSize:      0.0001,
	}
}

func (c Config) pipSize() float64 {
	if c.PipSize == 0 {
		return 0.0001
	}
	return c.PipSize
}

// state is the per-ticket tracking data: the current stop level and the
// highest (long) or lowest (short) price seen since registration.
type state struct {
	stop    float64
	extreme float64
}

// Tracker holds trailing-stop state per ticket. It never owns position
// lifecycle: registrations and removals are driven by the engine.
type Tracker struct {
	mu     sync.Mutex
	cfg    Config
	levels map[string]*state
}

// NewTracker creates a Tracker with the given configuration.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		cfg:    cfg,
		levels: make(map[string]*state),
	}
}

// Register starts tracking a ticket with an initial stop offset from
// the entry price. When tracking is disabled this is a no-op and
// Update will always report false for the ticket.
func (t *Tracker) Register(ticket string, side market.Side, entryPrice float64) {
	if !t.cfg.Enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	offset := t.cfg.InitialPips * t.cfg.pipSize()
	st := &state{extreme: entryPrice}
	if side == market.Buy {
		st.stop = entryPrice - offset
	} else {
		st.stop = entryPrice + offset
	}
	t.levels[ticket] = st
}

// Update advances the trailing stop for a ticket given the latest price
// and reports whether the position should be closed. Unknown tickets
// always report false.
//
// For a long, a new extreme raises a candidate stop at price minus the
// trailing offset; the stop only moves when the candidate beats the
// current stop by more than the step offset. Shorts mirror the logic.
func (t *Tracker) Update(ticket string, side market.Side, price float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.levels[ticket]
	if !ok {
		return false
	}

	pip := t.cfg.pipSize()
	trail := t.cfg.TrailingPips * pip
	step := t.cfg.StepPips * pip

	if side == market.Buy {
		if price > st.extreme {
			st.extreme = price
			if candidate := price - trail; candidate > st.stop+step {
				st.stop = candidate
			}
		}
		return price <= st.stop
	}

	if price < st.extreme {
		st.extreme = price
		if candidate := price + trail; candidate < st.stop-step {
			st.stop = candidate
		}
	}
	return price >= st.stop
}

// Remove drops tracking state for a ticket. Safe to call repeatedly.
func (t *Tracker) Remove(ticket string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.levels, ticket)
}

// Level returns the current stop for a ticket and whether the ticket is
// tracked.
func (t *Tracker) Level(ticket string) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.levels[ticket]
	if !ok {
		return 0, false
	}
	return st.stop, true
}

// Tracked returns the number of tickets currently tracked.
func (t *Tracker) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.levels)
}
