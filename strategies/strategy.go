// Package strategies defines the signal-generator interface consumed by
// the engine and the built-in implementations. Strategies are pure:
// given a price series they return a signal or nil, with no side
// effects and no market access.
package strategies

import (
	"fmt"
	"strings"
	"time"

	"github.com/mwatts/fxpilot/market"
)

// Signal is a directional trade suggestion for a symbol.
type Signal struct {
	Symbol string
	Side   market.Side
	Time   time.Time
}

// Strategy turns a price series into an optional signal.
type Strategy interface {
	Name() string

	// Signal returns nil when the series suggests no trade.
	Signal(prices []float64, symbol string, ts time.Time) *Signal
}

// ByName constructs a built-in strategy from its registry name.
func ByName(name string, fast, slow int) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return Noop{}, nil
	case "sma-cross", "smacross":
		return NewSMACross(fast, slow)
	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, sma-cross)", name)
	}
}

// Noop never signals. Useful for soak-testing the loop without trading.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Signal([]float64, string, time.Time) *Signal { return nil }
