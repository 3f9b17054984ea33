package strategies

import (
	"fmt"
	"time"

	"github.com/mwatts/fxpilot/indicators"
	"github.com/mwatts/fxpilot/market"
)

// Compile-time interface check.
var _ Strategy = (*SMACross)(nil)

// SMACross signals on a fast/slow simple-moving-average crossover: buy
// when the fast average crosses above the slow one, sell when it
// crosses below.
type SMACross struct {
	fast int
	slow int
}

// NewSMACross creates an SMACross. fast must be positive and strictly
// less than slow.
func NewSMACross(fast, slow int) (*SMACross, error) {
	if fast <= 0 {
		return nil, fmt.Errorf("fast period must be positive, got %d", fast)
	}
	if fast >= slow {
		return nil, fmt.Errorf("fast period %d must be less than slow period %d", fast, slow)
	}
	return &SMACross{fast: fast, slow: slow}, nil
}

// Name returns "sma-cross".
func (s *SMACross) Name() string { return "sma-cross" }

// Signal compares the last two points of both averages. Fewer than
// slow+1 prices is not enough to observe a cross.
func (s *SMACross) Signal(prices []float64, symbol string, ts time.Time) *Signal {
	if len(prices) < s.slow+1 {
		return nil
	}

	fast, err := indicators.SMA(prices, s.fast)
	if err != nil {
		return nil
	}
	slow, err := indicators.SMA(prices, s.slow)
	if err != nil {
		return nil
	}

	fastPrev, fastNow := fast[len(fast)-2], fast[len(fast)-1]
	slowPrev, slowNow := slow[len(slow)-2], slow[len(slow)-1]

	switch {
	case fastPrev <= slowPrev && fastNow > slowNow:
		return &Signal{Symbol: symbol, Side: market.Buy, Time: market.UTC(ts)}
	case fastPrev >= slowPrev && fastNow < slowNow:
		return &Signal{Symbol: symbol, Side: market.Sell, Time: market.UTC(ts)}
	default:
		return nil
	}
}
