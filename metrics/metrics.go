// Package metrics accumulates closed trades into performance
// statistics: equity curve, win rate, profit factor, Sharpe ratio, and
// maximum drawdown.
package metrics

import (
	"math"
	"sync"

	"github.com/mwatts/fxpilot/market"
)

// Snapshot is a read-only view of performance derived from the full
// trade history. The equity curve is cumulative realized P&L per closed
// trade, starting from zero: relative profit, not absolute account
// equity.
type Snapshot struct {
	EquityCurve  []float64
	WinRate      float64
	ProfitFactor float64
	SharpeRatio  float64
	MaxDrawdown  float64
}

// Tracker consumes TradeResults and produces Snapshots. The equity
// curve is maintained incrementally; everything else is recomputed from
// the trade list on demand.
type Tracker struct {
	mu     sync.Mutex
	trades []market.TradeResult
	curve  []float64
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// AddTrade appends a closed trade and extends the equity curve.
func (t *Tracker) AddTrade(trade market.TradeResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.trades = append(t.trades, trade)
	last := 0.0
	if n := len(t.curve); n > 0 {
		last = t.curve[n-1]
	}
	t.curve = append(t.curve, last+trade.Profit)
}

// TradeCount returns the number of recorded trades.
func (t *Tracker) TradeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.trades)
}

// Snapshot recomputes all statistics from the trade history.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	curve := make([]float64, len(t.curve))
	copy(curve, t.curve)

	return Snapshot{
		EquityCurve:  curve,
		WinRate:      t.winRate(),
		ProfitFactor: t.profitFactor(),
		SharpeRatio:  t.sharpeRatio(),
		MaxDrawdown:  t.maxDrawdown(),
	}
}

func (t *Tracker) winRate() float64 {
	if len(t.trades) == 0 {
		return 0
	}
	wins := 0
	for _, tr := range t.trades {
		if tr.Profit > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(t.trades))
}

func (t *Tracker) profitFactor() float64 {
	var grossProfit, grossLoss float64
	for _, tr := range t.trades {
		switch {
		case tr.Profit > 0:
			grossProfit += tr.Profit
		case tr.Profit < 0:
			grossLoss += -tr.Profit
		}
	}
	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}

// sharpeRatio is mean profit over sample standard deviation (N-1
// denominator). Fewer than two trades yields zero.
func (t *Tracker) sharpeRatio() float64 {
	n := len(t.trades)
	if n < 2 {
		return 0
	}

	sum := 0.0
	for _, tr := range t.trades {
		sum += tr.Profit
	}
	mean := sum / float64(n)

	variance := 0.0
	for _, tr := range t.trades {
		d := tr.Profit - mean
		variance += d * d
	}
	variance /= float64(n - 1)

	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0
	}
	return mean / stddev
}

func (t *Tracker) maxDrawdown() float64 {
	peak, maxDD := 0.0, 0.0
	for _, equity := range t.curve {
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
