package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwatts/fxpilot/market"
)

func addTrades(t *testing.T, tr *Tracker, profits ...float64) {
	t.Helper()
	for _, p := range profits {
		tr.AddTrade(market.NewTradeResult("EURUSD", 0.5, p, time.Now()))
	}
}

func TestSnapshotEmpty(t *testing.T) {
	t.Parallel()

	snap := NewTracker().Snapshot()

	assert.Empty(t, snap.EquityCurve)
	assert.Zero(t, snap.WinRate)
	assert.Zero(t, snap.ProfitFactor)
	assert.Zero(t, snap.SharpeRatio)
	assert.Zero(t, snap.MaxDrawdown)
}

func TestSnapshotWinAndLoss(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	addTrades(t, tr, 50, -20)

	snap := tr.Snapshot()
	assert.Equal(t, []float64{50, 30}, snap.EquityCurve)
	assert.InDelta(t, 0.5, snap.WinRate, 1e-9)
	assert.InDelta(t, 2.5, snap.ProfitFactor, 1e-9)
	assert.InDelta(t, 20, snap.MaxDrawdown, 1e-9)
}

func TestProfitFactor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		profits []float64
		want    float64
		wantInf bool
	}{
		{"all winners", []float64{10, 20}, 0, true},
		{"all losers", []float64{-10, -20}, 0, false},
		{"mixed", []float64{100, -25, -25}, 2.0, false},
		{"break-even only", []float64{0, 0}, 0, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr := NewTracker()
			addTrades(t, tr, tt.profits...)

			got := tr.Snapshot().ProfitFactor
			if tt.wantInf {
				assert.True(t, math.IsInf(got, 1))
			} else {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestSharpeRatio(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	addTrades(t, tr, 10)
	assert.Zero(t, tr.Snapshot().SharpeRatio, "one trade is not enough")

	// Profits 10 and 30: mean 20, sample stddev sqrt(200).
	tr = NewTracker()
	addTrades(t, tr, 10, 30)
	assert.InDelta(t, 20/math.Sqrt(200), tr.Snapshot().SharpeRatio, 1e-9)

	// Identical profits have zero variance.
	tr = NewTracker()
	addTrades(t, tr, 10, 10, 10)
	assert.Zero(t, tr.Snapshot().SharpeRatio)
}

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		profits []float64
		want    float64
	}{
		{"monotonic gains", []float64{10, 10, 10}, 0},
		{"single dip", []float64{50, -20, 40}, 20},
		{"deep underwater", []float64{-30, -20, 10}, 50},
		{"two drawdowns keeps worst", []float64{100, -10, 30, -80, -40}, 120},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr := NewTracker()
			addTrades(t, tr, tt.profits...)
			assert.InDelta(t, tt.want, tr.Snapshot().MaxDrawdown, 1e-9)
		})
	}
}

func TestEquityCurveIsCumulative(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	addTrades(t, tr, 10, -5, 20)

	snap := tr.Snapshot()
	require.Equal(t, []float64{10, 5, 25}, snap.EquityCurve)
	assert.Equal(t, 3, tr.TradeCount())

	// The snapshot owns its copy of the curve.
	snap.EquityCurve[0] = 999
	assert.Equal(t, []float64{10, 5, 25}, tr.Snapshot().EquityCurve)
}
