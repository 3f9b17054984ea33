package stop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwatts/fxpilot/market"
)

func TestRegisterSetsInitialStop(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultConfig())

	tr.Register("long", market.Buy, 1.0000)
	level, ok := tr.Level("long")
	require.True(t, ok)
	assert.InDelta(t, 0.9980, level, 1e-9)

	tr.Register("short", market.Sell, 1.0000)
	level, ok = tr.Level("short")
	require.True(t, ok)
	assert.InDelta(t, 1.0020, level, 1e-9)

	assert.Equal(t, 2, tr.Tracked())
}

func TestRegisterDisabledIsNoop(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Enabled = false
	tr := NewTracker(cfg)

	tr.Register("t1", market.Buy, 1.0000)
	assert.Equal(t, 0, tr.Tracked())
	assert.False(t, tr.Update("t1", market.Buy, 0.5000))
}

func TestUpdateRatchetAndTrigger(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultConfig())
	tr.Register("t1", market.Buy, 1.0000)

	// 1.0010: candidate 1.0000 beats 0.9980 by more than the 5-pip
	// step, so the stop ratchets to breakeven.
	assert.False(t, tr.Update("t1", market.Buy, 1.0010))
	level, _ := tr.Level("t1")
	assert.InDelta(t, 1.0000, level, 1e-9)

	// 1.0025: candidate 1.0015 beats 1.0000 by 15 pips.
	assert.False(t, tr.Update("t1", market.Buy, 1.0025))
	level, _ = tr.Level("t1")
	assert.InDelta(t, 1.0015, level, 1e-9)

	// 0.9998 is below the stop: close.
	assert.True(t, tr.Update("t1", market.Buy, 0.9998))
}

func TestUpdateStopNeverRetreats(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultConfig())
	tr.Register("t1", market.Buy, 1.0000)

	prices := []float64{1.0010, 1.0030, 1.0020, 1.0025, 1.0050}
	prev := 0.0
	for _, p := range prices {
		tr.Update("t1", market.Buy, p)
		level, ok := tr.Level("t1")
		require.True(t, ok)
		assert.GreaterOrEqual(t, level, prev, "stop retreated at price %v", p)
		prev = level
	}
}

func TestUpdateStepSuppressesSmallMoves(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultConfig())
	tr.Register("t1", market.Buy, 1.0000)

	// Candidate 0.9994 improves on 0.9980 by 14 pips: move.
	tr.Update("t1", market.Buy, 1.0004)
	level, _ := tr.Level("t1")
	assert.InDelta(t, 0.9994, level, 1e-9)

	// Candidate 0.9996 improves by only 2 pips: hold.
	tr.Update("t1", market.Buy, 1.0006)
	level, _ = tr.Level("t1")
	assert.InDelta(t, 0.9994, level, 1e-9)
}

func TestUpdateShortSideMirrors(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultConfig())
	tr.Register("t1", market.Sell, 1.0000)

	// Falling prices tighten the stop downward.
	assert.False(t, tr.Update("t1", market.Sell, 0.9990))
	level, _ := tr.Level("t1")
	assert.InDelta(t, 1.0000, level, 1e-9)

	assert.False(t, tr.Update("t1", market.Sell, 0.9975))
	level, _ = tr.Level("t1")
	assert.InDelta(t, 0.9985, level, 1e-9)

	// A bounce to the stop closes the short.
	assert.True(t, tr.Update("t1", market.Sell, 1.0002))
}

func TestUpdateUnknownTicket(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultConfig())
	assert.False(t, tr.Update("missing", market.Buy, 1.0000))
}

func TestRemoveIsIdempotent(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultConfig())
	tr.Register("t1", market.Buy, 1.0000)

	tr.Remove("t1")
	tr.Remove("t1")

	assert.Equal(t, 0, tr.Tracked())
	_, ok := tr.Level("t1")
	assert.False(t, ok)
}

func TestPipSizeDefault(t *testing.T) {
	t.Parallel()

	cfg := Config{Enabled: true, InitialPips: 20, TrailingPips: 10, StepPips: 5}
	tr := NewTracker(cfg)
	tr.Register("t1", market.Buy, 1.0000)

	level, ok := tr.Level("t1")
	require.True(t, ok)
	assert.InDelta(t, 0.9980, level, 1e-9)
}
