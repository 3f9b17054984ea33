package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwatts/fxpilot/market"
)

func TestNewSMACrossValidation(t *testing.T) {
	t.Parallel()

	_, err := NewSMACross(0, 30)
	assert.Error(t, err)

	_, err = NewSMACross(30, 30)
	assert.Error(t, err)

	_, err = NewSMACross(30, 10)
	assert.Error(t, err)

	s, err := NewSMACross(10, 30)
	require.NoError(t, err)
	assert.Equal(t, "sma-cross", s.Name())
}

func TestSMACrossSignal(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		prices []float64
		want   market.Side
		none   bool
	}{
		{"cross up", []float64{10, 9, 8, 12}, market.Buy, false},
		{"cross down", []float64{8, 9, 10, 6}, market.Sell, false},
		{"no cross on steady trend", []float64{1, 2, 3, 4}, "", true},
		{"too few prices", []float64{10, 9, 8}, "", true},
		{"empty", nil, "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := NewSMACross(2, 3)
			require.NoError(t, err)

			sig := s.Signal(tt.prices, "EURUSD", ts)
			if tt.none {
				assert.Nil(t, sig)
				return
			}
			require.NotNil(t, sig)
			assert.Equal(t, tt.want, sig.Side)
			assert.Equal(t, "EURUSD", sig.Symbol)
			assert.Equal(t, ts, sig.Time)
		})
	}
}

func TestByName(t *testing.T) {
	t.Parallel()

	s, err := ByName("sma-cross", 10, 30)
	require.NoError(t, err)
	assert.Equal(t, "sma-cross", s.Name())

	s, err = ByName("noop", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "noop", s.Name())
	assert.Nil(t, s.Signal([]float64{1, 2, 3}, "EURUSD", time.Now()))

	_, err = ByName("momentum", 10, 30)
	assert.Error(t, err)
}
