// Package indicators provides the moving-average math used by the
// built-in strategies.
package indicators

import "fmt"

// SMA returns the simple moving average series for the given period,
// one value per window, oldest first. len(values) must be at least
// period.
func SMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(values) < period {
		return nil, fmt.Errorf("not enough values: need %d, got %d", period, len(values))
	}

	out := make([]float64, 0, len(values)-period+1)
	sum := 0.0
	for _, v := range values[:period] {
		sum += v
	}
	out = append(out, sum/float64(period))
	for i := period; i < len(values); i++ {
		sum += values[i] - values[i-period]
		out = append(out, sum/float64(period))
	}
	return out, nil
}
