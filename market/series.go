package market

// Series is a bounded FIFO buffer of prices. The runner keeps one per
// symbol: warmup seeds it from historical closes, then each polling
// cycle appends the latest tick and drops the oldest entry once the
// buffer is full.
type Series struct {
	max    int
	prices []float64
}

// NewSeries creates a Series holding at most max prices. A max below 1
// is treated as 1.
func NewSeries(max int) *Series {
	if max < 1 {
		max = 1
	}
	return &Series{max: max, prices: make([]float64, 0, max)}
}

// Append adds a price, evicting the oldest entry when full.
func (s *Series) Append(price float64) {
	if len(s.prices) == s.max {
		copy(s.prices, s.prices[1:])
		s.prices = s.prices[:len(s.prices)-1]
	}
	s.prices = append(s.prices, price)
}

// Seed replaces the buffer contents with the trailing window of closes.
func (s *Series) Seed(closes []float64) {
	if len(closes) > s.max {
		closes = closes[len(closes)-s.max:]
	}
	s.prices = s.prices[:0]
	s.prices = append(s.prices, closes...)
}

// Len returns the number of buffered prices.
func (s *Series) Len() int { return len(s.prices) }

// Prices returns a copy of the buffered prices, oldest first.
func (s *Series) Prices() []float64 {
	out := make([]float64, len(s.prices))
	copy(out, s.prices)
	return out
}
