// Package sim provides in-memory broker collaborators: a deterministic
// pseudo-random data provider for offline development and an exchange
// that fills orders against posted quotes, computing realized P&L from
// the entry/exit price delta.
package sim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/mwatts/fxpilot/broker"
	"github.com/mwatts/fxpilot/market"
)

const defaultSpread = 0.0002

// Compile-time interface check.
var _ broker.MarketData = (*DataProvider)(nil)

// DataProvider produces a seeded random walk around 1.0, so runs are
// reproducible for a given seed.
type DataProvider struct {
	mu   sync.Mutex
	rnd  *rand.Rand
	last map[string]float64
	now  func() time.Time
}

// NewDataProvider creates a DataProvider with the given seed.
func NewDataProvider(seed int64) *DataProvider {
	return &DataProvider{
		rnd:  rand.New(rand.NewSource(seed)),
		last: make(map[string]float64),
		now:  time.Now,
	}
}

func (p *DataProvider) step(symbol string) float64 {
	price, ok := p.last[symbol]
	if !ok {
		price = 1.0
	}
	price += (p.rnd.Float64() - 0.5) * 0.01
	if price < 0.5 {
		price = 0.5
	}
	p.last[symbol] = price
	return price
}

// LatestTick returns the next step of the symbol's random walk.
func (p *DataProvider) LatestTick(_ context.Context, symbol string) (market.Tick, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	price := p.step(symbol)
	return market.Tick{
		Symbol: symbol,
		Bid:    price,
		Ask:    price + defaultSpread,
		Time:   market.UTC(p.now()),
	}, nil
}

// HistoricalBars generates count bars ending now, one random-walk step
// per bar, oldest first.
func (p *DataProvider) HistoricalBars(_ context.Context, symbol string, interval time.Duration, count int) ([]market.Bar, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := market.UTC(p.now())
	bars := make([]market.Bar, 0, count)
	for i := 0; i < count; i++ {
		base := p.step(symbol)
		high := base + p.rnd.Float64()*0.002
		low := base - p.rnd.Float64()*0.002
		bars = append(bars, market.Bar{
			Symbol: symbol,
			Open:   base,
			High:   high,
			Low:    low,
			Close:  base,
			Volume: 1000 + p.rnd.Float64()*100,
			Time:   now.Add(-interval * time.Duration(count-i)),
		})
	}
	return bars, nil
}
