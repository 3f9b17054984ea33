package engine

import (
	"sync"

	"github.com/mwatts/fxpilot/market"
)

// positionBook is the set of currently open positions keyed by ticket.
// The book owns position lifecycle; the stop tracker only ever holds
// derived per-ticket state. Access is single-writer via the mutex.
type positionBook struct {
	mu        sync.Mutex
	positions map[string]market.Position
}

func newPositionBook() *positionBook {
	return &positionBook{positions: make(map[string]market.Position)}
}

func (b *positionBook) add(p market.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.positions[p.Ticket] = p
}

func (b *positionBook) get(ticket string) (market.Position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[ticket]
	return p, ok
}

func (b *positionBook) remove(ticket string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.positions, ticket)
}

func (b *positionBook) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.positions)
}

// bySymbol returns a snapshot of open positions for one symbol, so
// callers can iterate without holding the lock while they mutate the
// book.
func (b *positionBook) bySymbol(symbol string) []market.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []market.Position
	for _, p := range b.positions {
		if p.Symbol == symbol {
			out = append(out, p)
		}
	}
	return out
}

func (b *positionBook) all() []market.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]market.Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, p)
	}
	return out
}
