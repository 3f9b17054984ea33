package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mwatts/fxpilot/broker"
	"github.com/mwatts/fxpilot/internal/id"
	"github.com/mwatts/fxpilot/market"
)

// StandardLot is the contract size used to turn a price delta into
// account-currency profit for one lot.
const StandardLot = 100_000

// Compile-time interface check.
var _ broker.Execution = (*Exchange)(nil)

type openTrade struct {
	symbol string
	side   market.Side
	size   float64
	entry  float64
}

// Exchange is an in-memory execution venue. Quotes must be posted with
// SetTick before orders can fill: longs fill at ask and close at bid,
// shorts the reverse. Realized profit is the entry-to-exit price delta
// times size times contract size, signed by side.
type Exchange struct {
	mu       sync.Mutex
	ticks    map[string]market.Tick
	trades   map[string]openTrade
	contract float64
	now      func() time.Time
}

// NewExchange creates an Exchange using the standard lot contract size.
func NewExchange() *Exchange {
	return &Exchange{
		ticks:    make(map[string]market.Tick),
		trades:   make(map[string]openTrade),
		contract: StandardLot,
		now:      time.Now,
	}
}

// SetTick posts the latest quote for a symbol. The runner and the
// backtester feed the exchange through this before each cycle.
func (e *Exchange) SetTick(t market.Tick) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ticks[t.Symbol] = t
}

// PlaceOrder fills a market order against the posted quote and returns
// a new ticket. Placing without a posted quote fails closed.
func (e *Exchange) PlaceOrder(_ context.Context, symbol string, size float64, side market.Side) (string, error) {
	if size <= 0 {
		return "", &broker.ExecutionError{Op: "place", Symbol: symbol,
			Err: fmt.Errorf("size must be positive, got %.2f", size)}
	}
	if !side.Valid() {
		return "", &broker.ExecutionError{Op: "place", Symbol: symbol,
			Err: fmt.Errorf("unknown side %q", side)}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tick, ok := e.ticks[symbol]
	if !ok {
		return "", &broker.ExecutionError{Op: "place", Symbol: symbol, Err: broker.ErrDataUnavailable}
	}

	fill := tick.Ask
	if side == market.Sell {
		fill = tick.Bid
	}

	ticket := id.New()
	e.trades[ticket] = openTrade{
		symbol: symbol,
		side:   side,
		size:   size,
		entry:  fill,
	}
	return ticket, nil
}

// CloseOrder closes the ticket at the current quote and returns the
// resulting trade.
func (e *Exchange) CloseOrder(_ context.Context, ticket string) (market.TradeResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tr, ok := e.trades[ticket]
	if !ok {
		return market.TradeResult{}, &broker.ExecutionError{Op: "close", Err: broker.ErrTicketNotFound}
	}

	tick, ok := e.ticks[tr.symbol]
	if !ok {
		return market.TradeResult{}, &broker.ExecutionError{Op: "close", Symbol: tr.symbol, Err: broker.ErrDataUnavailable}
	}

	exit := tick.Bid
	if tr.side == market.Sell {
		exit = tick.Ask
	}

	profit := (exit - tr.entry) * tr.side.Direction() * tr.size * e.contract

	closed := tick.Time
	if closed.IsZero() {
		closed = e.now()
	}

	delete(e.trades, ticket)
	return market.NewTradeResult(tr.symbol, tr.size, profit, closed), nil
}

// OpenCount returns the number of open tickets.
func (e *Exchange) OpenCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.trades)
}

// EntryPrice returns the fill price for an open ticket.
func (e *Exchange) EntryPrice(ticket string) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tr, ok := e.trades[ticket]
	if !ok {
		return 0, false
	}
	return tr.entry, true
}
