// Package market holds the shared data types that flow between the
// risk, stop, engine, and broker packages: ticks, bars, positions, and
// closed-trade results. All timestamps are normalized to UTC on
// construction so downstream day-bucketing never mixes zones.
package market

import "time"

// Side is the direction of a position.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Direction returns +1 for longs and -1 for shorts.
func (s Side) Direction() float64 {
	if s == Sell {
		return -1
	}
	return 1
}

// Valid reports whether the side is one of the two known values.
func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// UTC normalizes a timestamp to UTC. Zero times pass through unchanged.
func UTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// Position is one open trade. The ticket is assigned by the execution
// provider at order acceptance and is unique while the position is open.
type Position struct {
	Ticket    string
	Symbol    string
	Side      Side
	Size      float64
	EntryTime time.Time
}

// NewPosition builds a Position with a UTC-normalized entry time.
func NewPosition(ticket, symbol string, side Side, size float64, entry time.Time) Position {
	return Position{
		Ticket:    ticket,
		Symbol:    symbol,
		Side:      side,
		Size:      size,
		EntryTime: UTC(entry),
	}
}

// TradeResult is the immutable record of one closed position. Profit is
// signed in account currency; positive means a win.
type TradeResult struct {
	Symbol string
	Size   float64
	Profit float64
	Time   time.Time
}

// NewTradeResult builds a TradeResult with a UTC-normalized close time.
func NewTradeResult(symbol string, size, profit float64, closed time.Time) TradeResult {
	return TradeResult{
		Symbol: symbol,
		Size:   size,
		Profit: profit,
		Time:   UTC(closed),
	}
}

// Tick is the latest bid/ask quote for a symbol.
type Tick struct {
	Symbol string
	Bid    float64
	Ask    float64
	Time   time.Time
}

// Mid returns the quote midpoint.
func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

// Spread returns ask minus bid.
func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}

// Bar is one OHLCV candle.
type Bar struct {
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Time   time.Time
}
