// Package broker defines the capability interfaces the engine consumes
// for market data and order execution, plus the shared error types.
// Implementations live in broker/sim (deterministic, in-memory) and
// broker/oanda (live REST).
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwatts/fxpilot/market"
)

// ErrDataUnavailable is returned when a quote or history request cannot
// be served for the symbol.
var ErrDataUnavailable = errors.New("market data unavailable")

// ErrTicketNotFound is returned when closing a ticket the execution
// provider does not know.
var ErrTicketNotFound = errors.New("ticket not found")

// ExecutionError wraps an order placement or close failure. The engine
// propagates it unchanged and leaves all of its own state untouched.
type ExecutionError struct {
	Op     string // "place" or "close"
	Symbol string
	Err    error
}

func (e *ExecutionError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("execution %s %s: %v", e.Op, e.Symbol, e.Err)
	}
	return fmt.Sprintf("execution %s: %v", e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// MarketData supplies quotes and history for one or more symbols.
type MarketData interface {
	// LatestTick returns the most recent quote for a symbol, failing
	// with ErrDataUnavailable when no quote can be produced.
	LatestTick(ctx context.Context, symbol string) (market.Tick, error)

	// HistoricalBars returns up to count bars at the given interval,
	// oldest first. Used for warmup only.
	HistoricalBars(ctx context.Context, symbol string, interval time.Duration, count int) ([]market.Bar, error)
}

// Execution routes orders to a venue. PlaceOrder returns an opaque
// ticket unique for the lifetime of the position.
type Execution interface {
	PlaceOrder(ctx context.Context, symbol string, size float64, side market.Side) (string, error)
	CloseOrder(ctx context.Context, ticket string) (market.TradeResult, error)
}
