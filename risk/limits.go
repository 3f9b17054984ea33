// Package risk enforces the trading guardrails: daily loss, drawdown,
// loss streak, open-trade count, and per-symbol exposure. The Manager
// is the single owner of account balance, equity peak, and exposure
// state; every closed trade funnels through RegisterClose exactly once.
package risk

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter marks caller or configuration errors: non-positive
// sizes, distances, or misconfigured limits. These are never retried.
var ErrInvalidParameter = errors.New("invalid parameter")

// Limits is the immutable guardrail configuration. AccountBalance is
// the starting balance; the Manager tracks the live balance as trades
// close.
type Limits struct {
	MaxDailyLoss         float64 // absolute account-currency loss per calendar day
	MaxDrawdown          float64 // absolute distance below the equity peak
	MaxConsecutiveLosses int
	MaxOpenTrades        int
	ExposurePerSymbol    float64 // fraction of balance allowed in one symbol
	AccountBalance       float64
	RiskPerTrade         float64 // fraction of balance risked per trade
}

// Validate rejects limit configurations that would make every sizing or
// guardrail computation meaningless.
func (l Limits) Validate() error {
	if l.AccountBalance <= 0 {
		return fmt.Errorf("%w: account balance must be positive, got %.2f", ErrInvalidParameter, l.AccountBalance)
	}
	if l.RiskPerTrade <= 0 || l.RiskPerTrade > 1 {
		return fmt.Errorf("%w: risk per trade must be in (0, 1], got %.4f", ErrInvalidParameter, l.RiskPerTrade)
	}
	if l.ExposurePerSymbol <= 0 {
		return fmt.Errorf("%w: exposure per symbol must be positive, got %.4f", ErrInvalidParameter, l.ExposurePerSymbol)
	}
	if l.MaxOpenTrades <= 0 {
		return fmt.Errorf("%w: max open trades must be positive, got %d", ErrInvalidParameter, l.MaxOpenTrades)
	}
	return nil
}
