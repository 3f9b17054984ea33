package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mwatts/fxpilot/market"
)

// minLot is the smallest position size PositionSize will return.
var minLot = decimal.NewFromFloat(0.01)

// Manager tracks account balance, equity peak, daily realized P&L,
// loss streak, and per-symbol open exposure, and answers whether a new
// trade may be opened. All methods are safe for concurrent use; the
// mutex gives one writer at a time over the aggregate risk state.
type Manager struct {
	mu sync.Mutex

	limits  Limits
	balance float64

	dailyPL    map[string]float64 // calendar day (UTC, 2006-01-02) -> realized P&L
	lossStreak int
	equityPeak float64
	exposure   map[string]float64 // symbol -> open size
	history    []market.TradeResult
}

// New creates a Manager seeded with the starting balance from limits.
func New(limits Limits) (*Manager, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		limits:     limits,
		balance:    limits.AccountBalance,
		dailyPL:    make(map[string]float64),
		equityPeak: limits.AccountBalance,
		exposure:   make(map[string]float64),
	}, nil
}

func dayKey(t time.Time) string {
	return market.UTC(t).Format("2006-01-02")
}

// CanOpen evaluates the guardrails for a proposed trade. It is a pure
// query: every check is re-derived from live state and nothing is
// mutated. Checks run in a fixed order and each violation is recorded,
// so a rejection names everything that is currently wrong.
func (m *Manager) CanOpen(symbol string, size float64, now time.Time) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := Decision{Allowed: true}

	if m.dailyLimitReachedLocked(now) {
		d.add(CodeDailyLoss, fmt.Sprintf("daily loss %.2f breaches limit %.2f",
			m.dailyPL[dayKey(now)], -abs(m.limits.MaxDailyLoss)))
	}

	if len(m.exposure) >= m.limits.MaxOpenTrades {
		d.add(CodeOpenTrades, fmt.Sprintf("open trades %d >= max %d",
			len(m.exposure), m.limits.MaxOpenTrades))
	}

	maxExposure := m.balance * m.limits.ExposurePerSymbol
	if next := m.exposure[symbol] + size; next > maxExposure {
		d.add(CodeExposure, fmt.Sprintf("%s exposure %.2f would exceed max %.2f",
			symbol, next, maxExposure))
	}

	if m.lossStreak >= m.limits.MaxConsecutiveLosses {
		d.add(CodeLossStreak, fmt.Sprintf("loss streak %d >= max %d",
			m.lossStreak, m.limits.MaxConsecutiveLosses))
	}

	if dd := m.drawdownLocked(); dd > m.limits.MaxDrawdown {
		d.add(CodeDrawdownLimit, fmt.Sprintf("drawdown %.2f exceeds max %.2f",
			dd, m.limits.MaxDrawdown))
	}

	return d
}

// PositionSize computes the lot size for a trade risking the configured
// fraction of the current balance over the given stop distance.
// stopDistance is in pips (or whatever unit unitValue prices), and
// unitValue is the account-currency value of one unit of distance per
// lot. The result is rounded to two decimals and floored at 0.01.
func (m *Manager) PositionSize(stopDistance, unitValue float64) (float64, error) {
	if stopDistance <= 0 {
		return 0, fmt.Errorf("%w: stop distance must be positive, got %.4f", ErrInvalidParameter, stopDistance)
	}
	if unitValue <= 0 {
		return 0, fmt.Errorf("%w: unit value must be positive, got %.4f", ErrInvalidParameter, unitValue)
	}

	m.mu.Lock()
	balance := m.balance
	m.mu.Unlock()

	riskAmount := decimal.NewFromFloat(balance).Mul(decimal.NewFromFloat(m.limits.RiskPerTrade))
	perLot := decimal.NewFromFloat(stopDistance).Mul(decimal.NewFromFloat(unitValue))

	size := riskAmount.Div(perLot).Round(2)
	if size.LessThan(minLot) {
		size = minLot
	}
	f, _ := size.Float64()
	return f, nil
}

// RegisterOpen adds size to the symbol's open exposure.
func (m *Manager) RegisterOpen(symbol string, size float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exposure[symbol] += size
}

// RegisterClose folds a closed trade into the risk state. It must be
// called exactly once per closed trade: it appends history, updates the
// day bucket, advances or resets the loss streak, releases exposure,
// applies the profit to the balance, and raises the equity peak.
func (m *Manager) RegisterClose(trade market.TradeResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, trade)
	m.dailyPL[dayKey(trade.Time)] += trade.Profit

	if trade.Profit < 0 {
		m.lossStreak++
	} else {
		m.lossStreak = 0
	}

	if open, ok := m.exposure[trade.Symbol]; ok {
		remaining := open - trade.Size
		if remaining <= 0 {
			delete(m.exposure, trade.Symbol)
		} else {
			m.exposure[trade.Symbol] = remaining
		}
	}

	m.balance += trade.Profit
	if m.balance > m.equityPeak {
		m.equityPeak = m.balance
	}
}

// DailyLimitReached reports whether realized losses for now's calendar
// day have hit the configured daily loss floor.
func (m *Manager) DailyLimitReached(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dailyLimitReachedLocked(now)
}

func (m *Manager) dailyLimitReachedLocked(now time.Time) bool {
	return m.dailyPL[dayKey(now)] <= -abs(m.limits.MaxDailyLoss)
}

// Drawdown returns the distance of the current balance below the equity
// peak, floored at zero.
func (m *Manager) Drawdown() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drawdownLocked()
}

func (m *Manager) drawdownLocked() float64 {
	dd := m.equityPeak - m.balance
	if dd < 0 {
		return 0
	}
	return dd
}

// Balance returns the current account balance.
func (m *Manager) Balance() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance
}

// EquityPeak returns the highest balance seen so far.
func (m *Manager) EquityPeak() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.equityPeak
}

// OpenExposure returns the open size for a symbol, zero when flat.
func (m *Manager) OpenExposure(symbol string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exposure[symbol]
}

// LossStreak returns the current consecutive-loss count.
func (m *Manager) LossStreak() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lossStreak
}

// History returns a copy of all closed trades, in close order.
func (m *Manager) History() []market.TradeResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]market.TradeResult, len(m.history))
	copy(out, m.history)
	return out
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
