// Package journal persists closed trades, metrics snapshots, and
// session records. The engine and runner write through the Journal
// interface; SQLite and CSV implementations are provided, plus a Nop
// journal for callers that do not want persistence.
package journal

import (
	"time"

	"github.com/mwatts/fxpilot/market"
	"github.com/mwatts/fxpilot/metrics"
)

// TradeRecord is one closed trade as stored.
type TradeRecord struct {
	Ticket   string
	Symbol   string
	Side     string
	Size     float64
	Profit   float64
	ClosedAt time.Time
	Reason   string
}

// NewTradeRecord builds a TradeRecord from a close result.
func NewTradeRecord(ticket string, side market.Side, res market.TradeResult, reason string) TradeRecord {
	return TradeRecord{
		Ticket:   ticket,
		Symbol:   res.Symbol,
		Side:     string(side),
		Size:     res.Size,
		Profit:   res.Profit,
		ClosedAt: res.Time,
		Reason:   reason,
	}
}

// SnapshotRecord is one point-in-time metrics snapshot as stored.
type SnapshotRecord struct {
	Time         time.Time
	Equity       float64
	WinRate      float64
	ProfitFactor float64
	SharpeRatio  float64
	MaxDrawdown  float64
	Trades       int
}

// NewSnapshotRecord flattens a metrics snapshot for storage. Equity is
// the last point of the curve, zero when no trades have closed.
func NewSnapshotRecord(s metrics.Snapshot, at time.Time) SnapshotRecord {
	equity := 0.0
	if n := len(s.EquityCurve); n > 0 {
		equity = s.EquityCurve[n-1]
	}
	return SnapshotRecord{
		Time:         market.UTC(at),
		Equity:       equity,
		WinRate:      s.WinRate,
		ProfitFactor: s.ProfitFactor,
		SharpeRatio:  s.SharpeRatio,
		MaxDrawdown:  s.MaxDrawdown,
		Trades:       len(s.EquityCurve),
	}
}

// SessionRecord marks one runner session.
type SessionRecord struct {
	ID            string
	StartedAt     time.Time
	EndedAt       time.Time
	OpenPositions int
	Note          string
}

// Journal records trading activity. Implementations must be safe for
// use from a single writer; the engine serializes its own writes.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordSnapshot(SnapshotRecord) error
	StartSession(SessionRecord) error
	EndSession(SessionRecord) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error       { return nil }
func (Nop) RecordSnapshot(SnapshotRecord) error { return nil }
func (Nop) StartSession(SessionRecord) error    { return nil }
func (Nop) EndSession(SessionRecord) error      { return nil }
func (Nop) Close() error                        { return nil }
