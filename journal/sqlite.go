package journal

import (
	"database/sql"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Compile-time interface check.
var _ Journal = (*SQLiteJournal)(nil)

// SQLiteJournal stores records in a SQLite database, creating the
// schema on open.
type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(ticket, symbol, side, size, profit, closed_at, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Ticket, t.Symbol, t.Side, t.Size, t.Profit, t.ClosedAt, t.Reason,
	)
	return err
}

func (j *SQLiteJournal) RecordSnapshot(s SnapshotRecord) error {
	// SQLite has no +Inf literal; store the no-loss sentinel as the
	// largest representable REAL so it round-trips as "infinite".
	pf := s.ProfitFactor
	if math.IsInf(pf, 1) {
		pf = math.MaxFloat64
	}

	_, err := j.db.Exec(`
		INSERT INTO metrics_snapshots
		(time, equity, win_rate, profit_factor, sharpe_ratio, max_drawdown, trades)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.Time, s.Equity, s.WinRate, pf, s.SharpeRatio, s.MaxDrawdown, s.Trades,
	)
	return err
}

func (j *SQLiteJournal) StartSession(s SessionRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO sessions (id, started_at, note) VALUES (?, ?, ?)`,
		s.ID, s.StartedAt, s.Note,
	)
	return err
}

func (j *SQLiteJournal) EndSession(s SessionRecord) error {
	_, err := j.db.Exec(`
		UPDATE sessions SET ended_at = ?, open_positions = ? WHERE id = ?`,
		s.EndedAt, s.OpenPositions, s.ID,
	)
	return err
}

// ListRecentTrades returns up to limit trades, most recent close first.
func (j *SQLiteJournal) ListRecentTrades(limit int) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT ticket, symbol, side, size, profit, closed_at, reason
		FROM trades ORDER BY closed_at DESC, ticket DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		var closedAt time.Time
		if err := rows.Scan(&t.Ticket, &t.Symbol, &t.Side, &t.Size, &t.Profit, &closedAt, &t.Reason); err != nil {
			return nil, err
		}
		t.ClosedAt = closedAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
