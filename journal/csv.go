package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// Compile-time interface check.
var _ Journal = (*CSVJournal)(nil)

// CSVJournal appends trades and snapshots to two CSV files. Session
// records have no CSV representation and are dropped.
type CSVJournal struct {
	trades    *csv.Writer
	snapshots *csv.Writer
	tf, sf    *os.File
}

func NewCSV(tradesPath, snapshotsPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	sf, err := os.Create(snapshotsPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	sw := csv.NewWriter(sf)

	if err := tw.Write([]string{"ticket", "symbol", "side", "size", "profit", "closed_at", "reason"}); err != nil {
		return nil, err
	}
	if err := sw.Write([]string{"time", "equity", "win_rate", "profit_factor", "sharpe_ratio", "max_drawdown", "trades"}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	sw.Flush()
	if err := sw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{trades: tw, snapshots: sw, tf: tf, sf: sf}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.Ticket,
		t.Symbol,
		t.Side,
		f(t.Size),
		f(t.Profit),
		t.ClosedAt.Format(time.RFC3339),
		t.Reason,
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordSnapshot(s SnapshotRecord) error {
	err := j.snapshots.Write([]string{
		s.Time.Format(time.RFC3339),
		f(s.Equity),
		f(s.WinRate),
		f(s.ProfitFactor),
		f(s.SharpeRatio),
		f(s.MaxDrawdown),
		strconv.Itoa(s.Trades),
	})
	if err != nil {
		return err
	}
	j.snapshots.Flush()
	return j.snapshots.Error()
}

func (j *CSVJournal) StartSession(SessionRecord) error { return nil }

func (j *CSVJournal) EndSession(SessionRecord) error { return nil }

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	j.snapshots.Flush()
	if err := j.tf.Close(); err != nil {
		j.sf.Close()
		return err
	}
	return j.sf.Close()
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
