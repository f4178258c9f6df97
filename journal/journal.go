package journal

import (
	"fmt"
	"time"
)

// TradeRecord is one row of the closed-trade ledger: everything an audit
// needs to retrace the trade's cash movements.
type TradeRecord struct {
	TradeID   string
	Symbol    string
	Strategy  string
	Legs      int
	Contracts int

	OpenTime  time.Time
	CloseTime time.Time

	EntryCost       float64 // signed: negative = net credit
	ExitProceeds    float64
	EntryCommission float64
	ExitCommission  float64

	RealizedPL float64
	PeakPL     float64
	Reason     string
}

// EquitySnapshot is one point of the equity curve. Stale marks points
// where at least one open leg was valued at its last known premium
// because the pricing oracle could not price it at this step.
type EquitySnapshot struct {
	Time       time.Time
	Cash       float64
	Equity     float64
	OpenTrades int
	Stale      bool
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Open builds a Journal by type name: "sqlite" (dbPath), "csv"
// (tradesPath + equityPath) or "memory".
func Open(typ, dbPath, tradesPath, equityPath string) (Journal, error) {
	switch typ {
	case "sqlite":
		return NewSQLite(dbPath)
	case "csv":
		return NewCSV(tradesPath, equityPath)
	case "memory", "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown journal type %q", typ)
	}
}

// Memory collects records in slices. It is the default journal for
// library use and the workhorse of the test suite.
type Memory struct {
	Trades []TradeRecord
	Equity []EquitySnapshot
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) RecordTrade(rec TradeRecord) error {
	m.Trades = append(m.Trades, rec)
	return nil
}

func (m *Memory) RecordEquity(rec EquitySnapshot) error {
	m.Equity = append(m.Equity, rec)
	return nil
}

func (m *Memory) Close() error { return nil }
