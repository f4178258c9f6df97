package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, strategy, legs, contracts, open_time, close_time,
		 entry_cost, exit_proceeds, entry_commission, exit_commission, realized_pl, peak_pl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Symbol, t.Strategy, t.Legs, t.Contracts, t.OpenTime, t.CloseTime,
		t.EntryCost, t.ExitProceeds, t.EntryCommission, t.ExitCommission, t.RealizedPL, t.PeakPL, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, cash, equity, open_trades, stale)
		VALUES (?, ?, ?, ?, ?)`,
		e.Time, e.Cash, e.Equity, e.OpenTrades, e.Stale,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
