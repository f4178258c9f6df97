package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetTrade returns a single closed-trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	var rec TradeRecord

	row := j.db.QueryRow(`
		SELECT trade_id, symbol, strategy, legs, contracts, open_time, close_time,
		       entry_cost, exit_proceeds, entry_commission, exit_commission, realized_pl, peak_pl, reason
		FROM trades
		WHERE trade_id = ?`, tradeID)

	err := row.Scan(
		&rec.TradeID,
		&rec.Symbol,
		&rec.Strategy,
		&rec.Legs,
		&rec.Contracts,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.EntryCost,
		&rec.ExitProceeds,
		&rec.EntryCommission,
		&rec.ExitCommission,
		&rec.RealizedPL,
		&rec.PeakPL,
		&rec.Reason,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, strategy, legs, contracts, open_time, close_time,
		       entry_cost, exit_proceeds, entry_commission, exit_commission, realized_pl, peak_pl, reason
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.TradeID,
			&rec.Symbol,
			&rec.Strategy,
			&rec.Legs,
			&rec.Contracts,
			&rec.OpenTime,
			&rec.CloseTime,
			&rec.EntryCost,
			&rec.ExitProceeds,
			&rec.EntryCommission,
			&rec.ExitCommission,
			&rec.RealizedPL,
			&rec.PeakPL,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityBetween returns equity points with time within [start, end).
func (j *SQLite) ListEquityBetween(start, end time.Time) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT time, cash, equity, open_trades, stale
		FROM equity
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var rec EquitySnapshot
		if err := rows.Scan(&rec.Time, &rec.Cash, &rec.Equity, &rec.OpenTrades, &rec.Stale); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
