package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	strategy TEXT NOT NULL,
	legs INTEGER NOT NULL,
	contracts INTEGER NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	entry_cost REAL NOT NULL,
	exit_proceeds REAL NOT NULL,
	entry_commission REAL NOT NULL,
	exit_commission REAL NOT NULL,
	realized_pl REAL NOT NULL,
	peak_pl REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	time DATETIME NOT NULL,
	cash REAL NOT NULL,
	equity REAL NOT NULL,
	open_trades INTEGER NOT NULL,
	stale INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(time);
`
