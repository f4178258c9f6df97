package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVJournalWritesRows(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)

	closed := time.Date(2024, 3, 15, 15, 45, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("T1", closed)))
	require.NoError(t, j.RecordEquity(EquitySnapshot{
		Time: closed, Cash: 100_297.40, Equity: 100_297.40,
	}))
	require.NoError(t, j.Close())

	tf, err := os.Open(tradesPath)
	require.NoError(t, err)
	defer tf.Close()

	rows, err := csv.NewReader(tf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "trade_id", rows[0][0])
	assert.Equal(t, "T1", rows[1][0])
	assert.Equal(t, "297.400000", rows[1][11])
	assert.Equal(t, "ProfitTarget", rows[1][13])

	ef, err := os.Open(equityPath)
	require.NoError(t, err)
	defer ef.Close()

	rows, err = csv.NewReader(ef).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, closed.Format(time.RFC3339), rows[1][0])
	assert.Equal(t, "false", rows[1][4])
}

func TestOpenSelectsImplementation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	j, err := Open("sqlite", filepath.Join(dir, "j.db"), "", "")
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, j)
	require.NoError(t, j.Close())

	j, err = Open("csv", "", filepath.Join(dir, "t.csv"), filepath.Join(dir, "e.csv"))
	require.NoError(t, err)
	assert.IsType(t, &CSVJournal{}, j)
	require.NoError(t, j.Close())

	j, err = Open("memory", "", "", "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, j)

	_, err = Open("parquet", "", "", "")
	assert.Error(t, err)
}

func TestMemoryJournalCollects(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	require.NoError(t, m.RecordTrade(sampleTrade("T1", time.Now())))
	require.NoError(t, m.RecordEquity(EquitySnapshot{Equity: 1}))
	require.NoError(t, m.Close())

	assert.Len(t, m.Trades, 1)
	assert.Len(t, m.Equity, 1)
}
