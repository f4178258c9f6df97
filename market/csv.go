package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVFeed reads snapshots from a CSV with rows of
// time,symbol,spot,vol (RFC3339 timestamps, optional header).
// Consecutive rows sharing a timestamp are merged into one multi-symbol
// snapshot; the vol proxy of the last row in the group wins.
type CSVFeed struct {
	f *os.File
	r *csv.Reader

	pending *row // first row of the next snapshot group
	done    bool
}

type row struct {
	t      time.Time
	symbol string
	spot   float64
	vol    float64
}

func OpenCSVFeed(path string) (*CSVFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	feed := &CSVFeed{f: f, r: r}

	first, err := r.Read()
	if err == io.EOF {
		feed.done = true
		return feed, nil
	}
	if err != nil {
		f.Close()
		return nil, err
	}

	// Tolerate a header row.
	if len(first) > 0 && strings.EqualFold(strings.TrimSpace(first[0]), "time") {
		return feed, nil
	}

	rw, err := parseRow(first)
	if err != nil {
		f.Close()
		return nil, err
	}
	feed.pending = &rw
	return feed, nil
}

func (c *CSVFeed) Next() (Snapshot, bool, error) {
	if c.done && c.pending == nil {
		return Snapshot{}, false, nil
	}

	var snap Snapshot
	if c.pending != nil {
		snap = Snapshot{Time: c.pending.t, Spot: map[string]float64{}, Vol: c.pending.vol}
		snap.Spot[c.pending.symbol] = c.pending.spot
		c.pending = nil
	}

	for {
		rec, err := c.r.Read()
		if err == io.EOF {
			c.done = true
			break
		}
		if err != nil {
			return Snapshot{}, false, err
		}
		if len(rec) == 0 {
			continue
		}

		rw, err := parseRow(rec)
		if err != nil {
			return Snapshot{}, false, err
		}

		if snap.Spot == nil {
			snap = Snapshot{Time: rw.t, Spot: map[string]float64{}, Vol: rw.vol}
			snap.Spot[rw.symbol] = rw.spot
			continue
		}

		if !rw.t.Equal(snap.Time) {
			c.pending = &rw
			break
		}

		snap.Spot[rw.symbol] = rw.spot
		snap.Vol = rw.vol
	}

	if snap.Spot == nil {
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}

func (c *CSVFeed) Close() error {
	if c.f == nil {
		return nil
	}
	return c.f.Close()
}

func parseRow(rec []string) (row, error) {
	if len(rec) < 4 {
		return row{}, fmt.Errorf("bad row (need time,symbol,spot,vol): %v", rec)
	}

	ts := strings.TrimSpace(rec[0])
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, ts)
		if err2 != nil {
			return row{}, fmt.Errorf("bad time %q: %w", rec[0], err)
		}
		t = t2
	}

	spot, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
	if err != nil {
		return row{}, fmt.Errorf("bad spot %q: %w", rec[2], err)
	}
	vol, err := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64)
	if err != nil {
		return row{}, fmt.Errorf("bad vol %q: %w", rec[3], err)
	}

	return row{
		t:      t,
		symbol: strings.TrimSpace(rec[1]),
		spot:   spot,
		vol:    vol,
	}, nil
}
