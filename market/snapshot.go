package market

import "time"

// Snapshot is one step of the replayed market series: per-symbol spot
// prices plus a volatility proxy for the step.
type Snapshot struct {
	Time time.Time
	Spot map[string]float64
	Vol  float64
}

// SpotFor returns the spot price for symbol, ok=false when the snapshot
// does not carry one.
func (s Snapshot) SpotFor(symbol string) (float64, bool) {
	px, ok := s.Spot[symbol]
	return px, ok
}

// Feed yields market snapshots one at a time, in non-decreasing time
// order. Implementations must be deterministic and return (ok=false,
// err=nil) at EOF.
type Feed interface {
	Next() (s Snapshot, ok bool, err error)
	Close() error
}

// SliceFeed replays an in-memory snapshot series. The caller is expected
// to hand it an already time-ordered slice.
type SliceFeed struct {
	snaps []Snapshot
	idx   int
}

func NewSliceFeed(snaps []Snapshot) *SliceFeed {
	return &SliceFeed{snaps: snaps}
}

func (f *SliceFeed) Next() (Snapshot, bool, error) {
	if f.idx >= len(f.snaps) {
		return Snapshot{}, false, nil
	}
	s := f.snaps[f.idx]
	f.idx++
	return s, true, nil
}

func (f *SliceFeed) Close() error { return nil }
