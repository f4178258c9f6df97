package strategies

import (
	"math"

	"github.com/rustyeddy/optionsim/market"
	"github.com/rustyeddy/optionsim/sim"
)

// StraddleOnce buys an at-the-money call and put pair on the first
// priced snapshot. A long straddle profits from a large move in either
// direction; it is also the smallest multi-leg structure, which makes it
// a useful end-to-end exercise of per-leg accounting.
type StraddleOnce struct {
	Params

	opened bool
}

func (s *StraddleOnce) Decide(snap market.Snapshot, view sim.View) []sim.Action {
	if acts := exitOnThresholds(view, s.ProfitTarget, s.MaxLoss); len(acts) > 0 {
		return acts
	}

	if s.opened {
		return nil
	}
	spot, ok := snap.SpotFor(s.Symbol)
	if !ok {
		return nil
	}

	qty := s.Quantity
	if qty == 0 {
		qty = 1
	}
	days := s.ExpiryDays
	if days <= 0 {
		days = 30
	}

	strike := math.Round(spot)
	expiry := snap.Time.AddDate(0, 0, days)

	s.opened = true
	return []sim.Action{sim.OpenAction(sim.OpenSpec{
		Symbol:   s.Symbol,
		Strategy: "straddle-once",
		Legs: []sim.LegSpec{
			{
				Option:   market.Option{Symbol: s.Symbol, Type: market.Call, Strike: strike, Expiry: expiry},
				Quantity: qty,
			},
			{
				Option:   market.Option{Symbol: s.Symbol, Type: market.Put, Strike: strike, Expiry: expiry},
				Quantity: qty,
			},
		},
	})}
}
