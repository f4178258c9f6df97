package strategies

import (
	"math"

	"github.com/rustyeddy/optionsim/market"
	"github.com/rustyeddy/optionsim/sim"
)

// LongCallOnce buys an at-the-money call on the first snapshot that
// carries a spot for its symbol, then holds until the profit target or
// max loss is hit (when configured).
type LongCallOnce struct {
	Params

	opened bool
}

func (s *LongCallOnce) Decide(snap market.Snapshot, view sim.View) []sim.Action {
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

	s.opened = true
	return []sim.Action{sim.OpenAction(sim.OpenSpec{
		Symbol:   s.Symbol,
		Strategy: "long-call-once",
		Legs: []sim.LegSpec{{
			Option: market.Option{
				Symbol: s.Symbol,
				Type:   market.Call,
				Strike: math.Round(spot),
				Expiry: snap.Time.AddDate(0, 0, days),
			},
			Quantity: qty,
		}},
	})}
}

// exitOnThresholds closes any open trade whose unrealized P&L crossed
// the configured target or loss limit.
func exitOnThresholds(view sim.View, target, maxLoss float64) []sim.Action {
	var acts []sim.Action
	for _, t := range view.Open {
		switch {
		case target > 0 && t.UnrealizedPL >= target:
			acts = append(acts, sim.CloseAction(t.ID, "ProfitTarget"))
		case maxLoss > 0 && t.UnrealizedPL <= -maxLoss:
			acts = append(acts, sim.CloseAction(t.ID, "MaxLoss"))
		}
	}
	return acts
}
