package strategies

import (
	"github.com/rustyeddy/optionsim/market"
	"github.com/rustyeddy/optionsim/sim"
)

// Noop never trades. Baseline: the equity curve should be a flat line at
// initial capital.
type Noop struct{}

func (Noop) Decide(snap market.Snapshot, view sim.View) []sim.Action {
	return nil
}
