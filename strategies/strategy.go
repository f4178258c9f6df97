package strategies

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/optionsim/sim"
)

// Params carries the knobs shared by the built-in deciders.
type Params struct {
	Symbol     string
	Quantity   int
	ExpiryDays int

	// Exit thresholds on unrealized P&L; zero disables.
	ProfitTarget float64
	MaxLoss      float64
}

// ByName builds a built-in decider. The CLI and config layer resolve
// strategy names through here.
func ByName(name string, p Params) (sim.Decider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return Noop{}, nil

	case "long-call-once":
		return &LongCallOnce{Params: p}, nil

	case "straddle-once":
		return &StraddleOnce{Params: p}, nil

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, long-call-once, straddle-once)", name)
	}
}
