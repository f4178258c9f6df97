package sim

// Direction is the position direction of a leg: Long or Short.
type Direction int8

const (
	Long  Direction = +1
	Short Direction = -1
)

// FillAction distinguishes opening from closing fills.
type FillAction int8

const (
	Entry FillAction = iota
	Exit
)

// FillModel turns a reference premium into a realistic fill price. The
// returned slippage is the absolute amount the fill moved against the
// trader; implementations must never improve on the reference price.
//
// The engine takes a FillModel at construction so tests can substitute a
// deterministic stand-in without touching simulator logic.
type FillModel interface {
	Fill(ref float64, dir Direction, action FillAction, vol float64) (price, slippage float64)
}

// VolSlippage charges slippage proportional to the reference price, with
// a component that scales with the volatility proxy:
//
//	slippage = ref * (Base + VolCoeff*vol)
//
// Buys (long entries, short exits) fill above the reference, sells below,
// floored at zero.
type VolSlippage struct {
	Base     float64 `json:"base" yaml:"base"`
	VolCoeff float64 `json:"vol_coeff" yaml:"vol_coeff"`
}

// DefaultSlippage returns 5bps base plus 10bps per unit of vol proxy.
func DefaultSlippage() VolSlippage {
	return VolSlippage{Base: 0.0005, VolCoeff: 0.001}
}

func (m VolSlippage) Fill(ref float64, dir Direction, action FillAction, vol float64) (float64, float64) {
	if vol < 0 {
		vol = 0
	}
	slip := ref * (m.Base + m.VolCoeff*vol)
	if slip < 0 {
		slip = 0
	}

	if isBuy(dir, action) {
		return ref + slip, slip
	}

	px := ref - slip
	if px < 0 {
		// A sell can never fill below zero; the trader just gets nothing.
		return 0, ref
	}
	return px, slip
}

func (m VolSlippage) validate() error {
	if m.Base < 0 {
		return &ConfigError{Field: "slippage.base", Reason: "must not be negative"}
	}
	if m.VolCoeff < 0 {
		return &ConfigError{Field: "slippage.vol_coeff", Reason: "must not be negative"}
	}
	return nil
}

// Frictionless fills exactly at the reference price. Useful in tests and
// for isolating strategy P&L from execution costs.
type Frictionless struct{}

func (Frictionless) Fill(ref float64, dir Direction, action FillAction, vol float64) (float64, float64) {
	return ref, 0
}

// isBuy maps direction x action onto the economic side of the fill:
// opening a long or closing a short pays premium.
func isBuy(dir Direction, action FillAction) bool {
	return (dir == Long) == (action == Entry)
}

// sideOf returns the fee side for a net signed premium flow: paying
// premium is a buy, collecting it is a sell.
func sideOf(netPremium float64) OrderSide {
	if netPremium < 0 {
		return Sell
	}
	return Buy
}
