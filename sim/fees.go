package sim

// OrderSide is the economic side of a fill: Buy pays premium, Sell
// collects it. Regulatory fee components key off this side, not off the
// long/short direction of the position.
type OrderSide int8

const (
	Buy  OrderSide = +1
	Sell OrderSide = -1
)

// FeeSchedule holds the commission and regulatory fee rates.
//
// Defaults (see DefaultFees): $0.65/contract commission with a $1.00
// minimum, $0.02/contract clearing both ways, and on sells only a
// 0.00278% notional fee plus $0.00279/contract activity fee.
type FeeSchedule struct {
	PerContract         float64 `json:"per_contract" yaml:"per_contract"`
	Minimum             float64 `json:"minimum" yaml:"minimum"`
	ClearingPerContract float64 `json:"clearing_per_contract" yaml:"clearing_per_contract"`
	SellNotionalRate    float64 `json:"sell_notional_rate" yaml:"sell_notional_rate"`
	SellPerContract     float64 `json:"sell_per_contract" yaml:"sell_per_contract"`
}

// DefaultFees returns a retail-broker-like schedule.
func DefaultFees() FeeSchedule {
	return FeeSchedule{
		PerContract:         0.65,
		Minimum:             1.00,
		ClearingPerContract: 0.02,
		SellNotionalRate:    0.0000278,
		SellPerContract:     0.00279,
	}
}

// Commission computes the total commission and fees for a fill of
// `contracts` gross contracts at `notional` gross premium value.
//
// Pure and deterministic. The caller guarantees contracts > 0. The base
// commission is per-contract, floored at the minimum; clearing applies
// per contract on both sides; the notional and activity components apply
// on sells only.
func (s FeeSchedule) Commission(contracts int, side OrderSide, notional float64) float64 {
	base := s.PerContract * float64(contracts)
	if base < s.Minimum {
		base = s.Minimum
	}

	total := base + s.ClearingPerContract*float64(contracts)
	if side == Sell {
		total += s.SellNotionalRate*notional + s.SellPerContract*float64(contracts)
	}
	return total
}

func (s FeeSchedule) validate() error {
	switch {
	case s.PerContract < 0:
		return &ConfigError{Field: "fees.per_contract", Reason: "must not be negative"}
	case s.Minimum < 0:
		return &ConfigError{Field: "fees.minimum", Reason: "must not be negative"}
	case s.ClearingPerContract < 0:
		return &ConfigError{Field: "fees.clearing_per_contract", Reason: "must not be negative"}
	case s.SellNotionalRate < 0:
		return &ConfigError{Field: "fees.sell_notional_rate", Reason: "must not be negative"}
	case s.SellPerContract < 0:
		return &ConfigError{Field: "fees.sell_per_contract", Reason: "must not be negative"}
	}
	return nil
}
