package market

import (
	"fmt"
	"time"
)

// OptionType is the contract right: call or put.
type OptionType string

const (
	Call OptionType = "CALL"
	Put  OptionType = "PUT"
)

// DefaultMultiplier is the standard equity-option contract size.
const DefaultMultiplier = 100

// Option identifies a single listed option contract.
type Option struct {
	Symbol     string
	Type       OptionType
	Strike     float64
	Expiry     time.Time
	Multiplier int
}

// Key returns a stable identifier for the contract, suitable as a map key
// for last-known-price caching.
func (o Option) Key() string {
	return fmt.Sprintf("%s|%s|%.4f|%s", o.Symbol, o.Type, o.Strike, o.Expiry.UTC().Format("2006-01-02"))
}

// ContractSize returns the multiplier, defaulting to 100 when unset.
func (o Option) ContractSize() int {
	if o.Multiplier <= 0 {
		return DefaultMultiplier
	}
	return o.Multiplier
}

// Intrinsic returns the exercise value of the contract at the given spot.
func (o Option) Intrinsic(spot float64) float64 {
	switch o.Type {
	case Call:
		if spot > o.Strike {
			return spot - o.Strike
		}
	case Put:
		if spot < o.Strike {
			return o.Strike - spot
		}
	}
	return 0
}

// YearsTo returns the time to expiry in years at t, never negative.
func (o Option) YearsTo(t time.Time) float64 {
	y := o.Expiry.Sub(t).Hours() / (24 * 365)
	if y < 0 {
		return 0
	}
	return y
}
