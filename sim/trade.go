package sim

import (
	"fmt"
	"time"

	"github.com/rustyeddy/optionsim/market"
)

// Status is the trade lifecycle state. OPEN transitions to CLOSED exactly
// once; there is no reopen.
type Status string

const (
	Open   Status = "OPEN"
	Closed Status = "CLOSED"
)

// Leg is one option contract within a trade. Quantity is signed:
// positive for long, negative for short. Fill prices are set once, at
// open and at close respectively, and never change afterwards.
type Leg struct {
	Option   market.Option
	Quantity int

	EntryPrice float64
	ExitPrice  float64
}

// Direction returns Long for positive quantities, Short otherwise.
func (l Leg) Direction() Direction {
	if l.Quantity >= 0 {
		return Long
	}
	return Short
}

// EntryValue is the signed premium paid for the leg at entry: negative
// for short legs (a credit).
func (l Leg) EntryValue() float64 {
	return float64(l.Quantity) * float64(l.Option.ContractSize()) * l.EntryPrice
}

// ExitValue mirrors EntryValue with the exit fill.
func (l Leg) ExitValue() float64 {
	return float64(l.Quantity) * float64(l.Option.ContractSize()) * l.ExitPrice
}

// MarketValue is the signed notional value of the leg at the given
// premium.
func (l Leg) MarketValue(premium float64) float64 {
	return float64(l.Quantity) * float64(l.Option.ContractSize()) * premium
}

// Trade is a multi-leg option position. One leg is a single option, two
// legs a spread or straddle, and so on.
type Trade struct {
	ID       string
	Symbol   string
	Strategy string

	Legs []Leg

	OpenTime        time.Time
	EntryCost       float64 // signed: negative for net credit
	EntryCommission float64

	CloseTime      time.Time
	ExitProceeds   float64
	ExitCommission float64
	Reason         string

	Status     Status
	RealizedPL float64 // defined iff Status == Closed

	// Analytics only; do not feed back into accounting.
	PeakUnrealizedPL float64
	lastUnrealized   float64
}

// NewTrade opens a trade: it stamps the entry fills onto the legs and
// computes the signed entry cost. entryPrices must align with legs
// one-to-one.
func NewTrade(id, symbol, strategy string, legs []Leg, at time.Time, entryPrices []float64, entryCommission float64) (*Trade, error) {
	if len(legs) == 0 {
		return nil, &ContractError{Op: "open", TradeID: id, Reason: "trade requires at least one leg"}
	}
	if len(entryPrices) != len(legs) {
		return nil, &ContractError{
			Op:      "open",
			TradeID: id,
			Reason:  fmt.Sprintf("%d entry prices for %d legs", len(entryPrices), len(legs)),
		}
	}

	t := &Trade{
		ID:              id,
		Symbol:          symbol,
		Strategy:        strategy,
		Legs:            make([]Leg, len(legs)),
		OpenTime:        at,
		EntryCommission: entryCommission,
		Status:          Open,
	}

	for i, leg := range legs {
		if leg.Quantity == 0 {
			return nil, &ContractError{Op: "open", TradeID: id, Reason: fmt.Sprintf("leg %d has zero quantity", i)}
		}
		leg.EntryPrice = entryPrices[i]
		t.Legs[i] = leg
		t.EntryCost += t.Legs[i].EntryValue()
	}

	return t, nil
}

// Close stamps the exit fills, computes realized P&L and transitions the
// trade to CLOSED. Closing an already-closed trade or passing a price
// count that does not match the leg count is a contract violation.
//
// Sign convention: realized = exit proceeds - entry cost - commissions,
// so a profitable long round-trip and a profitable short round-trip both
// come out positive.
func (t *Trade) Close(at time.Time, exitPrices []float64, exitCommission float64, reason string) error {
	if t.Status == Closed {
		return &ContractError{Op: "close", TradeID: t.ID, Reason: "already closed"}
	}
	if len(exitPrices) != len(t.Legs) {
		return &ContractError{
			Op:      "close",
			TradeID: t.ID,
			Reason:  fmt.Sprintf("%d exit prices for %d legs", len(exitPrices), len(t.Legs)),
		}
	}

	var proceeds float64
	for i := range t.Legs {
		t.Legs[i].ExitPrice = exitPrices[i]
		proceeds += t.Legs[i].ExitValue()
	}

	t.CloseTime = at
	t.ExitProceeds = proceeds
	t.ExitCommission = exitCommission
	t.Reason = reason
	t.RealizedPL = proceeds - t.EntryCost - t.EntryCommission - exitCommission
	t.Status = Closed
	return nil
}

// GrossContracts returns the unsigned contract count across all legs,
// the quantity commissions are charged on.
func (t *Trade) GrossContracts() int {
	n := 0
	for _, l := range t.Legs {
		q := l.Quantity
		if q < 0 {
			q = -q
		}
		n += q
	}
	return n
}

// markUnrealized records the current unrealized P&L (market value minus
// entry cost and entry commission) and updates the running peak.
func (t *Trade) markUnrealized(marketValue float64) {
	u := marketValue - t.EntryCost - t.EntryCommission
	t.lastUnrealized = u
	if u > t.PeakUnrealizedPL {
		t.PeakUnrealizedPL = u
	}
}

// UnrealizedPL returns the P&L marked at the most recent step.
func (t *Trade) UnrealizedPL() float64 { return t.lastUnrealized }
