package sim

import (
	"time"

	"github.com/rustyeddy/optionsim/market"
)

// ActionKind tags the variants a decision can take.
type ActionKind int8

const (
	ActNone ActionKind = iota
	ActOpen
	ActClose
)

// LegSpec describes one leg of a trade to open.
type LegSpec struct {
	Option   market.Option
	Quantity int // signed: positive long, negative short
}

// OpenSpec asks the engine to open a new trade.
type OpenSpec struct {
	Symbol   string
	Strategy string
	Legs     []LegSpec
}

// CloseSpec asks the engine to close an open trade.
type CloseSpec struct {
	TradeID string
	Reason  string
}

// Action is the tagged variant a Decider returns: open a trade, close a
// trade, or nothing.
type Action struct {
	Kind  ActionKind
	Open  *OpenSpec
	Close *CloseSpec
}

func OpenAction(spec OpenSpec) Action {
	return Action{Kind: ActOpen, Open: &spec}
}

func CloseAction(tradeID, reason string) Action {
	return Action{Kind: ActClose, Close: &CloseSpec{TradeID: tradeID, Reason: reason}}
}

// TradeView is a read-only copy of an open trade handed to the decision
// layer. UnrealizedPL and PeakPL reflect the previous step's
// mark-to-market.
type TradeView struct {
	ID       string
	Symbol   string
	Strategy string
	OpenTime time.Time

	Legs []Leg

	EntryCost       float64
	EntryCommission float64
	UnrealizedPL    float64
	PeakPL          float64
}

// View is the read-only account state a Decider sees: cash as of the
// start of the step, before any of this step's actions execute. Capital
// released by a close in the current step is deliberately not visible to
// entries decided in the same step.
type View struct {
	Cash float64
	Open []TradeView
}

// Decider is the decision collaborator. The engine calls it once per
// snapshot; the returned actions are executed closes-first. The core is
// agnostic to how the decision was produced.
type Decider interface {
	Decide(snap market.Snapshot, view View) []Action
}

// DeciderFunc adapts a plain function to the Decider interface.
type DeciderFunc func(snap market.Snapshot, view View) []Action

func (f DeciderFunc) Decide(snap market.Snapshot, view View) []Action {
	return f(snap, view)
}
