package sim

import "time"

// EntryKind tags a ledger movement as a debit (cash out) or credit
// (cash in).
type EntryKind int8

const (
	Debit EntryKind = iota
	Credit
)

func (k EntryKind) String() string {
	if k == Debit {
		return "DEBIT"
	}
	return "CREDIT"
}

// LedgerEntry is one audited cash movement. Every entry is attributable
// to exactly one trade's entry or exit; there are no untraceable
// adjustments.
type LedgerEntry struct {
	Time    time.Time
	Kind    EntryKind
	Amount  float64 // always >= 0
	TradeID string
}

// Ledger is the single cash account for one simulation run. It is owned
// exclusively by one Engine and mutated only through Debit and Credit.
//
// There is no overdraft protection: cash going negative is a visible
// symptom of a failing strategy, not a ledger bug.
type Ledger struct {
	cash    float64
	entries []LedgerEntry
}

func NewLedger(initial float64) *Ledger {
	return &Ledger{cash: initial}
}

// Debit removes amount from cash, attributed to tradeID.
func (l *Ledger) Debit(t time.Time, amount float64, tradeID string) {
	l.cash -= amount
	l.entries = append(l.entries, LedgerEntry{Time: t, Kind: Debit, Amount: amount, TradeID: tradeID})
}

// Credit adds amount to cash, attributed to tradeID.
func (l *Ledger) Credit(t time.Time, amount float64, tradeID string) {
	l.cash += amount
	l.entries = append(l.entries, LedgerEntry{Time: t, Kind: Credit, Amount: amount, TradeID: tradeID})
}

// Cash returns the current balance.
func (l *Ledger) Cash() float64 { return l.cash }

// Entries returns the full audit trail in insertion order.
func (l *Ledger) Entries() []LedgerEntry { return l.entries }
