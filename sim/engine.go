package sim

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/optionsim/internal/id"
	"github.com/rustyeddy/optionsim/journal"
	"github.com/rustyeddy/optionsim/market"
)

// Engine replays a time-ordered snapshot series, executes the decision
// layer's actions through the fee, fill and ledger components, and marks
// open trades to market into an equity curve.
//
// The ledger and the trade set are owned exclusively by one Engine; the
// engine itself is single-threaded and strictly sequential. Identical
// inputs produce an identical equity curve.
type Engine struct {
	cfg  Config
	fill FillModel
	jrnl journal.Journal
	log  *zap.Logger

	ledger *Ledger
	trades map[string]*Trade
	order  []string // insertion order, for deterministic iteration
	last   *market.LastPriceStore

	// staleClose flags a pricing fallback hit while closing a trade this
	// step. The trade is no longer open when markToMarket runs, so the
	// flag is the only way the gap reaches the equity point.
	staleClose bool

	curve  []journal.EquitySnapshot
	closed []journal.TradeRecord
}

func NewEngine(cfg Config, j journal.Journal, log *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if j == nil {
		j = journal.NewMemory()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Engine{
		cfg:    cfg,
		fill:   cfg.Slippage,
		jrnl:   j,
		log:    log,
		ledger: NewLedger(cfg.InitialCapital),
		trades: make(map[string]*Trade),
		last:   market.NewLastPriceStore(),
	}, nil
}

// SetFillModel substitutes the execution price model. Deterministic
// stand-ins (e.g. Frictionless) plug in here for testing.
func (e *Engine) SetFillModel(m FillModel) {
	if m != nil {
		e.fill = m
	}
}

// Cash returns the current ledger balance.
func (e *Engine) Cash() float64 { return e.ledger.Cash() }

// LedgerEntries returns the audit trail of all cash movements so far.
func (e *Engine) LedgerEntries() []LedgerEntry { return e.ledger.Entries() }

// Curve returns the equity points appended so far.
func (e *Engine) Curve() []journal.EquitySnapshot { return e.curve }

// Result summarizes a completed run.
type Result struct {
	Curve  []journal.EquitySnapshot
	Closed []journal.TradeRecord

	Cash   float64
	Equity float64
	Trades int
	Wins   int
	Losses int
}

// Run drives the engine over the feed. Per step: decide against the
// start-of-step view, execute closes then opens, mark to market, append
// one equity point. ContractError and out-of-order input abort the run;
// pricing gaps are recovered with a stale marker.
func (e *Engine) Run(ctx context.Context, feed market.Feed, dec Decider, pricer market.Pricer) (Result, error) {
	if feed == nil {
		return Result{}, fmt.Errorf("run: feed is required")
	}
	if pricer == nil {
		return Result{}, fmt.Errorf("run: pricer is required")
	}
	defer feed.Close()

	var prev market.Snapshot
	steps := 0

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		snap, ok, err := feed.Next()
		if err != nil {
			return Result{}, err
		}
		if !ok {
			break
		}

		if steps > 0 && snap.Time.Before(prev.Time) {
			return Result{}, fmt.Errorf("run: snapshot at %s out of order (previous %s)",
				snap.Time.Format("2006-01-02T15:04:05"), prev.Time.Format("2006-01-02T15:04:05"))
		}

		if err := e.step(snap, dec, pricer); err != nil {
			return Result{}, err
		}

		prev = snap
		steps++
	}

	return e.result(), nil
}

func (e *Engine) step(snap market.Snapshot, dec Decider, pricer market.Pricer) error {
	e.staleClose = false

	var actions []Action
	if dec != nil {
		actions = dec.Decide(snap, e.view())
	}

	// Exits first, then entries. Capital released by an exit is not
	// spendable by an entry decided in the same step: the view above was
	// captured before any close executed.
	for _, a := range actions {
		if a.Kind != ActClose {
			continue
		}
		if a.Close == nil {
			return &ContractError{Op: "close", Reason: "close action without spec"}
		}
		if err := e.closeTrade(snap, *a.Close, pricer); err != nil {
			return err
		}
	}
	for _, a := range actions {
		if a.Kind != ActOpen {
			continue
		}
		if a.Open == nil {
			return &ContractError{Op: "open", Reason: "open action without spec"}
		}
		if err := e.openTrade(snap, *a.Open, pricer); err != nil {
			return err
		}
	}

	return e.markToMarket(snap, pricer)
}

func (e *Engine) view() View {
	v := View{Cash: e.ledger.Cash()}
	for _, tid := range e.order {
		t := e.trades[tid]
		if t.Status != Open {
			continue
		}
		legs := make([]Leg, len(t.Legs))
		copy(legs, t.Legs)
		v.Open = append(v.Open, TradeView{
			ID:              t.ID,
			Symbol:          t.Symbol,
			Strategy:        t.Strategy,
			OpenTime:        t.OpenTime,
			Legs:            legs,
			EntryCost:       t.EntryCost,
			EntryCommission: t.EntryCommission,
			UnrealizedPL:    t.lastUnrealized,
			PeakPL:          t.PeakUnrealizedPL,
		})
	}
	return v
}

func (e *Engine) openTrade(snap market.Snapshot, spec OpenSpec, pricer market.Pricer) error {
	if len(spec.Legs) == 0 {
		return &ContractError{Op: "open", Reason: "open spec without legs"}
	}

	legs := make([]Leg, len(spec.Legs))
	prices := make([]float64, len(spec.Legs))
	refs := make([]float64, len(spec.Legs))

	gross := 0
	var netPremium, notional float64

	for i, ls := range spec.Legs {
		opt := ls.Option
		if opt.Symbol == "" {
			opt.Symbol = spec.Symbol
		}

		spot, ok := snap.SpotFor(opt.Symbol)
		if !ok {
			// No reference price at entry means no fill. Drop the open
			// visibly rather than fabricate a premium.
			e.log.Warn("dropping open action, no spot for symbol",
				zap.String("symbol", opt.Symbol),
				zap.Time("time", snap.Time))
			return nil
		}

		ref, err := pricer.Price(opt, spot, snap.Vol, opt.YearsTo(snap.Time))
		if err != nil {
			e.log.Warn("dropping open action, oracle cannot price leg",
				zap.String("contract", opt.Key()),
				zap.Time("time", snap.Time),
				zap.Error(err))
			return nil
		}

		leg := Leg{Option: opt, Quantity: ls.Quantity}
		px, _ := e.fill.Fill(ref, leg.Direction(), Entry, snap.Vol)

		legs[i] = leg
		prices[i] = px
		refs[i] = ref

		q := ls.Quantity
		if q < 0 {
			q = -q
		}
		gross += q
		size := float64(opt.ContractSize())
		netPremium += float64(ls.Quantity) * size * px
		notional += float64(q) * size * px
	}

	comm := e.cfg.Fees.Commission(gross, sideOf(netPremium), notional)

	t, err := NewTrade(id.New(), spec.Symbol, spec.Strategy, legs, snap.Time, prices, comm)
	if err != nil {
		return err
	}

	// Seed the last-known premiums so a later oracle gap always has a
	// fallback for this trade's legs.
	for i := range legs {
		e.last.Set(legs[i].Option, refs[i])
	}

	net := t.EntryCost + comm
	if net >= 0 {
		e.ledger.Debit(snap.Time, net, t.ID)
	} else {
		e.ledger.Credit(snap.Time, -net, t.ID)
	}

	e.trades[t.ID] = t
	e.order = append(e.order, t.ID)
	return nil
}

func (e *Engine) closeTrade(snap market.Snapshot, spec CloseSpec, pricer market.Pricer) error {
	t, ok := e.trades[spec.TradeID]
	if !ok {
		return &ContractError{Op: "close", TradeID: spec.TradeID, Reason: "unknown trade"}
	}
	if t.Status == Closed {
		return &ContractError{Op: "close", TradeID: t.ID, Reason: "already closed"}
	}

	prices := make([]float64, len(t.Legs))
	gross := 0
	var proceeds, notional float64

	for i := range t.Legs {
		leg := t.Legs[i]
		ref, st := e.legPremium(snap, leg, pricer)
		if st {
			e.staleClose = true
		}
		px, _ := e.fill.Fill(ref, leg.Direction(), Exit, snap.Vol)
		prices[i] = px

		q := leg.Quantity
		if q < 0 {
			q = -q
		}
		gross += q
		size := float64(leg.Option.ContractSize())
		proceeds += float64(leg.Quantity) * size * px
		notional += float64(q) * size * px
	}

	// Exiting means unwinding: collecting the proceeds is the sell side,
	// paying to buy back a short is the buy side.
	comm := e.cfg.Fees.Commission(gross, sideOf(-proceeds), notional)

	if err := t.Close(snap.Time, prices, comm, spec.Reason); err != nil {
		return err
	}

	net := t.ExitProceeds - comm
	if net >= 0 {
		e.ledger.Credit(snap.Time, net, t.ID)
	} else {
		e.ledger.Debit(snap.Time, -net, t.ID)
	}

	rec := journal.TradeRecord{
		TradeID:         t.ID,
		Symbol:          t.Symbol,
		Strategy:        t.Strategy,
		Legs:            len(t.Legs),
		Contracts:       t.GrossContracts(),
		OpenTime:        t.OpenTime,
		CloseTime:       t.CloseTime,
		EntryCost:       t.EntryCost,
		ExitProceeds:    t.ExitProceeds,
		EntryCommission: t.EntryCommission,
		ExitCommission:  t.ExitCommission,
		RealizedPL:      t.RealizedPL,
		PeakPL:          t.PeakUnrealizedPL,
		Reason:          t.Reason,
	}
	e.closed = append(e.closed, rec)
	return e.jrnl.RecordTrade(rec)
}

// legPremium prices one open leg at the current snapshot. On an oracle
// failure it falls back to the leg's last known premium (seeded at
// entry), logs the gap and reports stale=true. A single missing price
// never aborts the run.
func (e *Engine) legPremium(snap market.Snapshot, leg Leg, pricer market.Pricer) (float64, bool) {
	var (
		ref float64
		err error
	)

	spot, ok := snap.SpotFor(leg.Option.Symbol)
	if !ok {
		err = fmt.Errorf("no spot for %s", leg.Option.Symbol)
	} else {
		ref, err = pricer.Price(leg.Option, spot, snap.Vol, leg.Option.YearsTo(snap.Time))
	}

	if err != nil {
		gap := &DataGapError{Option: leg.Option, Time: snap.Time, Err: err}
		px, lerr := e.last.Get(leg.Option)
		if lerr != nil {
			// Entry always seeds the store; this is a belt-and-braces
			// fallback to the entry fill.
			px = leg.EntryPrice
		}
		e.log.Warn("pricing gap, using last known premium",
			zap.String("contract", leg.Option.Key()),
			zap.Float64("premium", px),
			zap.Error(gap))
		return px, true
	}

	e.last.Set(leg.Option, ref)
	return ref, false
}

// markToMarket values every open leg at the oracle's premium and appends
// one equity point: equity = cash + full notional market value of open
// legs. That formula, not cash plus incremental P&L, is the audited one;
// see TestMarkToMarketUsesFullNotional.
func (e *Engine) markToMarket(snap market.Snapshot, pricer market.Pricer) error {
	equity := e.ledger.Cash()
	stale := e.staleClose
	openCount := 0

	for _, tid := range e.order {
		t := e.trades[tid]
		if t.Status != Open {
			continue
		}
		openCount++

		var mv float64
		for i := range t.Legs {
			prem, st := e.legPremium(snap, t.Legs[i], pricer)
			if st {
				stale = true
			}
			mv += t.Legs[i].MarketValue(prem)
		}

		t.markUnrealized(mv)
		equity += mv
	}

	point := journal.EquitySnapshot{
		Time:       snap.Time,
		Cash:       e.ledger.Cash(),
		Equity:     equity,
		OpenTrades: openCount,
		Stale:      stale,
	}
	e.curve = append(e.curve, point)
	return e.jrnl.RecordEquity(point)
}

func (e *Engine) result() Result {
	res := Result{
		Curve:  e.curve,
		Closed: e.closed,
		Cash:   e.ledger.Cash(),
		Trades: len(e.closed),
	}

	res.Equity = res.Cash
	if len(e.curve) > 0 {
		res.Equity = e.curve[len(e.curve)-1].Equity
	}

	for _, rec := range e.closed {
		switch {
		case rec.RealizedPL > 0:
			res.Wins++
		case rec.RealizedPL < 0:
			res.Losses++
		}
	}
	return res
}

// Run is the single-call entry point: it builds an engine around an
// in-memory journal, replays the series and returns the equity curve and
// closed-trade ledger.
func Run(series []market.Snapshot, dec Decider, pricer market.Pricer, cfg Config) (Result, error) {
	e, err := NewEngine(cfg, nil, nil)
	if err != nil {
		return Result{}, err
	}
	return e.Run(context.Background(), market.NewSliceFeed(series), dec, pricer)
}
