package sim

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/rustyeddy/optionsim/market"
)

// pinnedFees yields exactly $1.00 for one contract and $1.30 for two,
// matching the audited accounting fixtures.
func pinnedFees() FeeSchedule {
	return FeeSchedule{PerContract: 0.65, Minimum: 1.00}
}

func newTestEngine(t *testing.T, capital float64, fees FeeSchedule) *Engine {
	t.Helper()
	e, err := NewEngine(Config{InitialCapital: capital, Fees: fees}, nil, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	e.SetFillModel(Frictionless{})
	return e
}

// spotPricer prices every contract at its underlying's spot, so tests
// can script premiums directly through the snapshot series.
var spotPricer = market.PricerFunc(func(opt market.Option, spot, vol, tte float64) (float64, error) {
	return spot, nil
})

func testSnap(tm time.Time, spots map[string]float64) market.Snapshot {
	return market.Snapshot{Time: tm, Spot: spots, Vol: 0.2}
}

func testLeg(symbol string, typ market.OptionType, qty int) LegSpec {
	return LegSpec{
		Option: market.Option{
			Symbol: symbol,
			Type:   typ,
			Strike: 450,
			Expiry: time.Date(2030, 6, 21, 0, 0, 0, 0, time.UTC),
		},
		Quantity: qty,
	}
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

var t0 = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

func steps(n int, spots ...map[string]float64) []market.Snapshot {
	out := make([]market.Snapshot, n)
	for i := 0; i < n; i++ {
		var sp map[string]float64
		if i < len(spots) {
			sp = spots[i]
		}
		out[i] = testSnap(t0.Add(time.Duration(i)*time.Hour), sp)
	}
	return out
}

// stepDecider calls fn with a zero-based step counter.
func stepDecider(fn func(step int, snap market.Snapshot, view View) []Action) Decider {
	step := -1
	return DeciderFunc(func(snap market.Snapshot, view View) []Action {
		step++
		return fn(step, snap, view)
	})
}

func TestLongCallScenario(t *testing.T) {
	e := newTestEngine(t, 100_000, pinnedFees())

	series := steps(2,
		map[string]float64{"SPY": 10.0},
		map[string]float64{"SPY": 20.0},
	)

	dec := stepDecider(func(step int, snap market.Snapshot, view View) []Action {
		switch step {
		case 0:
			return []Action{OpenAction(OpenSpec{Symbol: "SPY", Strategy: "test",
				Legs: []LegSpec{testLeg("SPY", market.Call, 1)}})}
		case 1:
			return []Action{CloseAction(view.Open[0].ID, "test")}
		}
		return nil
	})

	res, err := e.Run(context.Background(), market.NewSliceFeed(series), dec, spotPricer)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !approxEqual(res.Curve[0].Cash, 98_999.0, 1e-9) {
		t.Fatalf("cash after open: got %.4f want 98999", res.Curve[0].Cash)
	}
	if !approxEqual(res.Cash, 100_998.0, 1e-9) {
		t.Fatalf("final cash: got %.4f want 100998", res.Cash)
	}
	if len(res.Closed) != 1 || !approxEqual(res.Closed[0].RealizedPL, 998.0, 1e-9) {
		t.Fatalf("realized pl: got %+v", res.Closed)
	}

	entries := e.LedgerEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
	if entries[0].Kind != Debit || !approxEqual(entries[0].Amount, 1001.0, 1e-9) {
		t.Fatalf("entry debit: %+v", entries[0])
	}
	if entries[1].Kind != Credit || !approxEqual(entries[1].Amount, 1999.0, 1e-9) {
		t.Fatalf("exit credit: %+v", entries[1])
	}
}

func TestShortPutEntryCredit(t *testing.T) {
	e := newTestEngine(t, 100_000, pinnedFees())

	series := steps(1, map[string]float64{"SPY": 5.0})

	dec := stepDecider(func(step int, snap market.Snapshot, view View) []Action {
		if step == 0 {
			return []Action{OpenAction(OpenSpec{Symbol: "SPY", Strategy: "test",
				Legs: []LegSpec{testLeg("SPY", market.Put, -1)}})}
		}
		return nil
	})

	res, err := e.Run(context.Background(), market.NewSliceFeed(series), dec, spotPricer)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !approxEqual(res.Cash, 100_499.0, 1e-9) {
		t.Fatalf("cash after short entry: got %.4f want 100499", res.Cash)
	}
	// Equity carries the short leg at full notional: 100499 - 500.
	if !approxEqual(res.Curve[0].Equity, 99_999.0, 1e-9) {
		t.Fatalf("equity: got %.4f want 99999", res.Curve[0].Equity)
	}
}

func TestStraddleScenario(t *testing.T) {
	e := newTestEngine(t, 100_000, pinnedFees())

	// Legs reference distinct pricing keys so the exit premiums can
	// diverge per leg.
	series := steps(2,
		map[string]float64{"SPYC": 3.0, "SPYP": 3.0},
		map[string]float64{"SPYC": 1.0, "SPYP": 8.0},
	)

	dec := stepDecider(func(step int, snap market.Snapshot, view View) []Action {
		switch step {
		case 0:
			return []Action{OpenAction(OpenSpec{Symbol: "SPY", Strategy: "straddle",
				Legs: []LegSpec{
					testLeg("SPYC", market.Call, 1),
					testLeg("SPYP", market.Put, 1),
				}})}
		case 1:
			return []Action{CloseAction(view.Open[0].ID, "test")}
		}
		return nil
	})

	res, err := e.Run(context.Background(), market.NewSliceFeed(series), dec, spotPricer)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !approxEqual(res.Curve[0].Cash, 99_398.70, 1e-9) {
		t.Fatalf("cash after open: got %.4f want 99398.70", res.Curve[0].Cash)
	}
	if !approxEqual(res.Closed[0].RealizedPL, 297.40, 1e-9) {
		t.Fatalf("realized pl: got %.4f want 297.40", res.Closed[0].RealizedPL)
	}
	if !approxEqual(res.Cash, 100_297.40, 1e-9) {
		t.Fatalf("final cash: got %.4f want 100297.40", res.Cash)
	}
}

// Pinned regression for the equity formula: cash plus full notional
// market value of open legs, not cash plus incremental P&L since entry.
func TestMarkToMarketUsesFullNotional(t *testing.T) {
	e := newTestEngine(t, 100_000, FeeSchedule{})

	series := steps(2,
		map[string]float64{"SPY": 10.0},
		map[string]float64{"SPY": 12.0},
	)

	dec := stepDecider(func(step int, snap market.Snapshot, view View) []Action {
		if step == 0 {
			return []Action{OpenAction(OpenSpec{Symbol: "SPY", Strategy: "test",
				Legs: []LegSpec{testLeg("SPY", market.Call, 1)}})}
		}
		return nil
	})

	res, err := e.Run(context.Background(), market.NewSliceFeed(series), dec, spotPricer)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	pt := res.Curve[1]
	if !approxEqual(pt.Cash, 99_000.0, 1e-9) {
		t.Fatalf("cash: got %.4f want 99000", pt.Cash)
	}
	if !approxEqual(pt.Equity, 100_200.0, 1e-9) {
		t.Fatalf("equity: got %.4f want 100200 (cash + 1x100x12)", pt.Equity)
	}
	if approxEqual(pt.Equity, 99_200.0, 1e-9) {
		t.Fatalf("equity used incremental P&L formula, must use full notional")
	}
}

func TestConservationInvariant(t *testing.T) {
	e := newTestEngine(t, 100_000, pinnedFees())

	prems := []float64{10.0, 13.0, 9.0, 11.0, 11.0}
	spots := make([]map[string]float64, len(prems))
	for i, p := range prems {
		spots[i] = map[string]float64{"SPY": p}
	}
	series := steps(len(prems), spots...)

	dec := stepDecider(func(step int, snap market.Snapshot, view View) []Action {
		switch step {
		case 0:
			return []Action{OpenAction(OpenSpec{Symbol: "SPY", Strategy: "test",
				Legs: []LegSpec{testLeg("SPY", market.Call, 1)}})}
		case 3:
			return []Action{CloseAction(view.Open[0].ID, "test")}
		}
		return nil
	})

	res, err := e.Run(context.Background(), market.NewSliceFeed(series), dec, spotPricer)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// initial + realized + unrealized == equity, at every step.
	for i, pt := range res.Curve {
		var realized, unrealized float64
		if i >= 3 {
			realized = 1100.0 - 1000.0 - 1.0 - 1.0 // closed at step 3
		} else {
			unrealized = prems[i]*100.0 - 1000.0 - 1.0 // open, net of entry commission
		}

		want := 100_000.0 + realized + unrealized
		if !approxEqual(pt.Equity, want, 1e-6) {
			t.Fatalf("step %d: equity %.4f, conservation demands %.4f", i, pt.Equity, want)
		}
	}
}

func TestExitsExecuteBeforeEntries(t *testing.T) {
	e := newTestEngine(t, 100_000, pinnedFees())

	series := steps(2,
		map[string]float64{"SPY": 10.0},
		map[string]float64{"SPY": 20.0},
	)

	var viewCashAtStep1 float64

	dec := stepDecider(func(step int, snap market.Snapshot, view View) []Action {
		switch step {
		case 0:
			return []Action{OpenAction(OpenSpec{Symbol: "SPY", Strategy: "a",
				Legs: []LegSpec{testLeg("SPY", market.Call, 1)}})}
		case 1:
			viewCashAtStep1 = view.Cash
			// Close and open in the same step, in this order on purpose.
			return []Action{
				OpenAction(OpenSpec{Symbol: "SPY", Strategy: "b",
					Legs: []LegSpec{testLeg("SPY", market.Call, 1)}}),
				CloseAction(view.Open[0].ID, "rotate"),
			}
		}
		return nil
	})

	_, err := e.Run(context.Background(), market.NewSliceFeed(series), dec, spotPricer)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// The decision view must not see the same step's exit proceeds.
	if !approxEqual(viewCashAtStep1, 98_999.0, 1e-9) {
		t.Fatalf("view cash: got %.4f want pre-exit 98999", viewCashAtStep1)
	}

	// The ledger must show the exit credit before the new entry debit,
	// regardless of the order the decider listed the actions.
	entries := e.LedgerEntries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 ledger entries, got %d", len(entries))
	}
	if entries[1].Kind != Credit {
		t.Fatalf("expected exit credit second, got %+v", entries[1])
	}
	if entries[2].Kind != Debit || !approxEqual(entries[2].Amount, 2001.0, 1e-9) {
		t.Fatalf("expected entry debit last, got %+v", entries[2])
	}
}

func TestStalePriceFallback(t *testing.T) {
	e := newTestEngine(t, 100_000, pinnedFees())

	series := steps(3,
		map[string]float64{"SPY": 10.0},
		map[string]float64{}, // oracle has nothing for SPY this step
		map[string]float64{"SPY": 12.0},
	)

	dec := stepDecider(func(step int, snap market.Snapshot, view View) []Action {
		if step == 0 {
			return []Action{OpenAction(OpenSpec{Symbol: "SPY", Strategy: "test",
				Legs: []LegSpec{testLeg("SPY", market.Call, 1)}})}
		}
		return nil
	})

	res, err := e.Run(context.Background(), market.NewSliceFeed(series), dec, spotPricer)
	if err != nil {
		t.Fatalf("a missing price must never abort the run: %v", err)
	}

	if len(res.Curve) != 3 {
		t.Fatalf("expected one point per step, got %d", len(res.Curve))
	}

	gap := res.Curve[1]
	if !gap.Stale {
		t.Fatalf("expected stale marker on gap step")
	}
	// Valued at the last known premium (10.0).
	if !approxEqual(gap.Equity, gap.Cash+1000.0, 1e-9) {
		t.Fatalf("gap equity: got %.4f want cash+1000", gap.Equity)
	}

	after := res.Curve[2]
	if after.Stale {
		t.Fatalf("stale marker must clear once pricing recovers")
	}
	if !approxEqual(after.Equity, after.Cash+1200.0, 1e-9) {
		t.Fatalf("recovered equity: got %.4f want cash+1200", after.Equity)
	}
}

func TestStaleCloseMarksEquityPoint(t *testing.T) {
	e := newTestEngine(t, 100_000, pinnedFees())

	series := steps(2,
		map[string]float64{"SPY": 10.0},
		map[string]float64{}, // no spot for SPY at the step that closes
	)

	dec := stepDecider(func(step int, snap market.Snapshot, view View) []Action {
		switch step {
		case 0:
			return []Action{OpenAction(OpenSpec{Symbol: "SPY", Strategy: "test",
				Legs: []LegSpec{testLeg("SPY", market.Call, 1)}})}
		case 1:
			return []Action{CloseAction(view.Open[0].ID, "test")}
		}
		return nil
	})

	res, err := e.Run(context.Background(), market.NewSliceFeed(series), dec, spotPricer)
	if err != nil {
		t.Fatalf("a missing price at close must never abort the run: %v", err)
	}

	// The exit was priced from the last known premium; the trade is
	// already closed when mark-to-market runs, but the point must still
	// carry the stale marker.
	if !res.Curve[1].Stale {
		t.Fatalf("expected stale marker on the step that closed on a fallback price")
	}

	if len(res.Closed) != 1 || !approxEqual(res.Closed[0].ExitProceeds, 1000.0, 1e-9) {
		t.Fatalf("exit must use the last known premium: %+v", res.Closed)
	}
	if !approxEqual(res.Closed[0].RealizedPL, -2.0, 1e-9) {
		t.Fatalf("realized pl: got %.4f want -2 (round trip at 10, two commissions)", res.Closed[0].RealizedPL)
	}
	if !approxEqual(res.Cash, 99_998.0, 1e-9) {
		t.Fatalf("final cash: got %.4f want 99998", res.Cash)
	}
}

func TestDoubleCloseAbortsRun(t *testing.T) {
	e := newTestEngine(t, 100_000, pinnedFees())

	series := steps(2,
		map[string]float64{"SPY": 10.0},
		map[string]float64{"SPY": 11.0},
	)

	dec := stepDecider(func(step int, snap market.Snapshot, view View) []Action {
		switch step {
		case 0:
			return []Action{OpenAction(OpenSpec{Symbol: "SPY", Strategy: "test",
				Legs: []LegSpec{testLeg("SPY", market.Call, 1)}})}
		case 1:
			id := view.Open[0].ID
			return []Action{CloseAction(id, "first"), CloseAction(id, "second")}
		}
		return nil
	})

	_, err := e.Run(context.Background(), market.NewSliceFeed(series), dec, spotPricer)

	var cerr *ContractError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ContractError, got %v", err)
	}
}

func TestCloseUnknownTradeAbortsRun(t *testing.T) {
	e := newTestEngine(t, 100_000, pinnedFees())

	series := steps(1, map[string]float64{"SPY": 10.0})

	dec := stepDecider(func(step int, snap market.Snapshot, view View) []Action {
		return []Action{CloseAction("NO-SUCH-TRADE", "test")}
	})

	_, err := e.Run(context.Background(), market.NewSliceFeed(series), dec, spotPricer)

	var cerr *ContractError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ContractError, got %v", err)
	}
}

func TestCurveMatchesSeries(t *testing.T) {
	e := newTestEngine(t, 100_000, pinnedFees())

	spots := make([]map[string]float64, 5)
	for i := range spots {
		spots[i] = map[string]float64{"SPY": 10.0}
	}
	series := steps(5, spots...)

	res, err := e.Run(context.Background(), market.NewSliceFeed(series), nil, spotPricer)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.Curve) != len(series) {
		t.Fatalf("curve has %d points for %d snapshots", len(res.Curve), len(series))
	}
	for i, pt := range res.Curve {
		if !pt.Time.Equal(series[i].Time) {
			t.Fatalf("point %d: time %v != snapshot %v", i, pt.Time, series[i].Time)
		}
		if i > 0 && pt.Time.Before(res.Curve[i-1].Time) {
			t.Fatalf("timestamps must be non-decreasing")
		}
		// No decider: equity stays flat at initial capital.
		if !approxEqual(pt.Equity, 100_000.0, 1e-9) {
			t.Fatalf("point %d: equity %.4f, expected flat 100000", i, pt.Equity)
		}
	}
}

func TestOutOfOrderSnapshotFails(t *testing.T) {
	e := newTestEngine(t, 100_000, pinnedFees())

	series := []market.Snapshot{
		testSnap(t0.Add(time.Hour), map[string]float64{"SPY": 10.0}),
		testSnap(t0, map[string]float64{"SPY": 10.0}),
	}

	_, err := e.Run(context.Background(), market.NewSliceFeed(series), nil, spotPricer)
	if err == nil {
		t.Fatalf("expected out-of-order series to abort the run")
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() []float64 {
		e := newTestEngine(t, 100_000, DefaultFees())
		e.SetFillModel(DefaultSlippage())

		prems := []float64{10.0, 11.5, 9.25, 14.0, 12.0}
		spots := make([]map[string]float64, len(prems))
		for i, p := range prems {
			spots[i] = map[string]float64{"SPY": p}
		}

		dec := stepDecider(func(step int, snap market.Snapshot, view View) []Action {
			switch step {
			case 0:
				return []Action{OpenAction(OpenSpec{Symbol: "SPY", Strategy: "test",
					Legs: []LegSpec{testLeg("SPY", market.Call, 2)}})}
			case 3:
				return []Action{CloseAction(view.Open[0].ID, "test")}
			}
			return nil
		})

		res, err := e.Run(context.Background(), market.NewSliceFeed(steps(len(prems), spots...)), dec, spotPricer)
		if err != nil {
			t.Fatalf("run: %v", err)
		}

		out := make([]float64, len(res.Curve))
		for i, pt := range res.Curve {
			out[i] = pt.Equity
		}
		return out
	}

	a := run()
	b := run()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical inputs must produce identical curves:\n%v\n%v", a, b)
	}
}

func TestEngineConfigValidation(t *testing.T) {
	var cfgErr *ConfigError

	_, err := NewEngine(Config{InitialCapital: 0}, nil, nil)
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for zero capital, got %v", err)
	}

	_, err = NewEngine(Config{InitialCapital: 1000, Fees: FeeSchedule{Minimum: -1}}, nil, nil)
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for negative minimum, got %v", err)
	}
}

func TestRunEntryPoint(t *testing.T) {
	series := steps(2,
		map[string]float64{"SPY": 10.0},
		map[string]float64{"SPY": 20.0},
	)

	dec := stepDecider(func(step int, snap market.Snapshot, view View) []Action {
		switch step {
		case 0:
			return []Action{OpenAction(OpenSpec{Symbol: "SPY", Strategy: "test",
				Legs: []LegSpec{testLeg("SPY", market.Call, 1)}})}
		case 1:
			return []Action{CloseAction(view.Open[0].ID, "test")}
		}
		return nil
	})

	cfg := Config{InitialCapital: 100_000, Fees: pinnedFees()}
	res, err := Run(series, dec, spotPricer, cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Trades != 1 || res.Wins != 1 {
		t.Fatalf("summary mismatch: %+v", res)
	}
	if len(res.Curve) != 2 {
		t.Fatalf("expected 2 curve points, got %d", len(res.Curve))
	}
}
