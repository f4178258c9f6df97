package market

import (
	"fmt"
	"math"
)

// BlackScholes is a reference Pricer for European options. The simulator
// core does not depend on it; it exists so the CLI and examples can run
// end to end without an external pricing service.
type BlackScholes struct {
	// RiskFree is the annualized risk-free rate, e.g. 0.04.
	RiskFree float64
}

func (b BlackScholes) Price(opt Option, spot, vol, tte float64) (float64, error) {
	if spot <= 0 {
		return 0, fmt.Errorf("black-scholes: no spot for %s", opt.Symbol)
	}
	if opt.Strike <= 0 {
		return 0, fmt.Errorf("black-scholes: invalid strike %.4f", opt.Strike)
	}

	// At or past expiry the premium collapses to intrinsic value.
	if tte <= 0 || vol <= 0 {
		return opt.Intrinsic(spot), nil
	}

	sqrtT := math.Sqrt(tte)
	d1 := (math.Log(spot/opt.Strike) + (b.RiskFree+0.5*vol*vol)*tte) / (vol * sqrtT)
	d2 := d1 - vol*sqrtT
	disc := math.Exp(-b.RiskFree * tte)

	switch opt.Type {
	case Call:
		return spot*normCDF(d1) - opt.Strike*disc*normCDF(d2), nil
	case Put:
		return opt.Strike*disc*normCDF(-d2) - spot*normCDF(-d1), nil
	default:
		return 0, fmt.Errorf("black-scholes: unknown option type %q", opt.Type)
	}
}

func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}
