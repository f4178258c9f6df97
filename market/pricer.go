package market

import "fmt"

// Pricer is the external option-pricing oracle. It must be able to price
// any contract the decision layer opens, at any simulated timestamp.
//
// tte is time to expiry in years. Implementations return an error when
// they cannot produce a premium; the simulator treats that as a data gap
// and falls back to the contract's last known price.
type Pricer interface {
	Price(opt Option, spot, vol, tte float64) (float64, error)
}

// PricerFunc adapts a plain function to the Pricer interface.
type PricerFunc func(opt Option, spot, vol, tte float64) (float64, error)

func (f PricerFunc) Price(opt Option, spot, vol, tte float64) (float64, error) {
	return f(opt, spot, vol, tte)
}

// LastPriceStore remembers the most recent premium observed for each
// contract, keyed by Option.Key. It backs the stale-price fallback: when
// the oracle cannot price an open leg, the simulator marks to the last
// known premium instead of aborting the run.
type LastPriceStore struct {
	prices map[string]float64
}

func NewLastPriceStore() *LastPriceStore {
	return &LastPriceStore{prices: make(map[string]float64)}
}

func (s *LastPriceStore) Set(opt Option, premium float64) {
	s.prices[opt.Key()] = premium
}

func (s *LastPriceStore) Get(opt Option) (float64, error) {
	px, ok := s.prices[opt.Key()]
	if !ok {
		return 0, fmt.Errorf("no known price for %s", opt.Key())
	}
	return px, nil
}
