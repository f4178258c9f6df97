package sim

// Config holds the engine parameters. All defaults are documented on the
// field types; none are hidden.
type Config struct {
	// InitialCapital seeds the ledger. Must be positive.
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`

	Fees     FeeSchedule `json:"fees" yaml:"fees"`
	Slippage VolSlippage `json:"slippage" yaml:"slippage"`
}

// DefaultConfig returns $100k starting capital with the default fee and
// slippage schedules.
func DefaultConfig() Config {
	return Config{
		InitialCapital: 100_000,
		Fees:           DefaultFees(),
		Slippage:       DefaultSlippage(),
	}
}

// Validate rejects invalid rates and capital. It runs at engine
// construction, before any step executes.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return &ConfigError{Field: "initial_capital", Reason: "must be positive"}
	}
	if err := c.Fees.validate(); err != nil {
		return err
	}
	return c.Slippage.validate()
}
