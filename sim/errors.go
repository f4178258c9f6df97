package sim

import (
	"fmt"
	"time"

	"github.com/rustyeddy/optionsim/market"
)

// ContractError reports an illegal use of the trade lifecycle by the
// decision layer: double-closing a trade, closing an unknown trade, or a
// leg-count mismatch between open and close. It is always fatal to the
// run; it signals a bug in the caller, not a market condition.
type ContractError struct {
	Op      string
	TradeID string
	Reason  string
}

func (e *ContractError) Error() string {
	if e.TradeID == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s: trade %q: %s", e.Op, e.TradeID, e.Reason)
}

// ConfigError reports an invalid engine configuration. It is raised at
// construction, before any step executes.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// DataGapError reports that the pricing oracle could not price an open
// leg at a step. It is recoverable: the simulator falls back to the leg's
// last known premium, flags the equity point as stale and continues.
type DataGapError struct {
	Option market.Option
	Time   time.Time
	Err    error
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("data gap: %s at %s: %v", e.Option.Key(), e.Time.Format(time.RFC3339), e.Err)
}

func (e *DataGapError) Unwrap() error { return e.Err }
