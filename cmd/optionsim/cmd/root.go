package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "optionsim",
	Short: "A deterministic options backtesting engine",
	Long: `Optionsim replays market snapshot series through a trade simulation
core with realistic fills, commissions and a fully audited capital ledger.

It provides tools for:
  - Backtesting option strategies against snapshot CSVs
  - Multi-leg position accounting (spreads, straddles)
  - Mark-to-market equity curves with stale-price annotations
  - Journaling trades and equity to SQLite or CSV`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
