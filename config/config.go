package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/optionsim/sim"
)

// Config represents the complete backtest configuration.
type Config struct {
	Account  AccountConfig   `json:"account" yaml:"account"`
	Fees     sim.FeeSchedule `json:"fees" yaml:"fees"`
	Slippage sim.VolSlippage `json:"slippage" yaml:"slippage"`
	Pricing  PricingConfig   `json:"pricing" yaml:"pricing"`
	Strategy StrategyConfig  `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig   `json:"journal" yaml:"journal"`
}

// AccountConfig contains account initialization parameters.
type AccountConfig struct {
	ID             string  `json:"id" yaml:"id"`
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
}

// PricingConfig parameterizes the built-in Black-Scholes oracle.
type PricingConfig struct {
	RiskFreeRate float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
}

// StrategyConfig contains decision-layer parameters.
type StrategyConfig struct {
	Name         string  `json:"name" yaml:"name"`
	Symbol       string  `json:"symbol" yaml:"symbol"`
	Quantity     int     `json:"quantity" yaml:"quantity"`
	ExpiryDays   int     `json:"expiry_days" yaml:"expiry_days"`
	ProfitTarget float64 `json:"profit_target,omitempty" yaml:"profit_target,omitempty"`
	MaxLoss      float64 `json:"max_loss,omitempty" yaml:"max_loss,omitempty"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "memory"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// Sim extracts the engine-facing subset.
func (c *Config) Sim() sim.Config {
	return sim.Config{
		InitialCapital: c.Account.InitialCapital,
		Fees:           c.Fees,
		Slippage:       c.Slippage,
	}
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON.
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (format by extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the full configuration, engine parameters included.
// Engine parameter failures surface as sim.ConfigError.
func (c *Config) Validate() error {
	if err := c.Sim().Validate(); err != nil {
		return err
	}
	if c.Pricing.RiskFreeRate < 0 {
		return fmt.Errorf("pricing.risk_free_rate must not be negative")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	switch c.Journal.Type {
	case "memory":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'memory'")
	}
	return nil
}

// Default returns a configuration with all defaults documented here:
// $100k capital, the standard fee and slippage schedules, a 4%% risk-free
// rate and an SQLite journal.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:             "SIM-001",
			InitialCapital: 100_000,
		},
		Fees:     sim.DefaultFees(),
		Slippage: sim.DefaultSlippage(),
		Pricing: PricingConfig{
			RiskFreeRate: 0.04,
		},
		Strategy: StrategyConfig{
			Name:       "noop",
			Symbol:     "SPY",
			Quantity:   1,
			ExpiryDays: 30,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./backtest.sqlite",
		},
	}
}
