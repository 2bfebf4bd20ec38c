// Package config provides YAML-backed configuration for seasonflow runs:
// stage timeouts, monitoring thresholds, markdown bounds and allocation
// floors. Every field has a default; a config file only overrides what it
// names.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete seasonflow runtime configuration.
type Config struct {
	Handoff    HandoffConfig    `yaml:"handoff"`
	Forecast   ForecastConfig   `yaml:"forecast"`
	Allocation AllocationConfig `yaml:"allocation"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Markdown   MarkdownConfig   `yaml:"markdown"`
}

// HandoffConfig configures stage execution.
type HandoffConfig struct {
	// StageTimeout bounds every stage call.
	StageTimeout time.Duration `yaml:"stage_timeout"`
}

// ForecastConfig configures the forecasting ensemble.
type ForecastConfig struct {
	// SeasonalPeriod is the seasonal cycle length in weeks.
	SeasonalPeriod int `yaml:"seasonal_period"`
}

// AllocationConfig configures the allocation engine.
type AllocationConfig struct {
	// MinPerEntity floors every store allocation. Zero disables the floor.
	MinPerEntity int `yaml:"min_per_entity"`
	// SafetyStockPct scales the ensemble total into the manufacturing
	// quantity.
	SafetyStockPct float64 `yaml:"safety_stock_pct"`
}

// MonitoringConfig configures in-season variance checks.
type MonitoringConfig struct {
	// VarianceThreshold is the relative deviation above which a re-forecast
	// is triggered automatically.
	VarianceThreshold float64 `yaml:"variance_threshold"`
}

// MarkdownConfig configures the markdown engine.
type MarkdownConfig struct {
	// Cap bounds any computed markdown percentage.
	Cap float64 `yaml:"cap"`
	// Elasticity scales the sell-through gap into a discount.
	Elasticity float64 `yaml:"elasticity"`
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Handoff:    HandoffConfig{StageTimeout: 30 * time.Second},
		Forecast:   ForecastConfig{SeasonalPeriod: 52},
		Allocation: AllocationConfig{MinPerEntity: 0, SafetyStockPct: 0.10},
		Monitoring: MonitoringConfig{VarianceThreshold: 0.20},
		Markdown:   MarkdownConfig{Cap: 0.40, Elasticity: 2.0},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Handoff.StageTimeout <= 0 {
		return fmt.Errorf("handoff.stage_timeout must be positive")
	}
	if c.Forecast.SeasonalPeriod < 2 {
		return fmt.Errorf("forecast.seasonal_period must be at least 2")
	}
	if c.Allocation.MinPerEntity < 0 {
		return fmt.Errorf("allocation.min_per_entity must be non-negative")
	}
	if c.Allocation.SafetyStockPct < 0 || c.Allocation.SafetyStockPct > 1 {
		return fmt.Errorf("allocation.safety_stock_pct must be between 0 and 1")
	}
	if c.Monitoring.VarianceThreshold <= 0 {
		return fmt.Errorf("monitoring.variance_threshold must be positive")
	}
	if c.Markdown.Cap <= 0 || c.Markdown.Cap > 1 {
		return fmt.Errorf("markdown.cap must be between 0 and 1")
	}
	if c.Markdown.Elasticity <= 0 {
		return fmt.Errorf("markdown.elasticity must be positive")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file, applying defaults for
// fields the file omits.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
