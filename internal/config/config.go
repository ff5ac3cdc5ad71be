// Package config loads aquaplan deployment configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/aquaplan/internal/balance"
	"github.com/roach88/aquaplan/internal/process"
	"github.com/roach88/aquaplan/internal/viability"
)

// Config is the complete deployment configuration.
type Config struct {
	// Database is the SQLite path.
	Database string `yaml:"database"`
	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
	// Registry optionally replaces the embedded module model with a CUE file.
	Registry  string          `yaml:"registry,omitempty"`
	Viability ViabilityConfig `yaml:"viability"`
	Policy    PolicyConfig    `yaml:"policy"`
	Balance   BalanceConfig   `yaml:"balance"`
}

// ViabilityConfig configures tiers and the weight-sum tolerance.
type ViabilityConfig struct {
	Tiers     []viability.Band `yaml:"tiers"`
	Tolerance float64          `yaml:"tolerance"`
}

// PolicyConfig decides which failed design criteria reject a run.
type PolicyConfig struct {
	// Default applies to criteria not listed (advisory when empty).
	Default string `yaml:"default"`
	// Criteria maps qualified criteria ("filtration.rate") to a level.
	Criteria map[string]string `yaml:"criteria,omitempty"`
}

// BalanceConfig tunes the balance audit.
type BalanceConfig struct {
	FlowToleranceLs     float64 `yaml:"flow_tolerance_Ls"`
	EfficiencyTolerance float64 `yaml:"efficiency_tolerance"`
	// TargetTurbidityNTU applies to projects without their own target. An
	// explicit 0 disables the check; nil keeps the default.
	TargetTurbidityNTU *float64 `yaml:"target_turbidity_NTU,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	b := balance.DefaultOptions()
	return &Config{
		Database: "aquaplan.db",
		LogLevel: "info",
		Viability: ViabilityConfig{
			Tiers:     viability.DefaultBands(),
			Tolerance: viability.DefaultTolerance,
		},
		Policy: PolicyConfig{Default: string(process.Advisory)},
		Balance: BalanceConfig{
			FlowToleranceLs:     b.FlowTolerance,
			EfficiencyTolerance: b.EfficiencyTolerance,
			TargetTurbidityNTU:  &b.TargetTurbidity,
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.ProcessPolicy(); err != nil {
		return err
	}
	if _, err := c.Tiers(); err != nil {
		return fmt.Errorf("viability.tiers: %w", err)
	}
	if c.Viability.Tolerance <= 0 || c.Viability.Tolerance >= 0.01 {
		return fmt.Errorf("viability.tolerance must be in (0, 0.01)")
	}
	if c.Balance.FlowToleranceLs < 0 || c.Balance.EfficiencyTolerance < 0 ||
		(c.Balance.TargetTurbidityNTU != nil && *c.Balance.TargetTurbidityNTU < 0) {
		return fmt.Errorf("balance tolerances and target must not be negative")
	}
	return nil
}

// ProcessPolicy converts the policy section.
func (c *Config) ProcessPolicy() (process.Policy, error) {
	p := process.Policy{Default: process.Advisory}
	if c.Policy.Default != "" {
		l, err := process.ParseLevel(c.Policy.Default)
		if err != nil {
			return process.Policy{}, fmt.Errorf("policy.default: %w", err)
		}
		p.Default = l
	}
	if len(c.Policy.Criteria) > 0 {
		p.Criteria = make(map[string]process.Level, len(c.Policy.Criteria))
		names := make([]string, 0, len(c.Policy.Criteria))
		for name := range c.Policy.Criteria {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			l, err := process.ParseLevel(c.Policy.Criteria[name])
			if err != nil {
				return process.Policy{}, fmt.Errorf("policy.criteria.%s: %w", name, err)
			}
			p.Criteria[name] = l
		}
	}
	return p, nil
}

// Tiers converts the viability tier bands.
func (c *Config) Tiers() (viability.Tiers, error) {
	return viability.NewTiers(c.Viability.Tiers)
}

// BalanceOptions converts the balance section.
func (c *Config) BalanceOptions() balance.Options {
	opts := balance.Options{
		FlowTolerance:       c.Balance.FlowToleranceLs,
		EfficiencyTolerance: c.Balance.EfficiencyTolerance,
		TargetTurbidity:     balance.DefaultOptions().TargetTurbidity,
	}
	if c.Balance.TargetTurbidityNTU != nil {
		opts.TargetTurbidity = *c.Balance.TargetTurbidityNTU
	}
	return opts
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: want debug, info, warn or error", s)
	}
	return l, nil
}

// LoadFromFile reads a YAML file. Fields it does not set stay zero so that
// Merge only applies what the file says.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &config, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge merges another config into this one; non-zero fields of other win,
// and a target turbidity that is set at all wins, zero included.
// Policy criteria merge key by key.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Database != "" {
		c.Database = other.Database
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.Registry != "" {
		c.Registry = other.Registry
	}

	if len(other.Viability.Tiers) > 0 {
		c.Viability.Tiers = append([]viability.Band(nil), other.Viability.Tiers...)
	}
	if other.Viability.Tolerance != 0 {
		c.Viability.Tolerance = other.Viability.Tolerance
	}

	if other.Policy.Default != "" {
		c.Policy.Default = other.Policy.Default
	}
	if len(other.Policy.Criteria) > 0 {
		if c.Policy.Criteria == nil {
			c.Policy.Criteria = make(map[string]string, len(other.Policy.Criteria))
		}
		for k, v := range other.Policy.Criteria {
			c.Policy.Criteria[k] = v
		}
	}

	if other.Balance.FlowToleranceLs != 0 {
		c.Balance.FlowToleranceLs = other.Balance.FlowToleranceLs
	}
	if other.Balance.EfficiencyTolerance != 0 {
		c.Balance.EfficiencyTolerance = other.Balance.EfficiencyTolerance
	}
	if other.Balance.TargetTurbidityNTU != nil {
		target := *other.Balance.TargetTurbidityNTU
		c.Balance.TargetTurbidityNTU = &target
	}
}
