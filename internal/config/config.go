// Package config loads and validates the tool configuration from file,
// environment, and defaults.
package config

import (
	"errors"

	"github.com/petski/rector-src/pkg/engine"
	"github.com/petski/rector-src/pkg/rules/registry"
)

// Config is the top-level configuration struct for rector.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Rules   []registry.Entry `mapstructure:"rules"`
	Engine  EngineConfig     `mapstructure:"engine"`
	Paths   PathsConfig      `mapstructure:"paths"`
	Metrics MetricsConfig    `mapstructure:"metrics"`
}

// EngineConfig holds convergence and concurrency knobs.
type EngineConfig struct {
	// MaxPasses bounds the per-file convergence loop.
	MaxPasses int `mapstructure:"max_passes"`

	// Workers is the number of files processed concurrently. Zero means
	// one worker per CPU.
	Workers int `mapstructure:"workers"`
}

// PathsConfig controls which files are picked up from the target paths.
type PathsConfig struct {
	// Extensions lists the file extensions to process, without dots.
	Extensions []string `mapstructure:"extensions"`

	// SkipVendored drops files living under vendored or generated
	// directory conventions.
	SkipVendored bool `mapstructure:"skip_vendored"`
}

// MetricsConfig controls the optional metrics endpoint.
type MetricsConfig struct {
	// Addr is the listen address for the Prometheus scrape endpoint.
	// Empty disables the endpoint.
	Addr string `mapstructure:"addr"`
}

// Default configuration values.
const (
	DefaultMaxPasses    = engine.DefaultMaxPasses
	DefaultWorkers      = 0
	DefaultSkipVendored = true
)

// DefaultExtensions are the file extensions processed when none are
// configured.
//
//nolint:gochecknoglobals // default value, referenced by the init command too.
var DefaultExtensions = []string{"php"}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidMaxPasses indicates the pass cap is not positive.
	ErrInvalidMaxPasses = errors.New("engine.max_passes must be positive")
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("engine.workers must be non-negative")
	// ErrMissingRuleName indicates a rule entry without a name.
	ErrMissingRuleName = errors.New("rules entries must name a rule")
	// ErrNoExtensions indicates an empty extension filter.
	ErrNoExtensions = errors.New("paths.extensions must not be empty")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Engine.MaxPasses <= 0 {
		return ErrInvalidMaxPasses
	}

	if c.Engine.Workers < 0 {
		return ErrInvalidWorkers
	}

	if len(c.Paths.Extensions) == 0 {
		return ErrNoExtensions
	}

	for _, entry := range c.Rules {
		if entry.Rule == "" {
			return ErrMissingRuleName
		}
	}

	return nil
}
