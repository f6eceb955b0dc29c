package rlog

import (
	"time"

	"github.com/lixenwraith/rlog/internal/confload"
)

// Config holds dispatcher configuration values
type Config struct {
	Levels  string `toml:"levels"`  // Accepted severities, e.g. "info,warning,error"
	Enabled bool   `toml:"enabled"` // Master switch
	Async   bool   `toml:"async"`   // Deliver on a background lane

	// Close waits this long for the async lane to drain
	ShutdownTimeoutMs int64 `toml:"shutdown_timeout_ms"`

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"`
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	Levels:                 "all",
	Enabled:                true,
	Async:                  false,
	ShutdownTimeoutMs:      2000,
	InternalErrorsToStderr: false,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads the [log] table of a TOML file over the defaults
// and returns a validated Config. A missing file yields the defaults.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := confload.LoadFile(path, "log.", cfg); err != nil {
		return nil, fmtErrorf("%w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := confload.ApplyMap(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyConfigString applies "key=value" overrides to a copy of c and returns
// the validated result
func (c *Config) ApplyConfigString(overrides ...string) (*Config, error) {
	cfg := c.Clone()
	if err := confload.ApplyStrings(cfg, overrides...); err != nil {
		return nil, fmtErrorf("%w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if _, err := ParseLevels(c.Levels); err != nil {
		return err
	}

	if c.ShutdownTimeoutMs <= 0 {
		return fmtErrorf("shutdown_timeout_ms must be positive: %d", c.ShutdownTimeoutMs)
	}
	return nil
}

// LevelSet returns the parsed Levels value
func (c *Config) LevelSet() (Level, error) {
	return ParseLevels(c.Levels)
}

// shutdownTimeout returns ShutdownTimeoutMs as a duration
func (c *Config) shutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMs) * time.Millisecond
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}
