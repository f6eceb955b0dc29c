package sink

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lixenwraith/rlog/internal/confload"
)

// Default file limits
const (
	DefaultMaxFileCount      = 5
	DefaultMaxFileSizeBytes  = 1024 * 1024
	DefaultMaxFileAgeSeconds = 24 * 60 * 60
)

// FileConfig holds rotating file sink configuration values
type FileConfig struct {
	Directory string `toml:"directory"`
	Prefix    string `toml:"prefix"` // File names are "<prefix> <UTC timestamp>.log"

	// Limits, 0 disables size and age limits
	MaxFileSizeBytes  int64 `toml:"max_file_size_bytes"`
	MaxFileAgeSeconds int64 `toml:"max_file_age_seconds"`
	MaxFileCount      int64 `toml:"max_file_count"`

	// Messages longer than this many runes are truncated, 0 disables
	MaxMessageLength int64 `toml:"max_message_length"`

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"`
}

// AppID returns the application identifier used for default names
func AppID() string {
	name := filepath.Base(os.Args[0])
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "rlog"
	}
	return name
}

// DefaultDirectory resolves the log directory for appID under the user
// cache directory, falling back to the temp directory
func DefaultDirectory(appID string) string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, appID, "logs")
}

// DefaultFileConfig returns the default configuration for the running
// application
func DefaultFileConfig() *FileConfig {
	appID := AppID()
	return &FileConfig{
		Directory:              DefaultDirectory(appID),
		Prefix:                 appID,
		MaxFileSizeBytes:       DefaultMaxFileSizeBytes,
		MaxFileAgeSeconds:      DefaultMaxFileAgeSeconds,
		MaxFileCount:           DefaultMaxFileCount,
		MaxMessageLength:       0,
		InternalErrorsToStderr: false,
	}
}

// NewFileConfigFromFile loads the [log.file] table of a TOML file over the
// defaults and returns a validated FileConfig. A missing file yields the
// defaults.
func NewFileConfigFromFile(path string) (*FileConfig, error) {
	cfg := DefaultFileConfig()

	if err := confload.LoadFile(path, "log.file.", cfg); err != nil {
		return nil, fmtErrorf("%w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyConfigString applies "key=value" overrides to a copy of c and returns
// the validated result
func (c *FileConfig) ApplyConfigString(overrides ...string) (*FileConfig, error) {
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
func (c *FileConfig) Validate() error {
	if strings.TrimSpace(c.Directory) == "" {
		return fmtErrorf("directory cannot be empty")
	}

	if strings.TrimSpace(c.Prefix) == "" {
		return fmtErrorf("prefix cannot be empty")
	}
	if strings.ContainsAny(c.Prefix, `/\`) {
		return fmtErrorf("prefix cannot contain path separators: %s", c.Prefix)
	}

	if c.MaxFileSizeBytes < 0 || c.MaxFileAgeSeconds < 0 || c.MaxMessageLength < 0 {
		return fmtErrorf("limits cannot be negative")
	}

	if c.MaxFileCount < 1 {
		return fmtErrorf("max_file_count must be at least 1: %d", c.MaxFileCount)
	}
	return nil
}

// Clone creates a copy of the configuration
func (c *FileConfig) Clone() *FileConfig {
	copiedConfig := *c
	return &copiedConfig
}
