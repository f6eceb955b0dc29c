package compat

import (
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/rlog"
)

// FastHTTPAdapter wraps an rlog.Dispatcher to implement fasthttp.Logger
type FastHTTPAdapter struct {
	d             *rlog.Dispatcher
	defaultLevel  rlog.Level
	levelDetector func(string) rlog.Level // Function to detect log level from message
}

var _ fasthttp.Logger = (*FastHTTPAdapter)(nil)

// NewFastHTTPAdapter creates a new fasthttp-compatible logger adapter
func NewFastHTTPAdapter(d *rlog.Dispatcher, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		d:             d,
		defaultLevel:  rlog.LevelInfo,
		levelDetector: DetectLogLevel, // Default level detection
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultLevel sets the level used when detection finds nothing
func WithDefaultLevel(level rlog.Level) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultLevel = level
	}
}

// WithLevelDetector sets a custom function to detect log level from message
// content. Returning rlog.LevelOff selects the default level.
func WithLevelDetector(detector func(string) rlog.Level) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.levelDetector = detector
	}
}

// Printf implements fasthttp's Logger interface
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	level := a.defaultLevel
	if a.levelDetector != nil {
		if detected := a.levelDetector(msg); detected != rlog.LevelOff {
			level = detected
		}
	}

	a.d.LogAt(level, rlog.Caller(1), func() rlog.Message {
		return rlog.NewStructured("fasthttp", "msg", msg)
	})
}

// DetectLogLevel attempts to detect log level from message content.
// Returns rlog.LevelOff when no indicator is found.
func DetectLogLevel(msg string) rlog.Level {
	msgLower := strings.ToLower(msg)

	// Check for error indicators
	if strings.Contains(msgLower, "error") ||
		strings.Contains(msgLower, "failed") ||
		strings.Contains(msgLower, "fatal") ||
		strings.Contains(msgLower, "panic") {
		return rlog.LevelError
	}

	// Check for warning indicators
	if strings.Contains(msgLower, "warn") ||
		strings.Contains(msgLower, "deprecated") {
		return rlog.LevelWarning
	}

	// Check for debug indicators
	if strings.Contains(msgLower, "debug") ||
		strings.Contains(msgLower, "trace") {
		return rlog.LevelDebug
	}

	return rlog.LevelOff
}
