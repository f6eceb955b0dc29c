// Package formatter provides the stock message formatters: a timestamp
// prefix, a severity symbol prefix and a call-site suffix, plus the Complete
// chain applying all three in that order.
package formatter

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/agilira/go-timecache"

	"github.com/lixenwraith/rlog"
)

// TimestampLayout is the layout of the Timestamp prefix
const TimestampLayout = "2006-01-02 15:04:05.000"

// Severity symbols used by Symbols
const (
	WarningSymbols = "⚠️⚠️⚠️"
	ErrorSymbols   = "💥🧨💥"
	FatalSymbols   = "☠️⚰️☠️"
)

// Clock returns the current time
type Clock func() time.Time

// cachedClock reads the shared millisecond time cache
func cachedClock() time.Time {
	return timecache.DefaultCache().CachedTime()
}

// Timestamp prefixes messages with "<yyyy-MM-dd HH:mm:ss.SSS>: "
type Timestamp struct {
	clock Clock
}

// TimestampOption customizes a Timestamp formatter
type TimestampOption func(*Timestamp)

// WithClock replaces the time source
func WithClock(clock Clock) TimestampOption {
	return func(t *Timestamp) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// NewTimestamp creates a Timestamp formatter reading the cached clock
func NewTimestamp(opts ...TimestampOption) *Timestamp {
	t := &Timestamp{clock: cachedClock}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Format implements rlog.Formatter
func (t *Timestamp) Format(msg string, _ rlog.Level, _ rlog.CallSite) string {
	buf := make([]byte, 0, len(TimestampLayout)+2+len(msg))
	buf = t.clock().AppendFormat(buf, TimestampLayout)
	buf = append(buf, ": "...)
	buf = append(buf, msg...)
	return string(buf)
}

// Symbols prefixes messages with a symbol string. Warning, error and fatal
// have fixed symbols; every other level uses the configured one.
type Symbols struct {
	symbols string
}

// NewSymbols creates a Symbols formatter
func NewSymbols(symbols string) *Symbols {
	return &Symbols{symbols: symbols}
}

// Format implements rlog.Formatter
func (s *Symbols) Format(msg string, level rlog.Level, _ rlog.CallSite) string {
	symbols := s.symbols
	switch level {
	case rlog.LevelWarning:
		symbols = WarningSymbols
	case rlog.LevelError:
		symbols = ErrorSymbols
	case rlog.LevelFatal:
		symbols = FatalSymbols
	}
	return symbols + " " + msg
}

// CallSite appends "\n\t<file> <function> #<line>"
type CallSite struct{}

// NewCallSite creates a CallSite formatter
func NewCallSite() *CallSite {
	return &CallSite{}
}

// Format implements rlog.Formatter
func (CallSite) Format(msg string, _ rlog.Level, site rlog.CallSite) string {
	buf := make([]byte, 0, len(msg)+64)
	buf = append(buf, msg...)
	buf = append(buf, "\n\t"...)
	buf = append(buf, filepath.Base(site.File)...)
	buf = append(buf, ' ')
	buf = append(buf, site.Function...)
	buf = append(buf, " #"...)
	buf = strconv.AppendInt(buf, int64(site.Line), 10)
	return string(buf)
}

// Chain applies formatters in order as a single formatter
type Chain []rlog.Formatter

// Format implements rlog.Formatter
func (c Chain) Format(msg string, level rlog.Level, site rlog.CallSite) string {
	return rlog.ApplyFormatters(msg, level, site, c...)
}

// Complete returns the Timestamp, Symbols, CallSite chain
func Complete(symbols string, opts ...TimestampOption) Chain {
	return Chain{NewTimestamp(opts...), NewSymbols(symbols), NewCallSite()}
}

// Compile-time interface checks
var (
	_ rlog.Formatter = (*Timestamp)(nil)
	_ rlog.Formatter = (*Symbols)(nil)
	_ rlog.Formatter = CallSite{}
	_ rlog.Formatter = Chain(nil)
)
