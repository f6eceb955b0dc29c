package compat

import (
	"fmt"
	"os"
	"time"

	"github.com/panjf2000/gnet/v2/pkg/logging"

	"github.com/lixenwraith/rlog"
)

// GnetAdapter wraps an rlog.Dispatcher to implement gnet's logging.Logger
type GnetAdapter struct {
	d            *rlog.Dispatcher
	fatalHandler func(msg string) // Customizable fatal behavior
	flushTimeout time.Duration
}

var _ logging.Logger = (*GnetAdapter)(nil)

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(d *rlog.Dispatcher, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		d: d,
		fatalHandler: func(msg string) {
			os.Exit(1) // Default behavior matches gnet expectations
		},
		flushTimeout: 100 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// WithFlushTimeout sets how long Fatalf waits for pending entries
func WithFlushTimeout(timeout time.Duration) GnetOption {
	return func(a *GnetAdapter) {
		a.flushTimeout = timeout
	}
}

// Debugf logs at debug level with printf-style formatting
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.logf(rlog.LevelDebug, format, args)
}

// Infof logs at info level with printf-style formatting
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.logf(rlog.LevelInfo, format, args)
}

// Warnf logs at warning level with printf-style formatting
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.logf(rlog.LevelWarning, format, args)
}

// Errorf logs at error level with printf-style formatting
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.logf(rlog.LevelError, format, args)
}

// Fatalf logs at fatal level, flushes, then triggers the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.d.LogAt(rlog.LevelFatal, rlog.Caller(1), func() rlog.Message {
		return rlog.NewStructured("gnet", "msg", msg, "fatal", true)
	})

	// Ensure log is flushed before exit
	_ = a.d.Flush(a.flushTimeout)

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}

// logf records the caller of the adapter method, formatting only if accepted
func (a *GnetAdapter) logf(level rlog.Level, format string, args []any) {
	a.d.LogAt(level, rlog.Caller(2), func() rlog.Message {
		return rlog.NewStructured("gnet", "msg", fmt.Sprintf(format, args...))
	})
}
