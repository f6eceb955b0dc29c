package rlog

import (
	"sync/atomic"
	"time"
)

// defaultDispatcher backs the package-level functions. It starts muted.
var defaultDispatcher atomic.Pointer[Dispatcher]

func init() {
	defaultDispatcher.Store(Mute())
}

// Default returns the dispatcher used by package-level functions
func Default() *Dispatcher {
	return defaultDispatcher.Load()
}

// SetDefault replaces the package-level dispatcher. A nil d restores the
// muted one. The previous dispatcher is returned and is not closed.
func SetDefault(d *Dispatcher) *Dispatcher {
	if d == nil {
		d = Mute()
	}
	return defaultDispatcher.Swap(d)
}

// Log logs through the default dispatcher
func Log(level Level, produce func() Message) {
	d := Default()
	if !d.Accepts(level) {
		return
	}
	d.dispatch(level, Caller(1), produce)
}

// Event logs a structured record through the default dispatcher
func Event(level Level, name string, keyvals ...any) {
	d := Default()
	if !d.Accepts(level) {
		return
	}
	d.dispatch(level, Caller(1), func() Message { return NewStructured(name, keyvals...) })
}

// Verbosef logs at verbose level through the default dispatcher
func Verbosef(format string, args ...any) {
	logfDefault(LevelVerbose, format, args)
}

// Debugf logs at debug level through the default dispatcher
func Debugf(format string, args ...any) {
	logfDefault(LevelDebug, format, args)
}

// Infof logs at info level through the default dispatcher
func Infof(format string, args ...any) {
	logfDefault(LevelInfo, format, args)
}

// Warningf logs at warning level through the default dispatcher
func Warningf(format string, args ...any) {
	logfDefault(LevelWarning, format, args)
}

// Errorf logs at error level through the default dispatcher
func Errorf(format string, args ...any) {
	logfDefault(LevelError, format, args)
}

// Fatalf logs at fatal level through the default dispatcher
func Fatalf(format string, args ...any) {
	logfDefault(LevelFatal, format, args)
}

// Flush flushes the default dispatcher
func Flush(timeout time.Duration) error {
	return Default().Flush(timeout)
}

// logfDefault is shared by the leveled package functions. The call site is
// two frames up: the package function's caller.
func logfDefault(level Level, format string, args []any) {
	d := Default()
	if !d.Accepts(level) {
		return
	}
	d.dispatch(level, Caller(2), sprintf(format, args))
}
