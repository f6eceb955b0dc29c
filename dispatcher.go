package rlog

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// Dispatcher gates log calls by level and enablement and delivers accepted
// entries to its sinks, in registration order, under its Policy
type Dispatcher struct {
	cfg      *Config
	levels   atomic.Uint64
	enabled  atomic.Bool
	closed   atomic.Bool
	sinks    []Sink
	policy   Policy
	delivery delivery

	errorHandler func(error)
}

// syncer is implemented by sinks that buffer or cache output
type syncer interface {
	Sync() error
}

// New creates a Dispatcher from a configuration and an ordered sink list
func New(cfg *Config, sinks ...Sink) (*Dispatcher, error) {
	if cfg == nil {
		return nil, fmtErrorf("configuration cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	levels, err := cfg.LevelSet()
	if err != nil {
		return nil, err
	}

	policy := Synchronous
	if cfg.Async {
		policy = Asynchronous
	}
	return newDispatcher(cfg.Clone(), levels, policy, sinks, nil), nil
}

// newDispatcher assembles a Dispatcher; every constructor goes through here
func newDispatcher(cfg *Config, levels Level, policy Policy, sinks []Sink, onError func(error)) *Dispatcher {
	d := &Dispatcher{
		cfg:          cfg,
		sinks:        append([]Sink(nil), sinks...),
		policy:       policy,
		errorHandler: onError,
	}
	d.levels.Store(uint64(levels))
	d.enabled.Store(cfg.Enabled)
	d.delivery = newDelivery(policy, d.recovered)
	return d
}

// Mute returns a Dispatcher that accepts nothing: level set off, disabled,
// no sinks
func Mute() *Dispatcher {
	cfg := DefaultConfig()
	cfg.Levels = "off"
	cfg.Enabled = false
	cfg.Async = false
	return newDispatcher(cfg, LevelOff, Synchronous, nil, nil)
}

// Policy returns the delivery policy
func (d *Dispatcher) Policy() Policy { return d.policy }

// Levels returns the accepted level set
func (d *Dispatcher) Levels() Level { return Level(d.levels.Load()) }

// SetLevels replaces the accepted level set
func (d *Dispatcher) SetLevels(levels Level) { d.levels.Store(uint64(levels)) }

// Enabled reports the master switch
func (d *Dispatcher) Enabled() bool { return d.enabled.Load() }

// SetEnabled flips the master switch
func (d *Dispatcher) SetEnabled(enabled bool) { d.enabled.Store(enabled) }

// Sinks returns a copy of the sink list
func (d *Dispatcher) Sinks() []Sink {
	return append([]Sink(nil), d.sinks...)
}

// Accepts reports whether a message at level would be delivered
func (d *Dispatcher) Accepts(level Level) bool {
	return d.enabled.Load() && !d.closed.Load() && Level(d.levels.Load()).Contains(level)
}

// Log evaluates produce and delivers the result if level passes the gate.
// produce is not called otherwise.
func (d *Dispatcher) Log(level Level, produce func() Message) {
	if !d.Accepts(level) {
		return
	}
	d.dispatch(level, Caller(1), produce)
}

// LogAt is Log with a caller-supplied call site
func (d *Dispatcher) LogAt(level Level, site CallSite, produce func() Message) {
	if !d.Accepts(level) {
		return
	}
	d.dispatch(level, site, produce)
}

// LogFunc is Log for a producer of plain text
func (d *Dispatcher) LogFunc(level Level, produce func() string) {
	if !d.Accepts(level) {
		return
	}
	d.dispatch(level, Caller(1), func() Message { return Text(produce()) })
}

// Logf formats lazily, only after the gate passes
func (d *Dispatcher) Logf(level Level, format string, args ...any) {
	if !d.Accepts(level) {
		return
	}
	d.dispatch(level, Caller(1), sprintf(format, args))
}

// Event logs a structured record built from alternating keys and values
func (d *Dispatcher) Event(level Level, name string, keyvals ...any) {
	if !d.Accepts(level) {
		return
	}
	d.dispatch(level, Caller(1), func() Message { return NewStructured(name, keyvals...) })
}

// Verbose logs a lazily produced message at verbose level
func (d *Dispatcher) Verbose(produce func() Message) {
	if !d.Accepts(LevelVerbose) {
		return
	}
	d.dispatch(LevelVerbose, Caller(1), produce)
}

// Debug logs a lazily produced message at debug level
func (d *Dispatcher) Debug(produce func() Message) {
	if !d.Accepts(LevelDebug) {
		return
	}
	d.dispatch(LevelDebug, Caller(1), produce)
}

// Info logs a lazily produced message at info level
func (d *Dispatcher) Info(produce func() Message) {
	if !d.Accepts(LevelInfo) {
		return
	}
	d.dispatch(LevelInfo, Caller(1), produce)
}

// Warning logs a lazily produced message at warning level
func (d *Dispatcher) Warning(produce func() Message) {
	if !d.Accepts(LevelWarning) {
		return
	}
	d.dispatch(LevelWarning, Caller(1), produce)
}

// Error logs a lazily produced message at error level
func (d *Dispatcher) Error(produce func() Message) {
	if !d.Accepts(LevelError) {
		return
	}
	d.dispatch(LevelError, Caller(1), produce)
}

// Fatal logs a lazily produced message at fatal level. It does not exit the
// process.
func (d *Dispatcher) Fatal(produce func() Message) {
	if !d.Accepts(LevelFatal) {
		return
	}
	d.dispatch(LevelFatal, Caller(1), produce)
}

// Verbosef logs at verbose level
func (d *Dispatcher) Verbosef(format string, args ...any) {
	if !d.Accepts(LevelVerbose) {
		return
	}
	d.dispatch(LevelVerbose, Caller(1), sprintf(format, args))
}

// Debugf logs at debug level
func (d *Dispatcher) Debugf(format string, args ...any) {
	if !d.Accepts(LevelDebug) {
		return
	}
	d.dispatch(LevelDebug, Caller(1), sprintf(format, args))
}

// Infof logs at info level
func (d *Dispatcher) Infof(format string, args ...any) {
	if !d.Accepts(LevelInfo) {
		return
	}
	d.dispatch(LevelInfo, Caller(1), sprintf(format, args))
}

// Warningf logs at warning level
func (d *Dispatcher) Warningf(format string, args ...any) {
	if !d.Accepts(LevelWarning) {
		return
	}
	d.dispatch(LevelWarning, Caller(1), sprintf(format, args))
}

// Errorf logs at error level
func (d *Dispatcher) Errorf(format string, args ...any) {
	if !d.Accepts(LevelError) {
		return
	}
	d.dispatch(LevelError, Caller(1), sprintf(format, args))
}

// Fatalf logs at fatal level. It does not exit the process.
func (d *Dispatcher) Fatalf(format string, args ...any) {
	if !d.Accepts(LevelFatal) {
		return
	}
	d.dispatch(LevelFatal, Caller(1), sprintf(format, args))
}

// Flush waits for queued entries to be delivered, then syncs sinks that
// support it
func (d *Dispatcher) Flush(timeout time.Duration) error {
	if d.closed.Load() {
		return ErrClosed
	}
	if err := d.delivery.flush(timeout); err != nil {
		return err
	}

	var finalErr error
	for _, s := range d.sinks {
		if sy, ok := s.(syncer); ok {
			if err := sy.Sync(); err != nil {
				finalErr = combineErrors(finalErr, fmtErrorf("failed to sync sink: %w", err))
			}
		}
	}
	return finalErr
}

// Close stops accepting entries, drains pending deliveries and closes every
// sink implementing io.Closer. Safe to call multiple times.
// If no timeout is provided, the configured shutdown timeout is used.
// When the drain times out the sinks are left open, since the lane may still
// be writing to them, and the drain error is returned.
func (d *Dispatcher) Close(timeout ...time.Duration) error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}

	effectiveTimeout := d.cfg.shutdownTimeout()
	if len(timeout) > 0 {
		effectiveTimeout = timeout[0]
	}

	if err := d.delivery.close(effectiveTimeout); err != nil {
		return err
	}

	var finalErr error
	for _, s := range d.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				finalErr = combineErrors(finalErr, fmtErrorf("failed to close sink: %w", err))
			}
		}
	}
	return finalErr
}

// dispatch hands one evaluate-and-deliver unit to the policy
func (d *Dispatcher) dispatch(level Level, site CallSite, produce func() Message) {
	now := time.Now()
	d.delivery.run(func() {
		msg := produce()
		entry := Entry{Level: level, Message: msg, CallSite: site, Time: now}
		for _, s := range d.sinks {
			d.deliver(s, entry)
		}
	})
}

// deliver writes to one sink; a panicking sink does not stop the others
func (d *Dispatcher) deliver(s Sink, entry Entry) {
	defer func() {
		if r := recover(); r != nil {
			d.reportError(fmtErrorf("sink %T panicked: %v", s, r))
		}
	}()
	s.Write(entry)
}

// recovered reports a panic raised by a producer
func (d *Dispatcher) recovered(r any) {
	d.reportError(fmtErrorf("message producer panicked: %v", r))
}

func sprintf(format string, args []any) func() Message {
	return func() Message {
		if len(args) == 0 {
			return Text(format)
		}
		return Text(fmt.Sprintf(format, args...))
	}
}
