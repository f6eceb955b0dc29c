package rlog

// Builder provides a fluent API for assembling a Dispatcher.
// The first error is kept and returned by Build.
type Builder struct {
	cfg     *Config
	levels  *Level // set by Levels, takes precedence over cfg.Levels
	sinks   []Sink
	onError func(error)
	err     error
}

// NewBuilder creates a new builder with default values
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates the Dispatcher
func (b *Builder) Build() (*Dispatcher, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	levels, err := b.cfg.LevelSet()
	if err != nil {
		return nil, err
	}
	if b.levels != nil {
		levels = *b.levels
	}

	policy := Synchronous
	if b.cfg.Async {
		policy = Asynchronous
	}
	return newDispatcher(b.cfg.Clone(), levels, policy, b.sinks, b.onError), nil
}

// Config replaces the whole configuration
func (b *Builder) Config(cfg *Config) *Builder {
	if cfg == nil {
		if b.err == nil {
			b.err = fmtErrorf("configuration cannot be nil")
		}
		return b
	}
	b.cfg = cfg.Clone()
	return b
}

// Levels sets the accepted level set. Custom bits are allowed.
func (b *Builder) Levels(levels ...Level) *Builder {
	set := LevelOff.Union(levels...)
	b.levels = &set
	return b
}

// LevelString sets the accepted level set from a list like "info,error"
func (b *Builder) LevelString(levels string) *Builder {
	if b.err != nil {
		return b
	}
	if _, err := ParseLevels(levels); err != nil {
		b.err = err
		return b
	}
	b.cfg.Levels = levels
	b.levels = nil
	return b
}

// Async selects the asynchronous policy
func (b *Builder) Async(async bool) *Builder {
	b.cfg.Async = async
	return b
}

// Enabled sets the master switch
func (b *Builder) Enabled(enabled bool) *Builder {
	b.cfg.Enabled = enabled
	return b
}

// ShutdownTimeoutMs sets how long Close waits for the async lane
func (b *Builder) ShutdownTimeoutMs(ms int64) *Builder {
	b.cfg.ShutdownTimeoutMs = ms
	return b
}

// InternalErrorsToStderr reports internal failures on stderr
func (b *Builder) InternalErrorsToStderr(enable bool) *Builder {
	b.cfg.InternalErrorsToStderr = enable
	return b
}

// ErrorHandler receives internal failures instead of stderr
func (b *Builder) ErrorHandler(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// Sink appends a sink. Delivery follows the order sinks are added.
func (b *Builder) Sink(s Sink) *Builder {
	if s == nil {
		if b.err == nil {
			b.err = fmtErrorf("sink cannot be nil")
		}
		return b
	}
	b.sinks = append(b.sinks, s)
	return b
}
