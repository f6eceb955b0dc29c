package compat

import (
	"fmt"

	"github.com/lixenwraith/rlog"
	"github.com/lixenwraith/rlog/sink"
)

// Builder creates gnet and fasthttp adapters over one shared dispatcher.
// It uses an existing dispatcher or creates one writing to the console.
type Builder struct {
	d   *rlog.Dispatcher
	cfg *rlog.Config
	err error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithDispatcher specifies an existing dispatcher to use for the adapters.
// If this is set WithConfig is ignored.
func (b *Builder) WithDispatcher(d *rlog.Dispatcher) *Builder {
	if d == nil {
		b.err = fmt.Errorf("rlog/compat: provided dispatcher cannot be nil")
		return b
	}
	b.d = d
	return b
}

// WithConfig provides a configuration for a new console dispatcher, used
// only when no dispatcher was provided
func (b *Builder) WithConfig(cfg *rlog.Config) *Builder {
	b.cfg = cfg
	return b
}

// getDispatcher resolves the dispatcher to be used, creating one if necessary
func (b *Builder) getDispatcher() (*rlog.Dispatcher, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.d != nil {
		return b.d, nil
	}

	cfg := b.cfg
	if cfg == nil {
		cfg = rlog.DefaultConfig()
	}

	d, err := rlog.New(cfg, sink.NewConsole())
	if err != nil {
		return nil, err
	}

	// Cache the newly created dispatcher for subsequent builds
	b.d = d
	return d, nil
}

// BuildGnet creates a gnet adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	d, err := b.getDispatcher()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(d, opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	d, err := b.getDispatcher()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(d, opts...), nil
}

// Dispatcher returns the underlying dispatcher, creating it if needed
func (b *Builder) Dispatcher() (*rlog.Dispatcher, error) {
	return b.getDispatcher()
}
