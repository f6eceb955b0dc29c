//go:build windows || plan9

package sink

import (
	"github.com/lixenwraith/rlog"
)

// Syslog is unavailable on this platform
type Syslog struct{}

// NewSyslog always fails with ErrSyslogUnsupported
func NewSyslog(opts ...Option) (*Syslog, error) {
	return nil, ErrSyslogUnsupported
}

// Write implements rlog.Sink
func (s *Syslog) Write(rlog.Entry) {}

// Close implements io.Closer
func (s *Syslog) Close() error { return nil }
