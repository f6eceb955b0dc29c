//go:build !windows && !plan9

package sink

import (
	"log/syslog"
	"strings"

	"github.com/lixenwraith/rlog"
)

// Syslog forwards entries to the system log
type Syslog struct {
	w                *syslog.Writer
	formatters       []rlog.Formatter
	maxMessageLength int
	report           func(error)
}

// NewSyslog connects to the local syslog daemon, or to the address set with
// WithSyslogAddress
func NewSyslog(opts ...Option) (*Syslog, error) {
	o := applyOptions(opts)

	w, err := syslog.Dial(o.syslogNetwork, o.syslogAddr, syslog.LOG_INFO|syslog.LOG_USER, o.syslogTag)
	if err != nil {
		return nil, fmtErrorf("failed to connect to syslog: %w", err)
	}

	return &Syslog{
		w:                w,
		formatters:       o.formatters,
		maxMessageLength: o.maxMessageLength,
		report:           newReporter(o.errorHandler, false),
	}, nil
}

// Write implements rlog.Sink
func (s *Syslog) Write(entry rlog.Entry) {
	msg := rlog.Truncate(entry.Text(), s.maxMessageLength)
	msg = rlog.ApplyFormatters(msg, entry.Level, entry.CallSite, s.formatters...)
	msg = strings.TrimSuffix(msg, "\n")

	var err error
	switch priorityFor(entry.Level) {
	case syslog.LOG_DEBUG:
		err = s.w.Debug(msg)
	case syslog.LOG_INFO:
		err = s.w.Info(msg)
	case syslog.LOG_WARNING:
		err = s.w.Warning(msg)
	case syslog.LOG_ERR:
		err = s.w.Err(msg)
	case syslog.LOG_CRIT:
		err = s.w.Crit(msg)
	default:
		err = s.w.Notice(msg)
	}
	if err != nil {
		s.report(fmtErrorf("syslog write failed: %w", err))
	}
}

// priorityFor maps a severity to a syslog priority. Verbose and custom
// levels map to notice.
func priorityFor(level rlog.Level) syslog.Priority {
	switch level {
	case rlog.LevelDebug:
		return syslog.LOG_DEBUG
	case rlog.LevelInfo:
		return syslog.LOG_INFO
	case rlog.LevelWarning:
		return syslog.LOG_WARNING
	case rlog.LevelError:
		return syslog.LOG_ERR
	case rlog.LevelFatal:
		return syslog.LOG_CRIT
	default:
		return syslog.LOG_NOTICE
	}
}

// Close closes the syslog connection
func (s *Syslog) Close() error {
	return s.w.Close()
}

var _ rlog.Sink = (*Syslog)(nil)
