package sink

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Sentinel errors
var (
	ErrClosed            = errors.New("rlog/sink: sink is closed")
	ErrSyslogUnsupported = errors.New("rlog/sink: syslog is not supported on this platform")
)

// ErrorHandler receives internal sink failures
type ErrorHandler func(error)

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "rlog/sink: ") {
		format = "rlog/sink: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%v; %w", err1, err2)
}

// newReporter returns the error path for a sink: the handler when set,
// stderr when enabled, otherwise nothing. A panicking handler is contained.
func newReporter(handler ErrorHandler, toStderr bool) func(error) {
	return func(err error) {
		if err == nil {
			return
		}
		if handler != nil {
			defer func() { _ = recover() }()
			handler(err)
			return
		}
		if toStderr {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
	}
}
