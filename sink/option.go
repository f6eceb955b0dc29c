package sink

import (
	"io"
	"os"

	"github.com/lixenwraith/rlog"
)

// options collects the settings shared by the sink constructors.
// Each constructor reads the fields that apply to it.
type options struct {
	writer           io.Writer
	formatters       []rlog.Formatter
	maxMessageLength int
	errorHandler     ErrorHandler
	syslogNetwork    string
	syslogAddr       string
	syslogTag        string
}

// Option customizes a sink
type Option func(*options)

func defaultOptions() *options {
	return &options{
		writer: os.Stdout,
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithFormatters sets the formatter chain, applied in the given order
func WithFormatters(formatters ...rlog.Formatter) Option {
	return func(o *options) {
		o.formatters = append([]rlog.Formatter(nil), formatters...)
	}
}

// WithMaxMessageLength truncates console and syslog messages to n runes.
// The file sink takes its limit from FileConfig.
func WithMaxMessageLength(n int) Option {
	return func(o *options) {
		o.maxMessageLength = n
	}
}

// WithWriter sets the console destination
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.writer = w
		}
	}
}

// WithErrorHandler receives internal sink failures
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		o.errorHandler = h
	}
}

// WithSyslogAddress dials a remote syslog daemon instead of the local one
func WithSyslogAddress(network, addr string) Option {
	return func(o *options) {
		o.syslogNetwork = network
		o.syslogAddr = addr
	}
}

// WithSyslogTag sets the syslog tag, the program name by default
func WithSyslogTag(tag string) Option {
	return func(o *options) {
		o.syslogTag = tag
	}
}
