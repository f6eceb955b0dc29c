package rlog

import (
	"strings"
	"time"
)

// Entry is one accepted log call, built after the gate passes and consumed
// once by every sink
type Entry struct {
	Level    Level
	Message  Message
	CallSite CallSite
	Time     time.Time
}

// Text returns the rendered message text
func (e Entry) Text() string {
	if e.Message == nil {
		return ""
	}
	return e.Message.String()
}

// Sink is an output target for entries.
// Sinks that hold resources also implement io.Closer.
type Sink interface {
	Write(entry Entry)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(entry Entry)

// Write calls f(entry)
func (f SinkFunc) Write(entry Entry) { f(entry) }

// Formatter transforms a message string. Formatters are pure and are applied
// in the order a sink was configured with.
type Formatter interface {
	Format(msg string, level Level, site CallSite) string
}

// FormatterFunc adapts a function to the Formatter interface
type FormatterFunc func(msg string, level Level, site CallSite) string

// Format calls f
func (f FormatterFunc) Format(msg string, level Level, site CallSite) string {
	return f(msg, level, site)
}

// ApplyFormatters runs msg through formatters in order
func ApplyFormatters(msg string, level Level, site CallSite, formatters ...Formatter) string {
	for _, f := range formatters {
		if f != nil {
			msg = f.Format(msg, level, site)
		}
	}
	return msg
}

// Render produces the final line for an entry: truncation, then the
// formatter chain, then a trailing newline if missing
func Render(entry Entry, maxMessageLength int, formatters ...Formatter) string {
	msg := Truncate(entry.Text(), maxMessageLength)
	msg = ApplyFormatters(msg, entry.Level, entry.CallSite, formatters...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	return msg
}
