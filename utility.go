package rlog

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// Sentinel errors
var (
	ErrClosed       = errors.New("rlog: dispatcher is closed")
	ErrInvalidLevel = errors.New("rlog: invalid level")
)

// TruncationMarker is appended to messages cut by Truncate
const TruncationMarker = "<…>"

// Truncate cuts msg to maxLen runes and appends TruncationMarker.
// A maxLen of zero or less disables truncation.
func Truncate(msg string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(msg) <= maxLen {
		return msg
	}

	count := 0
	for i := range msg {
		if count == maxLen {
			return msg[:i] + TruncationMarker
		}
		count++
	}
	return msg
}

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "rlog: ") {
		format = "rlog: " + format
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

// reportError delivers an internal failure to the configured handler, or to
// stderr when enabled. Internal failures never go through the dispatcher itself.
func (d *Dispatcher) reportError(err error) {
	if err == nil {
		return
	}
	if d.errorHandler != nil {
		d.errorHandler(err)
		return
	}
	if d.cfg.InternalErrorsToStderr {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
}
