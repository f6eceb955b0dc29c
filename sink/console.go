package sink

import (
	"io"
	"sync"

	"github.com/lixenwraith/rlog"
)

// Console writes one formatted line per entry to a writer, stdout by default
type Console struct {
	mu               sync.Mutex
	w                io.Writer
	formatters       []rlog.Formatter
	maxMessageLength int
	report           func(error)
}

// NewConsole creates a console sink
func NewConsole(opts ...Option) *Console {
	o := applyOptions(opts)
	return &Console{
		w:                o.writer,
		formatters:       o.formatters,
		maxMessageLength: o.maxMessageLength,
		report:           newReporter(o.errorHandler, false),
	}
}

// Write implements rlog.Sink
func (c *Console) Write(entry rlog.Entry) {
	line := rlog.Render(entry, c.maxMessageLength, c.formatters...)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := io.WriteString(c.w, line); err != nil {
		c.report(fmtErrorf("console write failed: %w", err))
	}
}

var _ rlog.Sink = (*Console)(nil)
