package sink

import (
	"github.com/lixenwraith/rlog"
)

// RotatingFile writes entries to size, age and count limited files in one
// directory
type RotatingFile struct {
	manager          *FileLifecycleManager
	formatters       []rlog.Formatter
	maxMessageLength int
	report           func(error)
}

// NewRotatingFile creates a rotating file sink. Files are opened lazily on
// the first write.
func NewRotatingFile(cfg *FileConfig, opts ...Option) (*RotatingFile, error) {
	o := applyOptions(opts)

	manager, err := NewFileLifecycleManager(cfg, o.errorHandler)
	if err != nil {
		return nil, err
	}

	return &RotatingFile{
		manager:          manager,
		formatters:       o.formatters,
		maxMessageLength: int(cfg.MaxMessageLength),
		report:           manager.report,
	}, nil
}

// Write implements rlog.Sink. Failures are reported, never returned.
func (s *RotatingFile) Write(entry rlog.Entry) {
	line := rlog.Render(entry, s.maxMessageLength, s.formatters...)
	if _, err := s.manager.Write([]byte(line)); err != nil {
		s.report(err)
	}
}

// Manager exposes the lifecycle manager
func (s *RotatingFile) Manager() *FileLifecycleManager {
	return s.manager
}

// Roll forces the next write to select a file again
func (s *RotatingFile) Roll() error {
	return s.manager.Roll()
}

// Sync flushes the active file
func (s *RotatingFile) Sync() error {
	return s.manager.Sync()
}

// Close releases the file, timer and watch
func (s *RotatingFile) Close() error {
	return s.manager.Close()
}

// Stats returns the lifecycle counters
func (s *RotatingFile) Stats() Stats {
	return s.manager.Stats()
}

var _ rlog.Sink = (*RotatingFile)(nil)
