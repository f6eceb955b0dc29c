package sink

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// maxNameCollisions bounds the suffixes tried for files created in the same second
const maxNameCollisions = 1000

// Stats is a snapshot of file lifecycle counters
type Stats struct {
	FilesCreated  uint64
	FilesReused   uint64
	Rotations     uint64
	Deletions     uint64
	BytesWritten  uint64
	DroppedWrites uint64
}

// FileLifecycleManager owns the active file of a rotating sink: it picks or
// creates the file, rolls it by size, age or external removal, and enforces
// the file count limit. All state is guarded by its own mutex since rolls
// arrive from the write path, the age timer and the directory watch.
type FileLifecycleManager struct {
	cfg    FileConfig
	dir    string
	report func(error)
	now    func() time.Time

	mu          sync.Mutex
	file        *os.File
	record      *FileRecord
	offset      int64
	timer       *time.Timer
	timerGen    uint64
	watch       *dirWatch
	watchFailed bool
	watchStale  bool
	retired     []*dirWatch
	pending     []error
	closed      bool

	filesCreated  atomic.Uint64
	filesReused   atomic.Uint64
	rotations     atomic.Uint64
	deletions     atomic.Uint64
	bytesWritten  atomic.Uint64
	droppedWrites atomic.Uint64
}

// NewFileLifecycleManager validates cfg and creates a manager. No file is
// touched until the first write or CurrentFile call.
func NewFileLifecycleManager(cfg *FileConfig, onError ErrorHandler) (*FileLifecycleManager, error) {
	if cfg == nil {
		return nil, fmtErrorf("configuration cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &FileLifecycleManager{
		cfg:    *cfg,
		dir:    filepath.Clean(cfg.Directory),
		report: newReporter(onError, cfg.InternalErrorsToStderr),
		now:    time.Now,
	}, nil
}

// Config returns a copy of the configuration
func (m *FileLifecycleManager) Config() FileConfig {
	return m.cfg
}

// CurrentFile returns the active file, running the selection policy when no
// file is open
func (m *FileLifecycleManager) CurrentFile() (FileRecord, error) {
	m.mu.Lock()
	defer m.unlock()

	if m.closed {
		return FileRecord{}, ErrClosed
	}
	if err := m.ensureOpenLocked(); err != nil {
		return FileRecord{}, err
	}

	rec := *m.record
	rec.Size = m.offset
	return rec, nil
}

// ActivePath returns the path of the open file, or "" when none is open
func (m *FileLifecycleManager) ActivePath() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.record == nil {
		return ""
	}
	return m.record.Path
}

// Write appends p to the active file, then rolls it if the size limit is
// reached
func (m *FileLifecycleManager) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.unlock()

	if m.closed {
		m.droppedWrites.Add(1)
		return 0, ErrClosed
	}
	if err := m.ensureOpenLocked(); err != nil {
		m.droppedWrites.Add(1)
		return 0, err
	}

	n, err := m.file.Write(p)
	m.offset += int64(n)
	m.bytesWritten.Add(uint64(n))
	if err != nil {
		m.droppedWrites.Add(1)
		err = fmtErrorf("failed to write log file '%s': %w", m.record.Path, err)
	}

	if m.cfg.MaxFileSizeBytes > 0 && m.offset >= m.cfg.MaxFileSizeBytes {
		err = combineErrors(err, m.rollLocked())
	}
	return n, err
}

// Roll closes the active file so the next write selects a file again.
// Without an active file it does nothing.
func (m *FileLifecycleManager) Roll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rollLocked()
}

// Sync flushes the active file to disk
func (m *FileLifecycleManager) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file == nil {
		return nil
	}
	if err := m.file.Sync(); err != nil {
		return fmtErrorf("failed to sync log file '%s': %w", m.record.Path, err)
	}
	return nil
}

// Close syncs and closes the active file, cancels the age timer and stops
// the directory watch. Safe to call multiple times.
func (m *FileLifecycleManager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	finalErr := m.closeHandleLocked()
	watches := m.retired
	if m.watch != nil {
		watches = append(watches, m.watch)
	}
	m.watch = nil
	m.retired = nil
	m.unlock()

	// The watch loop takes m.mu, so it is stopped without holding it
	for _, w := range watches {
		if err := w.close(); err != nil {
			finalErr = combineErrors(finalErr, fmtErrorf("failed to close watcher: %w", err))
		}
	}
	return finalErr
}

// unlock releases m.mu, then reports the errors queued while it was held.
// The handler may log back into this sink, so it never runs under the lock.
func (m *FileLifecycleManager) unlock() {
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, err := range pending {
		m.report(err)
	}
}

// reportLocked queues err for unlock
func (m *FileLifecycleManager) reportLocked(err error) {
	if err != nil {
		m.pending = append(m.pending, err)
	}
}

// Records lists this sink's files in the directory, oldest first
func (m *FileLifecycleManager) Records() ([]FileRecord, error) {
	return listRecords(m.dir, m.cfg.Prefix)
}

// ReusableBySize reports whether rec is below the size limit
func (m *FileLifecycleManager) ReusableBySize(rec FileRecord) bool {
	return m.cfg.MaxFileSizeBytes <= 0 || rec.Size < m.cfg.MaxFileSizeBytes
}

// ReusableByAge reports whether rec is younger than the age limit
func (m *FileLifecycleManager) ReusableByAge(rec FileRecord) bool {
	return m.cfg.MaxFileAgeSeconds <= 0 || rec.Age(m.now()) < m.maxAge()
}

// Reusable reports whether rec may be appended to instead of creating a file
func (m *FileLifecycleManager) Reusable(rec FileRecord) bool {
	return m.ReusableBySize(rec) && m.ReusableByAge(rec) && writable(rec.Path)
}

// Stats returns a snapshot of the counters
func (m *FileLifecycleManager) Stats() Stats {
	return Stats{
		FilesCreated:  m.filesCreated.Load(),
		FilesReused:   m.filesReused.Load(),
		Rotations:     m.rotations.Load(),
		Deletions:     m.deletions.Load(),
		BytesWritten:  m.bytesWritten.Load(),
		DroppedWrites: m.droppedWrites.Load(),
	}
}

func (m *FileLifecycleManager) maxAge() time.Duration {
	return time.Duration(m.cfg.MaxFileAgeSeconds) * time.Second
}

// ensureOpenLocked makes sure a handle and its record are cached
func (m *FileLifecycleManager) ensureOpenLocked() error {
	if m.file != nil {
		if m.watch != nil && !m.watchStale {
			return nil
		}
		// Without a live watch, check for out-of-band removal on each use
		if m.stillPresentLocked() {
			return nil
		}
		m.reportLocked(m.rollLocked())
	}

	file, rec, err := m.selectFileLocked()
	if err != nil {
		return err
	}

	offset := rec.Size
	if info, errStat := file.Stat(); errStat == nil {
		offset = info.Size()
	}

	m.file = file
	m.record = &rec
	m.offset = offset

	m.startWatchLocked()
	m.scheduleAgeTimerLocked()
	return nil
}

// stillPresentLocked reports whether the open handle still refers to the
// file at the record path
func (m *FileLifecycleManager) stillPresentLocked() bool {
	onDisk, err := os.Stat(m.record.Path)
	if err != nil {
		return false
	}
	open, err := m.file.Stat()
	if err != nil {
		return false
	}
	return os.SameFile(onDisk, open)
}

// selectFileLocked reuses the newest file when allowed, otherwise creates one
func (m *FileLifecycleManager) selectFileLocked() (*os.File, FileRecord, error) {
	records, err := listRecords(m.dir, m.cfg.Prefix)
	if err != nil {
		m.reportLocked(err)
	}

	if n := len(records); n > 0 {
		candidate := records[n-1]
		if m.Reusable(candidate) {
			file, err := os.OpenFile(candidate.Path, os.O_WRONLY|os.O_APPEND, 0)
			if err == nil {
				m.filesReused.Add(1)
				return file, candidate, nil
			}
			m.reportLocked(fmtErrorf("failed to reopen log file '%s': %w", candidate.Path, err))
		}
	}

	return m.createLocked()
}

// createLocked creates a new file named after the current UTC second, then
// enforces the file count limit
func (m *FileLifecycleManager) createLocked() (*os.File, FileRecord, error) {
	if err := os.MkdirAll(m.dir, 0750); err != nil {
		return nil, FileRecord{}, fmtErrorf("failed to create log directory '%s': %w", m.dir, err)
	}

	created := m.now().UTC().Truncate(time.Second)
	for seq := 0; seq < maxNameCollisions; seq++ {
		path := filepath.Join(m.dir, fileName(m.cfg.Prefix, created, seq))
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			m.filesCreated.Add(1)
			m.enforceRetentionLocked()
			return file, FileRecord{Path: path, Created: created, seq: seq}, nil
		}
		if !os.IsExist(err) {
			return nil, FileRecord{}, fmtErrorf("failed to create log file '%s': %w", path, err)
		}
	}
	return nil, FileRecord{}, fmtErrorf("too many log files created within one second in '%s'", m.dir)
}

// enforceRetentionLocked deletes the oldest files until at most MaxFileCount
// remain. Deletion failures are reported and skipped.
func (m *FileLifecycleManager) enforceRetentionLocked() {
	records, err := listRecords(m.dir, m.cfg.Prefix)
	if err != nil {
		m.reportLocked(err)
		return
	}

	for int64(len(records)) > m.cfg.MaxFileCount {
		oldest := records[0]
		records = records[1:]
		if err := os.Remove(oldest.Path); err != nil {
			m.reportLocked(fmtErrorf("failed to remove old log file '%s': %w", oldest.Path, err))
			continue
		}
		m.deletions.Add(1)
	}
}

// rollLocked closes the active file. Idempotent.
func (m *FileLifecycleManager) rollLocked() error {
	if m.file == nil {
		return nil
	}
	err := m.closeHandleLocked()
	m.rotations.Add(1)
	return err
}

// closeHandleLocked syncs and closes the handle and clears the cached
// record together with it
func (m *FileLifecycleManager) closeHandleLocked() error {
	m.stopTimerLocked()
	if m.file == nil {
		return nil
	}

	var finalErr error
	name := m.record.Path
	if err := m.file.Sync(); err != nil {
		finalErr = combineErrors(finalErr, fmtErrorf("failed to sync log file '%s': %w", name, err))
	}
	if err := m.file.Close(); err != nil {
		finalErr = combineErrors(finalErr, fmtErrorf("failed to close log file '%s': %w", name, err))
	}

	m.file = nil
	m.record = nil
	m.offset = 0
	return finalErr
}

// scheduleAgeTimerLocked arms the one-shot age timer for the active file,
// replacing any earlier one
func (m *FileLifecycleManager) scheduleAgeTimerLocked() {
	m.stopTimerLocked()
	if m.cfg.MaxFileAgeSeconds <= 0 || m.record == nil {
		return
	}

	delay := m.maxAge() - m.record.Age(m.now())
	if delay < 0 {
		delay = 0
	}
	gen := m.timerGen
	m.timer = time.AfterFunc(delay, func() { m.ageTimerFired(gen) })
}

// stopTimerLocked cancels the age timer; a callback already running sees a
// newer generation and returns
func (m *FileLifecycleManager) stopTimerLocked() {
	m.timerGen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// ageTimerFired rolls the file if it reached the age limit, otherwise
// re-arms for the remaining time
func (m *FileLifecycleManager) ageTimerFired(gen uint64) {
	m.mu.Lock()
	defer m.unlock()

	if m.closed || gen != m.timerGen || m.record == nil {
		return
	}

	remaining := m.maxAge() - m.record.Age(m.now())
	if remaining <= 0 {
		m.reportLocked(m.rollLocked())
		return
	}
	m.timer = time.AfterFunc(remaining, func() { m.ageTimerFired(gen) })
}

// startWatchLocked starts the directory watch once. On failure the manager
// falls back to checking the file on every write.
func (m *FileLifecycleManager) startWatchLocked() {
	if m.watch != nil && m.watchStale {
		// The watched directory itself went away; replace the watch.
		// Its loop is stopped now and released by Close.
		m.watch.stop()
		m.retired = append(m.retired, m.watch)
		m.watch = nil
		m.watchStale = false
	}
	if m.watch != nil || m.watchFailed {
		return
	}

	w, err := newDirWatch(m.dir, m.fileGone, m.report)
	if err != nil {
		m.watchFailed = true
		m.reportLocked(err)
		return
	}
	m.watch = w
}

// fileGone is the watch callback for removed or renamed paths
func (m *FileLifecycleManager) fileGone(path string) {
	m.mu.Lock()
	defer m.unlock()

	if m.closed {
		return
	}
	if path == m.dir {
		m.watchStale = true
		m.reportLocked(m.rollLocked())
		return
	}
	if m.record != nil && path == m.record.Path {
		m.reportLocked(m.rollLocked())
	}
}
