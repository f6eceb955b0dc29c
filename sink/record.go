package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// fileTimeLayout is the UTC timestamp embedded in log file names
const fileTimeLayout = "2006-01-02 15-04-05"

// fileExt is the extension of every log file
const fileExt = ".log"

// FileRecord describes one log file on disk
type FileRecord struct {
	Path    string
	Created time.Time
	Size    int64

	seq int // collision suffix within the same second
}

// Name returns the base file name
func (r FileRecord) Name() string {
	return filepath.Base(r.Path)
}

// Age returns the time elapsed since creation
func (r FileRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.Created)
}

// olderThan orders records by creation time, then collision suffix
func (r FileRecord) olderThan(o FileRecord) bool {
	if !r.Created.Equal(o.Created) {
		return r.Created.Before(o.Created)
	}
	if r.seq != o.seq {
		return r.seq < o.seq
	}
	return r.Path < o.Path
}

// fileName builds "<prefix> <yyyy-MM-dd HH-mm-ss>[-seq].log" in UTC
func fileName(prefix string, created time.Time, seq int) string {
	stamp := created.UTC().Format(fileTimeLayout)
	if seq > 0 {
		return fmt.Sprintf("%s %s-%d%s", prefix, stamp, seq, fileExt)
	}
	return prefix + " " + stamp + fileExt
}

// parseFileName extracts the creation time and collision suffix from a name
// produced by fileName. ok is false for names not owned by prefix.
func parseFileName(prefix, name string) (created time.Time, seq int, ok bool) {
	head := prefix + " "
	if !strings.HasPrefix(name, head) || !strings.HasSuffix(name, fileExt) {
		return time.Time{}, 0, false
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(name, head), fileExt)
	if len(rest) < len(fileTimeLayout) {
		return time.Time{}, 0, false
	}

	created, err := time.ParseInLocation(fileTimeLayout, rest[:len(fileTimeLayout)], time.UTC)
	if err != nil {
		return time.Time{}, 0, false
	}

	suffix := rest[len(fileTimeLayout):]
	if suffix == "" {
		return created, 0, true
	}
	if !strings.HasPrefix(suffix, "-") {
		return time.Time{}, 0, false
	}
	seq, err = strconv.Atoi(suffix[1:])
	if err != nil || seq <= 0 {
		return time.Time{}, 0, false
	}
	return created, seq, true
}

// listRecords returns the log files of prefix in dir, oldest first.
// A missing directory yields no records.
func listRecords(dir, prefix string) ([]FileRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmtErrorf("failed to read log directory '%s': %w", dir, err)
	}

	var records []FileRecord
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		created, seq, ok := parseFileName(prefix, entry.Name())
		if !ok {
			continue
		}
		info, errInfo := entry.Info()
		if errInfo != nil {
			continue
		}
		records = append(records, FileRecord{
			Path:    filepath.Join(dir, entry.Name()),
			Created: created,
			Size:    info.Size(),
			seq:     seq,
		})
	}

	sort.Slice(records, func(i, j int) bool { return records[i].olderThan(records[j]) })
	return records, nil
}
