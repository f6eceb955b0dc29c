package sink

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	created := time.Date(2024, 3, 9, 7, 5, 2, 999, time.UTC)

	assert.Equal(t, "app 2024-03-09 07-05-02.log", fileName("app", created, 0))
	assert.Equal(t, "app 2024-03-09 07-05-02-3.log", fileName("app", created, 3))

	// Local times are written in UTC
	local := created.In(time.FixedZone("X", 5*60*60))
	assert.Equal(t, "app 2024-03-09 07-05-02.log", fileName("app", local, 0))
}

func TestParseFileName(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantOK  bool
		wantSeq int
	}{
		{"plain", "app 2024-03-09 07-05-02.log", true, 0},
		{"collision suffix", "app 2024-03-09 07-05-02-12.log", true, 12},
		{"other prefix", "web 2024-03-09 07-05-02.log", false, 0},
		{"prefix is a prefix of another", "application 2024-03-09 07-05-02.log", false, 0},
		{"wrong extension", "app 2024-03-09 07-05-02.txt", false, 0},
		{"bad timestamp", "app 2024-13-09 07-05-02.log", false, 0},
		{"zero suffix", "app 2024-03-09 07-05-02-0.log", false, 0},
		{"garbage suffix", "app 2024-03-09 07-05-02.old.log", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, seq, ok := parseFileName("app", tt.file)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, time.Date(2024, 3, 9, 7, 5, 2, 0, time.UTC), created)
				assert.Equal(t, tt.wantSeq, seq)
			}
		})
	}
}

func TestListRecords(t *testing.T) {
	dir := t.TempDir()

	names := []string{
		"app 2024-03-09 07-05-03.log",
		"app 2024-03-09 07-05-02-1.log",
		"app 2024-03-09 07-05-02.log",
		"app 2023-12-31 23-59-59.log",
		"other 2020-01-01 00-00-00.log",
		"notes.txt",
	}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("abc"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "app 2025-01-01 00-00-00.log"), 0750))

	records, err := listRecords(dir, "app")
	require.NoError(t, err)

	var got []string
	for _, rec := range records {
		got = append(got, rec.Name())
		assert.Equal(t, int64(3), rec.Size)
	}
	assert.Equal(t, []string{
		"app 2023-12-31 23-59-59.log",
		"app 2024-03-09 07-05-02.log",
		"app 2024-03-09 07-05-02-1.log",
		"app 2024-03-09 07-05-03.log",
	}, got)
}

func TestListRecordsMissingDirectory(t *testing.T) {
	records, err := listRecords(filepath.Join(t.TempDir(), "absent"), "app")
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileRecordAge(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := FileRecord{Created: created}
	assert.Equal(t, 90*time.Second, rec.Age(created.Add(90*time.Second)))
}
