package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig()

	assert.Equal(t, AppID(), cfg.Prefix)
	assert.Equal(t, DefaultDirectory(AppID()), cfg.Directory)
	assert.Equal(t, "logs", filepath.Base(cfg.Directory))
	assert.Equal(t, int64(1024*1024), cfg.MaxFileSizeBytes)
	assert.Equal(t, int64(86400), cfg.MaxFileAgeSeconds)
	assert.Equal(t, int64(5), cfg.MaxFileCount)
	assert.NoError(t, cfg.Validate())
}

func TestFileConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*FileConfig)
		wantError string
	}{
		{"defaults", func(c *FileConfig) {}, ""},
		{"empty directory", func(c *FileConfig) { c.Directory = " " }, "directory cannot be empty"},
		{"empty prefix", func(c *FileConfig) { c.Prefix = "" }, "prefix cannot be empty"},
		{"prefix with separator", func(c *FileConfig) { c.Prefix = "a/b" }, "path separators"},
		{"negative size", func(c *FileConfig) { c.MaxFileSizeBytes = -1 }, "cannot be negative"},
		{"negative age", func(c *FileConfig) { c.MaxFileAgeSeconds = -1 }, "cannot be negative"},
		{"negative length", func(c *FileConfig) { c.MaxMessageLength = -1 }, "cannot be negative"},
		{"zero count", func(c *FileConfig) { c.MaxFileCount = 0 }, "max_file_count"},
		{"limits disabled", func(c *FileConfig) {
			c.MaxFileSizeBytes = 0
			c.MaxFileAgeSeconds = 0
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultFileConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantError)
		})
	}
}

func TestNewFileConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.toml")
	content := `
[log.file]
directory = "` + filepath.ToSlash(filepath.Join(dir, "out")) + `"
prefix = "svc"
max_file_count = 3
max_message_length = 120
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := NewFileConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.ToSlash(filepath.Join(dir, "out")), cfg.Directory)
	assert.Equal(t, "svc", cfg.Prefix)
	assert.Equal(t, int64(3), cfg.MaxFileCount)
	assert.Equal(t, int64(120), cfg.MaxMessageLength)
	assert.Equal(t, int64(DefaultMaxFileSizeBytes), cfg.MaxFileSizeBytes, "unset keys keep defaults")
}

func TestNewFileConfigFromMissingFile(t *testing.T) {
	cfg, err := NewFileConfigFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultFileConfig(), cfg)
}

func TestFileConfigApplyConfigString(t *testing.T) {
	base := DefaultFileConfig()

	cfg, err := base.ApplyConfigString("prefix=web", "max_file_count = 9")
	require.NoError(t, err)
	assert.Equal(t, "web", cfg.Prefix)
	assert.Equal(t, int64(9), cfg.MaxFileCount)
	assert.Equal(t, AppID(), base.Prefix, "receiver is not modified")

	_, err = base.ApplyConfigString("max_file_count=0")
	assert.Error(t, err)

	_, err = base.ApplyConfigString("colour=blue", "max_file_count=x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple configuration errors")
}
