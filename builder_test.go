package rlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Build(t *testing.T) {
	t.Run("successful build returns configured dispatcher", func(t *testing.T) {
		sink := &recordingSink{}
		d, err := NewBuilder().
			LevelString("info,error").
			Async(true).
			ShutdownTimeoutMs(100).
			Sink(sink).
			Build()
		require.NoError(t, err)
		defer d.Close()

		assert.Equal(t, LevelInfo|LevelError, d.Levels())
		assert.Equal(t, Asynchronous, d.Policy())
		assert.Equal(t, int64(100), d.cfg.ShutdownTimeoutMs)
		assert.Len(t, d.Sinks(), 1)
	})

	t.Run("builder error accumulation", func(t *testing.T) {
		d, err := NewBuilder().
			LevelString("invalid-level-string").
			Sink(nil).
			Build()

		require.Error(t, err)
		assert.Nil(t, d)
		assert.ErrorIs(t, err, ErrInvalidLevel, "first error is kept")
	})

	t.Run("nil sink", func(t *testing.T) {
		_, err := NewBuilder().Sink(nil).Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sink cannot be nil")
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewBuilder().Config(nil).Build()
		assert.Error(t, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewBuilder().ShutdownTimeoutMs(-1).Build()
		assert.Error(t, err)
	})
}

func TestBuilderLevelsKeepsCustomBits(t *testing.T) {
	custom := CustomLevel(40)
	d, err := NewBuilder().Levels(LevelWarning, custom).Build()
	require.NoError(t, err)
	defer d.Close()

	assert.True(t, d.Accepts(custom))
	assert.True(t, d.Accepts(LevelWarning))
	assert.False(t, d.Accepts(LevelInfo))
}

func TestBuilderLevelStringOverridesLevels(t *testing.T) {
	d, err := NewBuilder().Levels(LevelFatal).LevelString("debug").Build()
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, LevelDebug, d.Levels())
}

func TestBuilderConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Levels = "warning"
	cfg.Enabled = false

	b := NewBuilder().Config(cfg)
	cfg.Levels = "all" // builder holds its own copy

	d, err := b.Build()
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, LevelWarning, d.Levels())
	assert.False(t, d.Enabled())
}

func TestBuilderErrorHandler(t *testing.T) {
	errs := &errorCollector{}
	d, err := NewBuilder().
		ErrorHandler(errs.handle).
		Sink(SinkFunc(func(Entry) { panic("bad sink") })).
		Build()
	require.NoError(t, err)
	defer d.Close()

	d.Errorf("x")
	assert.Len(t, errs.all(), 1)
}
