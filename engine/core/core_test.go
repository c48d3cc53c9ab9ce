package core

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesCategoryAndLevel(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	l, err := NewLogger(&buf, LogConfig{Level: "info", Prefix: "test"})
	require.NoError(t, err)

	LogWarning(l, "Gfx", "Setting scratch texture size to %dx%d", 512, 512)
	out := buf.String()
	assert.Contains(out, "Setting scratch texture size to 512x512")
	assert.Contains(out, "cat=Gfx")
	assert.Contains(out, "WARN")
}

func TestLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, LogConfig{Level: "loud"})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestLogHelpersTolerateNilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		LogCritical(nil, "Gfx", "nothing to see")
		LogNotice(NopLogger, "Gfx", "nothing %s", "either")
	})
}

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "vidgfx.toml")
	data := []byte(`
[log]
level = "debug"

[renderer]
canvas_width = 1280
canvas_height = 720
scratch_initial = 256
validation = true
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal("debug", cfg.Log.Level)
	assert.Equal("vidgfx", cfg.Log.Prefix)
	assert.Equal(1280, cfg.Renderer.CanvasWidth)
	assert.Equal(720, cfg.Renderer.CanvasHeight)
	assert.Equal(256, cfg.Renderer.ScratchInitial)
	assert.Equal(1280, cfg.Renderer.ScreenWidth)
	assert.True(cfg.Renderer.Validation)
}

func TestLoadConfigValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vidgfx.toml")
	require.NoError(t, os.WriteFile(path, []byte("[renderer]\nscratch_initial = 0\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestIdentifiers(t *testing.T) {
	assert := assert.New(t)

	ids := NewIdentifiers()
	a := ids.Acquire("texture")
	b := ids.Acquire("buffer")
	assert.NotEqual(a, b)
	assert.Equal(2, ids.Len())

	assert.NoError(ids.Release(a))
	assert.Error(ids.Release(a))
	assert.Equal([]string{"buffer:" + b.String()}, ids.Live())
}

func TestClockAccumulates(t *testing.T) {
	assert := assert.New(t)
	base := time.Unix(100, 0)
	now := base
	c := NewClock()
	c.now = func() time.Time { return now }

	assert.Zero(c.Elapsed())
	c.Start()
	assert.True(c.Running())
	now = now.Add(2 * time.Second)
	assert.Equal(2*time.Second, c.Elapsed())
	// starting twice keeps the first start
	c.Start()
	now = now.Add(time.Second)
	assert.Equal(3*time.Second, c.Stop())
	assert.False(c.Running())

	now = now.Add(time.Hour)
	assert.Equal(3*time.Second, c.Elapsed())
	c.Start()
	now = now.Add(time.Second)
	assert.Equal(4*time.Second, c.Stop())

	c.Reset()
	assert.Zero(c.Elapsed())
}
