package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")

	l.Info("hidden")
	l.Warn("shown", "track", 7)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "track=7")
}

func TestNew_UnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "loud")

	l.Debug("debug line")
	l.Info("info line")
	assert.NotContains(t, buf.String(), "debug line")
	assert.Contains(t, buf.String(), "info line")
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	Component(New(&buf, "info"), "playback").Info("loaded")
	assert.Contains(t, buf.String(), "component=playback")

	// A nil parent logs nowhere instead of panicking.
	Component(nil, "downloads").Error("ignored")
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openspot.log")
	w, closeFn, err := OpenFile(path)
	require.NoError(t, err)

	New(w, "info").Info("hello")
	require.NoError(t, closeFn())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "hello")

	w, closeFn, err = OpenFile("")
	require.NoError(t, err)
	assert.Equal(t, os.Stderr, w)
	assert.NoError(t, closeFn())
}
