package logger

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	defer func() { _ = SetLevel("info") }()

	require.NoError(t, SetLevel("debug"))
	assert.Equal(t, log.DebugLevel, Logger.GetLevel())

	require.NoError(t, SetLevel("Warning"))
	assert.Equal(t, log.WarnLevel, Logger.GetLevel())

	require.NoError(t, SetLevel(""))
	assert.Equal(t, log.InfoLevel, Logger.GetLevel())

	assert.Error(t, SetLevel("verbose"))
	assert.Equal(t, log.InfoLevel, Logger.GetLevel())
}

func TestLogFileName(t *testing.T) {
	ts := time.Date(2024, 3, 7, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "noreveal_20240307.log", LogFileName(ts))
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	write := func(name string, age time.Duration) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		mod := now.Add(-age)
		require.NoError(t, os.Chtimes(path, mod, mod))
		return path
	}

	fresh := write("noreveal_20240110.log", 2*24*time.Hour)
	stale := write("noreveal_20240101.log", 8*24*time.Hour)
	other := write("unrelated.log", 30*24*time.Hour)

	removed, err := CleanupOldLogs(dir, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.FileExists(t, fresh)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, other)
}

func TestFileLogging(t *testing.T) {
	dir := t.TempDir()

	var console bytes.Buffer
	SetConsole(&console)
	defer SetConsole(os.Stderr)

	path, err := SetupFileLogging(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, LogFileName(time.Now())), path)

	Info("written to both")
	SetConsole(io.Discard)
	Info("file only")
	require.NoError(t, CloseFileLogging())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to both")
	assert.Contains(t, string(data), "file only")
	assert.Contains(t, console.String(), "written to both")
	assert.NotContains(t, console.String(), "file only")
}

func TestFileLoggingRollsOverAtMidnight(t *testing.T) {
	dir := t.TempDir()
	SetConsole(io.Discard)
	defer SetConsole(os.Stderr)

	current := time.Date(2024, 3, 7, 23, 59, 30, 0, time.Local)
	now = func() time.Time { return current }
	defer func() { now = time.Now }()

	path, err := SetupFileLogging(dir)
	require.NoError(t, err)
	defer CloseFileLogging()
	assert.Equal(t, filepath.Join(dir, "noreveal_20240307.log"), path)

	Info("before midnight")
	current = current.Add(time.Minute)
	Info("after midnight")

	first, err := os.ReadFile(path)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, "noreveal_20240308.log"))
	require.NoError(t, err)

	assert.Contains(t, string(first), "before midnight")
	assert.NotContains(t, string(first), "after midnight")
	assert.Contains(t, string(second), "after midnight")
}
