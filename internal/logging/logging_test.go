package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, 10, cfg.MaxSizeMB)
	assert.Equal(t, 3, cfg.MaxFiles)
	assert.False(t, cfg.WriteToStderr)
	assert.True(t, strings.HasSuffix(cfg.FilePath, filepath.Join(".fsearch", "logs", "fsearch.log")))
	assert.Equal(t, "debug", DebugConfig().Level)
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	// Given: a log file in a fresh directory
	path := filepath.Join(t.TempDir(), "nested", "fsearch.log")

	// When: logging at debug level
	logger, cleanup, err := Setup(Config{Level: "debug", FilePath: path})
	require.NoError(t, err)
	logger.Debug("query_started", slog.String("predicate", "hello"))
	cleanup()

	// Then: the record is a JSON line
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &rec))
	assert.Equal(t, "query_started", rec["msg"])
	assert.Equal(t, "hello", rec["predicate"])
	assert.Equal(t, "DEBUG", rec["level"])
}

func TestSetup_RespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fsearch.log")

	logger, cleanup, err := Setup(Config{Level: "warn", FilePath: path})
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestSetup_NoOutputsDiscards(t *testing.T) {
	logger, cleanup, err := Setup(Config{})
	require.NoError(t, err)
	defer cleanup()

	assert.False(t, logger.Enabled(t.Context(), slog.LevelError))
}

func TestRotatingWriter_Rotates(t *testing.T) {
	// Given: a writer limited to 1 MB and 2 backups
	path := filepath.Join(t.TempDir(), "fsearch.log")
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer w.Close()

	record := []byte(strings.Repeat("x", 600*1024) + "\n")

	// When: writing four records of 600 KB
	for i := 0; i < 4; i++ {
		_, err := w.Write(record)
		require.NoError(t, err)
	}

	// Then: each file holds one record and only two backups are kept
	for _, p := range []string{path, path + ".1", path + ".2"} {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.Equal(t, int64(len(record)), info.Size(), p)
	}
	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err))
}

func TestRotatingWriter_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fsearch.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	w, err := NewRotatingWriter(path, 1, 1)
	require.NoError(t, err)
	_, err = fmt.Fprintln(w, "new")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(data))
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "fsearch.log"), 1, 1)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.NoError(t, w.Sync())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	assert.Equal(t, filepath.Join(home, "logs", "x.log"), ExpandHome("~/logs/x.log"))
	assert.Equal(t, "/abs/x.log", ExpandHome("/abs/x.log"))
	assert.Equal(t, "~", ExpandHome("~"))
}
