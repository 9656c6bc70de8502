package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("prod writes json", func(t *testing.T) {
		var buf bytes.Buffer
		New("prod", "", &buf).Info("hello", "worker", 3)

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "hello", rec["msg"])
		assert.EqualValues(t, 3, rec["worker"])
	})

	t.Run("dev writes text", func(t *testing.T) {
		var buf bytes.Buffer
		New("dev", "", &buf).Debug("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		log := New("dev", "warn", &buf)
		log.Info("dropped")
		log.Warn("kept")
		assert.NotContains(t, buf.String(), "dropped")
		assert.Contains(t, buf.String(), "kept")
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, parseLevel("prod", ""))
	assert.Equal(t, slog.LevelDebug, parseLevel("dev", "bogus"))
	assert.Equal(t, slog.LevelError, parseLevel("dev", "ERROR"))
	assert.Equal(t, slog.LevelWarn, parseLevel("prod", "warning"))
}

func TestOpen(t *testing.T) {
	w, closeFn, err := Open("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, w)
	assert.NoError(t, closeFn())

	path := filepath.Join(t.TempDir(), "logs", "nodo3.log")
	w, closeFn, err = Open(path)
	require.NoError(t, err)
	New("prod", "info", w).Info("to file")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
