package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.Info("Retriever", "fetched documents", map[string]interface{}{"count": 2})
	l.Warn("Retriever", "source skipped", nil)
	l.Error("Executor", "turn failed", map[string]interface{}{"error": "boom"})

	entries := logs.All()
	require.Len(t, entries, 3)

	first := entries[0].ContextMap()
	assert.Equal(t, "Retriever", first["module"])
	assert.Equal(t, map[string]interface{}{"count": 2}, first["details"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, map[string]interface{}{}, entries[1].ContextMap()["details"])

	assert.Equal(t, "boom", entries[2].ContextMap()["error_ref"])
}

func TestIsolatedLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turns.log")
	l := NewIsolatedLogger(path)

	l.Info("Audit", "turn completed", map[string]interface{}{"session_id": "u-1"})
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"session_id":"u-1"`)
	assert.Contains(t, string(data), `"level":"INFO"`)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Debug("m", "x", nil)
	assert.NoError(t, l.Sync())
}
