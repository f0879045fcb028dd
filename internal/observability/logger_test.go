// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/synthinput/internal/config"
)

// buffer is a WriteSyncer over a mutex-guarded bytes.Buffer.
type buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *buffer) Sync() error { return nil }

func (b *buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func setup(t *testing.T, cfg config.LoggerConfig) *buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)
	out := &buffer{}
	Initialize(cfg, zapcore.AddSync(out))
	return out
}

func TestInitialize(t *testing.T) {
	t.Run("console logger with colors", func(t *testing.T) {
		out := setup(t, config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "synthctl",
			Colors:      config.ColorConfig{Info: "green"},
		})
		GetLogger().Named("mouse").Info("moved", zap.Float64("x", 12))
		Sync()

		line := out.String()
		assert.Contains(t, line, colorMap["green"]+"INFO"+colorReset)
		assert.Contains(t, line, "synthctl.mouse.")
		assert.Contains(t, line, "moved")
		assert.Contains(t, line, `"x": 12`)
	})

	t.Run("levels without a color stay plain", func(t *testing.T) {
		out := setup(t, config.LoggerConfig{Level: "debug", Format: "console", Colors: config.ColorConfig{Warn: "chartreuse"}})
		GetLogger().Warn("careful")
		Sync()
		assert.Contains(t, out.String(), "WARN")
		assert.NotContains(t, out.String(), colorReset)
	})

	t.Run("json logger", func(t *testing.T) {
		out := setup(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "JSONTest"})
		GetLogger().Warn("dispatch failed", zap.String("type", "click"))
		Sync()

		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(out.String()), &entry))
		assert.Equal(t, "warn", entry["level"])
		assert.Equal(t, "JSONTest", entry["logger"])
		assert.Equal(t, "dispatch failed", entry["msg"])
		assert.Equal(t, "click", entry["type"])
	})

	t.Run("level filtering", func(t *testing.T) {
		out := setup(t, config.LoggerConfig{Level: "warn", Format: "json"})
		GetLogger().Info("hidden")
		Sync()
		assert.Empty(t, out.String())
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		out := setup(t, config.LoggerConfig{Level: "loud", Format: "json"})
		GetLogger().Debug("hidden")
		GetLogger().Info("shown")
		Sync()
		assert.NotContains(t, out.String(), "hidden")
		assert.Contains(t, out.String(), "shown")
	})

	t.Run("rotating file copy", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "synthctl.log")
		setup(t, config.LoggerConfig{Level: "debug", Format: "console", LogFile: path, MaxSize: 1})
		GetLogger().Error("to the file")
		Sync()

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		var entry map[string]any
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(content), &entry))
		assert.Equal(t, "to the file", entry["msg"])
	})

	t.Run("only the first initialization counts", func(t *testing.T) {
		out := setup(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "First"})
		first := GetLogger()
		Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "Second"}, zapcore.AddSync(&buffer{}))
		assert.Same(t, first, GetLogger())

		GetLogger().Info("test")
		Sync()
		assert.True(t, strings.Contains(out.String(), "First"))
		assert.False(t, strings.Contains(out.String(), "Second"))
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("fallback before initialization", func(t *testing.T) {
		ResetForTest()
		assert.NotNil(t, GetLogger())
	})

	t.Run("global logger after initialization", func(t *testing.T) {
		setup(t, config.LoggerConfig{Level: "info"})
		assert.Same(t, globalLogger.Load(), GetLogger())
	})
}
