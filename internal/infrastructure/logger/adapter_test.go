package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "click_the_button", sanitize("click the button"))
	assert.Equal(t, "actor", sanitize("///"))
	assert.Len(t, sanitize(strings.Repeat("x", 100)), 60)
}

func TestLoggerAdapter_FieldsAreCarried(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.WithField("task", 3).WithFields(map[string]any{"tool": "click"}).Info("Tool finished", "code", "Ok")
	l.Debug("plain")

	entries := logs.All()
	require.Len(t, entries, 2)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "Tool finished", entries[0].Message)
	assert.EqualValues(t, 3, ctx["task"])
	assert.Equal(t, "click", ctx["tool"])
	assert.Equal(t, "Ok", ctx["code"])
	assert.Empty(t, entries[1].ContextMap())
}

func TestNewLoggerAdapter_WritesFile(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig("run script")
	cfg.Dir = dir
	cfg.Level = "debug"

	l, err := NewLoggerAdapter(cfg)
	require.NoError(t, err)
	l.Debug("hello", "k", "v")
	require.NoError(t, l.Close())

	files, err := filepath.Glob(filepath.Join(dir, "*_run_script.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}
