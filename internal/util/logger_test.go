package util

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("warn", NewConsoleOutput(&buf, FormatText))

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Errorf("error %d", 42)

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "[WARN] warn message")
	assert.Contains(t, out, "[ERROR] error 42")
}

func TestLogger_TextFieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("debug", NewConsoleOutput(&buf, FormatText))

	logger.Info("page fetched", F("page", 2), F("grid", "attendance"))

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(line, "page fetched grid=attendance page=2"), line)
}

func TestLogger_WithSharesOutputs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("debug", NewConsoleOutput(&buf, FormatText))
	child := logger.With(F("run_id", "abc"))

	child.Info("hello")
	logger.Info("parent")

	out := buf.String()
	assert.Contains(t, out, "hello run_id=abc")
	assert.Contains(t, out, "parent\n")
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", NewConsoleOutput(&buf, FormatJSON))
	logger.Info("walk done", F("records", 12))

	var entry LogEntry
	require.NoError(t, sonic.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "walk done", entry.Message)
	assert.EqualValues(t, 12, entry.Fields["records"])
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", NewConsoleOutput(&buf, FormatText))

	ctx := context.WithValue(context.Background(), RunIDKey, "run-1")
	logger.WithContext(ctx).Info("tagged")
	logger.WithContext(context.Background()).Info("untagged")

	out := buf.String()
	assert.Contains(t, out, "tagged run_id=run-1")
	assert.Contains(t, out, "untagged\n")
}

func TestNopLogger(t *testing.T) {
	l := NopLogger()
	assert.NotPanics(t, func() {
		l.Debug("x")
		l.Infof("%d", 1)
		l.With(F("a", 1)).Error("y")
	})
	assert.NotNil(t, OrNop(nil))
	assert.Same(t, l, OrNop(l))
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	out, err := NewFileOutput(path, FormatText)
	require.NoError(t, err)

	logger := NewLogger("info", out)
	logger.Info("to file")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] to file")
}

func TestParseLogFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseLogFormat("JSON"))
	assert.Equal(t, FormatText, ParseLogFormat("text"))
	assert.Equal(t, FormatText, ParseLogFormat("whatever"))
}
