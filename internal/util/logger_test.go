package util

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("nonsense"))
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("info", "json")
	l.SetOutput(&buf)

	l.With("component", "test").Info("hello", "count", 3)
	l.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "test", entry["component"])
	assert.EqualValues(t, 3, entry["count"])
}

func TestLoggerText(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("debug", "text")
	l.SetOutput(&buf)

	l.WithFields(map[string]any{"op": "create_idea"}).Debug("dispatch")

	assert.Contains(t, buf.String(), "msg=dispatch")
	assert.Contains(t, buf.String(), "op=create_idea")
}

func TestGenerateRequestID(t *testing.T) {
	a, err := GenerateRequestID()
	require.NoError(t, err)
	b, err := GenerateRequestID()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a, "req_"))
	assert.NotEqual(t, a, b)
}
