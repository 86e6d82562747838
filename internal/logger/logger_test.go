package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level string) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	log := New(&Config{Level: level, Format: "json", Output: buf})
	return log, buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewDefaults(t *testing.T) {
	log := New(nil)
	assert.NotNil(t, log)
}

func TestJSONOutput(t *testing.T) {
	log, buf := newBufferLogger("info")

	log.Info("upload complete")

	entry := decodeLine(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "upload complete", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestLevelFiltering(t *testing.T) {
	log, buf := newBufferLogger("warn")

	log.Debug("hidden")
	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("visible")
	assert.NotZero(t, buf.Len())
}

func TestWithFields(t *testing.T) {
	log, buf := newBufferLogger("info")

	log.With().
		Str("attachment", "a1").
		Int("size", 42).
		Bool("private", true).
		Logger().
		Info("attachment uploaded")

	entry := decodeLine(t, buf)
	assert.Equal(t, "a1", entry["attachment"])
	assert.Equal(t, float64(42), entry["size"])
	assert.Equal(t, true, entry["private"])
}

func TestWarnWith(t *testing.T) {
	log, buf := newBufferLogger("info")

	log.WarnWith("sharing grant failed", errors.New("quota exceeded"), map[string]interface{}{
		"remote_id": "remote-x",
	})

	entry := decodeLine(t, buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "quota exceeded", entry["error"])
	assert.Equal(t, "remote-x", entry["remote_id"])
}

func TestContextRoundTrip(t *testing.T) {
	log, buf := newBufferLogger("info")

	ctx := log.With().Str("request_id", "req-1").Logger().WithContext(context.Background())

	FromContext(ctx).Info("handled")

	entry := decodeLine(t, buf)
	assert.Equal(t, "req-1", entry["request_id"])
}

func TestNopDiscardsEverything(t *testing.T) {
	log := Nop()

	// Must not panic and must not write anywhere.
	log.Info("dropped")
	log.With().Str("k", "v").Logger().Error("dropped")
	log.ErrorWith("dropped", errors.New("x"), nil)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"error", "error"},
		{"bogus", "info"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in).String(), "level %q", tt.in)
	}
}
