package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLoggerEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug").With(Series("au_10y"))

	l.Warn("fetch failed", Adapter("yahoo"), Error(errors.New("boom")), Int("attempt", 2))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "fetch failed", entry["message"])
	assert.Equal(t, "au_10y", entry["series"])
	assert.Equal(t, "yahoo", entry["adapter"])
	assert.Equal(t, "boom", entry["error"])
	assert.EqualValues(t, 2, entry["attempt"])
}

func TestWriterLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")

	l.Info("hidden")
	l.Debug("hidden")
	assert.Zero(t, buf.Len())

	l.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stderr"})
	require.Error(t, err)
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Info("ignored", String("k", "v"))
	l.With(Bool("x", true)).Error("ignored")
}
