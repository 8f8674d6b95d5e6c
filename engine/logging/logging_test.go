package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestNew_Levels verifies that the parsed level gates the logger and stays adjustable.
func TestNew_Levels(t *testing.T) {
	logger, atom, err := New("warn", "json")
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	atom.SetLevel(zapcore.DebugLevel)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

// TestNew_Invalid verifies that unknown levels and formats are rejected.
func TestNew_Invalid(t *testing.T) {
	_, _, err := New("loud", "json")
	assert.ErrorIs(t, err, ErrInvalidLogConfig)

	_, _, err = New("info", "xml")
	assert.ErrorIs(t, err, ErrInvalidLogConfig)
}

// TestNewWithSink_JSON verifies that the json format emits one structured record per entry.
func TestNewWithSink_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithSink("info", "json", zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("imported file", zap.String("file", "model.ply"))
	require.NoError(t, logger.Sync())

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "imported file", record["msg"])
	assert.Equal(t, "model.ply", record["file"])
	assert.Equal(t, "info", record["level"])
}
