package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zap.DebugLevel},
		{"WARN", zap.WarnLevel},
		{"error", zap.ErrorLevel},
		{"", zap.InfoLevel},
		{"verbose", zap.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestNewRespectsLevel(t *testing.T) {
	log, err := New("prod", "warn")
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zap.InfoLevel))
	assert.True(t, log.Core().Enabled(zap.WarnLevel))
}

func TestProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := build("production", "info", zapcore.AddSync(&buf))

	log.Info("booked", zap.Duration("took", 1500*time.Millisecond))
	require.NoError(t, log.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "booked", line["msg"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, 1500.0, line["took"])
	assert.Contains(t, line, "time")
	assert.Contains(t, line, "caller")
}

func TestDevelopmentWritesConsole(t *testing.T) {
	var buf bytes.Buffer
	log := build("dev", "debug", zapcore.AddSync(&buf))

	log.Debug("slots loaded", zap.Duration("took", 2*time.Second))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.Contains(t, out, "slots loaded")
	assert.Contains(t, out, `"took": "2s"`)
	assert.False(t, json.Valid(buf.Bytes()))
}
