package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestZapAdapter_FieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"taskType": "generate-application-document"})

	log.Warn("no application found", map[string]interface{}{
		"applicationId": "abc",
		"error":         errors.New("boom"),
	})
	log.Debug("debug line", nil)

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "no application found", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "generate-application-document", ctx["taskType"])
	assert.Equal(t, "abc", ctx["applicationId"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestZapAdapter_WithError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewZapAdapter(zap.New(core)).WithError(errors.New("redis down"))

	log.Info("fallback to static templates", nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "redis down", logs.All()[0].ContextMap()["error"])
}

func TestNew_InvalidOutputFallsBackToNop(t *testing.T) {
	l := New("info", "json", "unknown-scheme://nowhere")
	require.NotNil(t, l)
	l.Info("dropped")
}

func TestNoOpAndTestLoggers(t *testing.T) {
	NewNoOpLogger().Error("ignored", map[string]interface{}{"k": 1})
	NewTestLogger(t).With(map[string]interface{}{"k": 1}).Info("visible in -v output", nil)
}
