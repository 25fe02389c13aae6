package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("user_id", 7).Warn("append history failed", "error", "boom")
	l.Info("plain")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "append history failed", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.EqualValues(t, 7, ctx["user_id"])
	assert.Equal(t, "boom", ctx["error"])
	assert.NotContains(t, entries[1].ContextMap(), "user_id")
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"production", "development", ""} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		assert.NotNil(t, l.SugaredLogger)
	}
	Nop().Info("discarded")
}
