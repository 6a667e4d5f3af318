package loggingtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewObserved_Level(t *testing.T) {
	log, logs := NewObserved(zapcore.WarnLevel)
	log.Info("dropped")
	log.Warn("kept", "password", "hunter2")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "kept", entry.Message)
	assert.NotEqual(t, "hunter2", entry.ContextMap()["password"])
}
