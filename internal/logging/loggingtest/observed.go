// Package loggingtest provides loggers that record entries for assertions.
package loggingtest

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/dxexplorer/internal/logging"
)

// NewObserved returns a logger that records entries at or above level.
// Redaction applies as in production, since it happens before the core.
func NewObserved(level zapcore.Level) (*logging.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &logging.Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}
