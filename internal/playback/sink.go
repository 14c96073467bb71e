package playback

import (
	"go.uber.org/zap"

	"github.com/dalimagaadi/kord-app/internal/core"
)

// ErrorSink receives backend failures surfaced by the synchronizer.
type ErrorSink interface {
	Report(info core.ErrorInfo)
}

// SinkFunc adapts a function to ErrorSink.
type SinkFunc func(info core.ErrorInfo)

func (f SinkFunc) Report(info core.ErrorInfo) {
	f(info)
}

// LogSink writes reports to a logger.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Report(info core.ErrorInfo) {
	s.Logger.Warn("Playback error",
		zap.String("source", string(info.Source)),
		zap.String("message", info.Message),
		zap.Error(info.Err))
}
