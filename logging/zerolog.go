package logging

import (
	"github.com/rs/zerolog"
)

// Zerolog returns a logging function that forwards messages to the given
// zerolog logger, so applications embedding the client can keep a single
// structured log stream.
func Zerolog(logger zerolog.Logger) Func {
	return func(l Level, format string, a ...interface{}) {
		var event *zerolog.Event
		switch l {
		case Debug:
			event = logger.Debug()
		case Info:
			event = logger.Info()
		case Warn:
			event = logger.Warn()
		case Error:
			event = logger.Error()
		default:
			return
		}
		event.Msgf(format, a...)
	}
}
