package client

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/cedrusdb/go-cedrus/logging"
)

// LogFunc is a function that can be used for logging.
type LogFunc = logging.Func

// LogLevel defines the logging level.
type LogLevel = logging.Level

// Available logging levels.
const (
	LogNone  = logging.None
	LogDebug = logging.Debug
	LogInfo  = logging.Info
	LogWarn  = logging.Warn
	LogError = logging.Error
)

// DefaultLogFunc emits messages on the standard logger.
func DefaultLogFunc(l LogLevel, format string, a ...interface{}) {
	msg := fmt.Sprintf("["+l.String()+"]"+" cedrus: "+format, a...)
	log.Printf(msg)
}

// NewLogFunc returns a LogFunc that writes messages at or above the given
// level to the given writer, with an optional prefix. A nil writer means
// standard output.
func NewLogFunc(level LogLevel, prefix string, w io.Writer) LogFunc {
	if w == nil {
		w = os.Stdout
	}
	return func(l LogLevel, format string, a ...interface{}) {
		if l < level {
			return
		}
		msg := fmt.Sprintf("[%s] %s%s", l.String(), prefix, fmt.Sprintf(format, a...))
		fmt.Fprintln(w, msg)
	}
}

// NewLogLevel parses a level name.
func NewLogLevel(name string) (LogLevel, error) {
	switch strings.ToLower(name) {
	case "debug":
		return LogDebug, nil
	case "info":
		return LogInfo, nil
	case "warn":
		return LogWarn, nil
	case "error":
		return LogError, nil
	default:
		return LogNone, fmt.Errorf("unknown log level %q", name)
	}
}

// loggingWriter forwards writes to the standard logger.
type loggingWriter struct{}

func (loggingWriter) Write(p []byte) (int, error) {
	log.Print(string(p))
	return len(p), nil
}

// NewLoggingWriter returns a writer that forwards everything to the
// standard logger, for use with NewLogFunc.
func NewLoggingWriter() io.Writer {
	return loggingWriter{}
}
