package logger

import (
	"io"
	"strings"

	"github.com/pion/logging"
)

// ParseLevel maps a LOG_LEVEL value to a pion log level. Unknown values map
// to info.
func ParseLevel(level string) logging.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "disabled", "off", "none":
		return logging.LogLevelDisabled
	case "error":
		return logging.LogLevelError
	case "warn", "warning":
		return logging.LogLevelWarn
	case "debug":
		return logging.LogLevelDebug
	case "trace":
		return logging.LogLevelTrace
	default:
		return logging.LogLevelInfo
	}
}

// NewFactory returns a logger factory writing to w at the given level.
func NewFactory(level string, w io.Writer) *logging.DefaultLoggerFactory {
	factory := logging.NewDefaultLoggerFactory()
	factory.DefaultLogLevel = ParseLevel(level)
	factory.Writer = w
	return factory
}
