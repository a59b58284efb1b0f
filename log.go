package overlay

import (
	"log/slog"
	"os"
	"sync/atomic"
)

// logLevel controls the level of the default logger.
// Default is LevelInfo, which suppresses lifecycle debug messages.
var logLevel = new(slog.LevelVar)

// SetVerbose enables or disables debug logging on the default logger.
// Call this from main() after parsing flags.
func SetVerbose(v bool) {
	if v {
		logLevel.Set(slog.LevelDebug)
	} else {
		logLevel.Set(slog.LevelInfo)
	}
}

func newDefaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// loggerPtr stores the package logger. Accessed atomically so SetLogger can
// race with logging from render goroutines.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newDefaultLogger())
}

// SetLogger replaces the package logger used by windows and canvases that
// were not given one with WithLogger. Pass nil to restore the default
// stderr logger.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newDefaultLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current package logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
