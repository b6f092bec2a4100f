package adk

import (
	"fmt"
	"log/slog"
	"os"
)

var DebugEnabled bool

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

// SetOutput replaces the handler used by the package-level helpers.
func SetOutput(h slog.Handler) {
	logger = slog.New(h)
}

// Debugf prints messages only if DebugEnabled is true
func Debugf(format string, args ...interface{}) {
	if DebugEnabled {
		logger.Debug(fmt.Sprintf(format, args...))
	}
}

// Infof prints messages always
func Infof(format string, args ...interface{}) {
	logger.Info(fmt.Sprintf(format, args...))
}

func Warnf(format string, args ...interface{}) {
	logger.Warn(fmt.Sprintf(format, args...))
}
