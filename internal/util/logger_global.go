package util

import (
	"context"
	"fmt"
	"os"
	"sync"
)

var (
	globalLogger LoggerInterface
	loggerOnce   sync.Once
)

// InitLogger initializes the global logger once. When the log file cannot be
// opened it falls back to stderr so commands keep working.
func InitLogger(logLevel, logFile string, debugToConsole bool) {
	loggerOnce.Do(func() {
		logger, err := NewLogger(logLevel, logFile, debugToConsole, FormatText)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v, logging to stderr\n", err)
			logger, _ = NewLogger(logLevel, "", true, FormatText)
		}
		globalLogger = logger
	})
}

// SetLogger replaces the global logger. Intended for tests and embedding.
func SetLogger(logger LoggerInterface) {
	globalLogger = logger
}

// Log returns the global logger, or a no-op logger before InitLogger runs.
func Log() LoggerInterface {
	if globalLogger == nil {
		return &Logger{level: LevelError + 1, fields: map[string]interface{}{}}
	}
	return globalLogger
}

// LogFor returns the global logger scoped to the IDs carried by ctx.
func LogFor(ctx context.Context) LoggerInterface {
	return Log().WithContext(ctx)
}

func LogInfo(msg string) {
	if globalLogger != nil {
		globalLogger.Info(msg)
	}
}

func LogInfof(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.Infof(format, args...)
	}
}

func LogDebug(msg string) {
	if globalLogger != nil {
		globalLogger.Debug(msg)
	}
}

func LogDebugf(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.Debugf(format, args...)
	}
}

func LogWarn(msg string) {
	if globalLogger != nil {
		globalLogger.Warn(msg)
	}
}

func LogWarnf(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.Warnf(format, args...)
	}
}

func LogError(msg string) {
	if globalLogger != nil {
		globalLogger.Error(msg)
	}
}

func LogErrorf(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.Errorf(format, args...)
	}
}
