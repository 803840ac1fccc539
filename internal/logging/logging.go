// Package logging provides structured logging using slog.
// Logs are written to <dataDir>/demoplan.log in append mode.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogFileName is the name of the log file inside the data directory.
const LogFileName = "demoplan.log"

// LevelEnvVar selects the minimum log level (debug, info, warn, error).
const LevelEnvVar = "DEMOPLAN_LOG_LEVEL"

var (
	// defaultLogger is the package-level logger.
	defaultLogger *slog.Logger
	// logFile is the file handle for the log file.
	logFile *os.File
	// mu protects concurrent access to the logger.
	mu sync.RWMutex
)

// Init initializes the logger with the data directory path.
// Logs are written to <dataDir>/demoplan.log in append mode.
// If dataDir is empty, logging is disabled (writes to io.Discard).
func Init(dataDir string) error {
	mu.Lock()
	defer mu.Unlock()

	// Close any existing log file.
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	var w io.Writer
	if dataDir == "" {
		// No data directory - disable logging.
		w = io.Discard
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			// Fall back to discard if we can't create the directory.
			w = io.Discard
		} else {
			logPath := filepath.Join(dataDir, LogFileName)
			f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				// Fall back to discard if we can't open the file.
				w = io.Discard
			} else {
				logFile = f
				w = f
			}
		}
	}

	// Create a JSON handler for structured logging.
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: levelFromEnv(),
	})
	defaultLogger = slog.New(handler)

	return nil
}

// levelFromEnv reads DEMOPLAN_LOG_LEVEL. Unset or unknown values
// default to debug, matching the log file's diagnostic purpose.
func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv(LevelEnvVar)) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// Close closes the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}

// Logger returns the default logger.
// If not initialized, returns a no-op logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()

	if defaultLogger == nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return defaultLogger
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs at warning level.
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// DebugContext logs at debug level with context.
func DebugContext(ctx context.Context, msg string, args ...any) {
	Logger().DebugContext(ctx, msg, args...)
}

// InfoContext logs at info level with context.
func InfoContext(ctx context.Context, msg string, args ...any) {
	Logger().InfoContext(ctx, msg, args...)
}

// WarnContext logs at warning level with context.
func WarnContext(ctx context.Context, msg string, args ...any) {
	Logger().WarnContext(ctx, msg, args...)
}

// ErrorContext logs at error level with context.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	Logger().ErrorContext(ctx, msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}

// WithGroup returns a logger with the given group.
func WithGroup(name string) *slog.Logger {
	return Logger().WithGroup(name)
}
