// Package flog provides the structured logging facade used throughout the
// blob storage pipeline. It keeps the Logger/LogLevel surface of the
// teacher's fluid/logger.go (Debug/Info/Warn/Error/Fatal helper methods
// gated by a minimum severity) but backs it with go.uber.org/zap instead
// of a hand-rolled wrapper around the standard library's log.Logger, per
// the zap dependency carried by the dolthub-dolt example repo.
package flog

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel characterizes the severity of a log message, matching the
// teacher's five-level scheme.
type LogLevel int

// Severity levels of log messages, ordered low to high.
const (
	LevelDebug LogLevel = 1 + iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// String implements fmt.Stringer.
func (level LogLevel) String() string {
	if level < LevelDebug || level > LevelFatal {
		return "UNKNOWN"
	}
	return levelNames[level-1]
}

// LevelFromString parses a string (case and whitespace insensitive) into a
// LogLevel, defaulting to LevelInfo for unrecognized input.
func LevelFromString(level string) LogLevel {
	level = strings.ToUpper(strings.TrimSpace(level))

	switch level {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}

func (level LogLevel) zapLevel() zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger wraps a zap.SugaredLogger so pipeline components log with a
// consistent level gate and field set without depending on zap directly.
type Logger struct {
	Level LogLevel
	sugar *zap.SugaredLogger
}

// New creates a Logger that writes at or above the given minimum level.
func New(level LogLevel) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level.zapLevel())
	cfg.EncoderConfig.TimeKey = "ts"

	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// zap.NewProductionConfig().Build() only fails on a malformed
		// encoder/sink configuration, which cannot happen with the
		// defaults above, but fall back to a no-op logger rather than
		// panic from a logging constructor.
		zl = zap.NewNop()
	}

	return &Logger{Level: level, sugar: zl.Sugar()}
}

// NewNop returns a Logger that discards everything, useful as a default
// when a caller does not supply one.
func NewNop() *Logger {
	return &Logger{Level: LevelFatal + 1, sugar: zap.NewNop().Sugar()}
}

// Sync flushes any buffered log entries; callers should defer it once at
// process shutdown.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// With returns a Logger that annotates every subsequent entry with the
// given key/value pairs, mirroring zap's structured-field convention.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{Level: l.Level, sugar: l.sugar.With(keysAndValues...)}
}

// Debug logs at LevelDebug.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

// Info logs at LevelInfo.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Warn logs at LevelWarn.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

// Error logs at LevelError.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// Fatal logs at LevelFatal and then terminates the process, matching the
// teacher's Logger.Fatal behavior.
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.sugar.Fatalw(msg, keysAndValues...)
}
