// Package logger is a thin leveled wrapper around zap.SugaredLogger.
package logger

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrInvalidEnvironment is returned for an environment other than
// "development" or "production".
var ErrInvalidEnvironment = errors.New("logger: environment must be development or production")

// Logger is a wrapper for zap.SugaredLogger.
type Logger struct {
	zLogger *zap.SugaredLogger
}

// LoggerConfig holds the running environment ("development" or
// "production"), an optional file to also write to, and whether stack
// traces are printed.
type LoggerConfig struct {
	EnableStacktrace bool
	Environment      string
	Path             string
}

// NewLogger builds a console logger writing to stderr and conf.Path.
// Development logs DebugLevel and above, production InfoLevel and above.
func NewLogger(conf *LoggerConfig) (*Logger, error) {
	zLevel := zap.NewAtomicLevel()
	switch {
	case strings.EqualFold("development", conf.Environment):
		zLevel.SetLevel(zap.DebugLevel)
	case strings.EqualFold("production", conf.Environment):
		zLevel.SetLevel(zap.InfoLevel)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidEnvironment, conf.Environment)
	}

	zOutputPaths := []string{"stderr"}
	if conf.Path != "" {
		zOutputPaths = append(zOutputPaths, conf.Path)
	}

	zConfig := &zap.Config{
		Level:             zLevel,
		Encoding:          "console",
		DisableStacktrace: !conf.EnableStacktrace,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "path",
			MessageKey:     "msg",
			StacktraceKey:  "stack",
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		OutputPaths: zOutputPaths,
	}

	logger, err := zConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &Logger{logger.Sugar()}, nil
}

// New wraps an existing zap logger.
func New(l *zap.Logger) *Logger {
	return &Logger{l.Sugar()}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{zap.NewNop().Sugar()}
}

// With returns a child logger carrying the given key-value pairs.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{l.zLogger.With(keysAndValues...)}
}

// Debug logs a message useful for debugging, with optional key-value context.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	if keysAndValues == nil {
		l.zLogger.Debug(msg)
	} else {
		l.zLogger.Debugw(msg, keysAndValues...)
	}
}

// Info logs progress of the application.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	if keysAndValues == nil {
		l.zLogger.Info(msg)
	} else {
		l.zLogger.Infow(msg, keysAndValues...)
	}
}

// Warn logs a potentially harmful situation.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	if keysAndValues == nil {
		l.zLogger.Warn(msg)
	} else {
		l.zLogger.Warnw(msg, keysAndValues...)
	}
}

// Error logs a failed operation. The application keeps running.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	if keysAndValues == nil {
		l.zLogger.Error(msg)
	} else {
		l.zLogger.Errorw(msg, keysAndValues...)
	}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zLogger.Sync()
}
