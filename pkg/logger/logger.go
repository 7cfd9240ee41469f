// Package logger provides the application-wide structured logger. It wraps
// zap.SugaredLogger exactly as the teacher package did, but is now the
// pipeline's only logging backend — klog (the teacher's actual default,
// wired through k8s.io/klog/v2 everywhere else in that codebase) is
// Kubernetes-component logging tied to client-go's `-v` verbosity
// conventions, and this pipeline has no live API server to talk to. This
// package was already present but unused by the rest of the teacher repo;
// adapting it into the active backbone keeps the zap dependency exercised
// instead of dead.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger for application-wide logging.
type Logger struct {
	*zap.SugaredLogger
}

var globalLogger *Logger

// NewLogger creates a new logger with the specified level.
func NewLogger(level string, development bool) (*Logger, error) {
	var config zap.Config

	if development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.Encoding = "json"
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	baseLogger, err := config.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return nil, err
	}

	return &Logger{SugaredLogger: baseLogger.Sugar()}, nil
}

// NewProductionLogger creates a production logger (JSON, info level).
func NewProductionLogger() (*Logger, error) {
	return NewLogger("info", false)
}

// NewDevelopmentLogger creates a development logger (console, debug level).
func NewDevelopmentLogger() (*Logger, error) {
	return NewLogger("debug", true)
}

// InitGlobalLogger initializes the global logger.
func InitGlobalLogger(level string, development bool) error {
	l, err := NewLogger(level, development)
	if err != nil {
		return err
	}
	globalLogger = l
	return nil
}

// GetLogger returns the global logger instance, lazily creating a
// production logger (or, failing that, a no-op logger) if one was never
// initialized.
func GetLogger() *Logger {
	if globalLogger == nil {
		l, err := NewProductionLogger()
		if err != nil {
			globalLogger = &Logger{SugaredLogger: zap.NewNop().Sugar()}
		} else {
			globalLogger = l
		}
	}
	return globalLogger
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.SugaredLogger.Sync()
}

// WithFields returns a logger with additional key/value fields.
func (l *Logger) WithFields(fields ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(fields...)}
}

// WithError returns a logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	return l.WithFields("error", err.Error())
}

// WithComponent scopes a logger to one pipeline component (e.g.
// "feature-assembly", "clustering", "rules/R8"), the convention every
// component in this repo uses to tag its log lines.
func (l *Logger) WithComponent(name string) *Logger {
	return l.WithFields("component", name)
}

func Debug(args ...interface{})                 { GetLogger().Debug(args...) }
func Debugf(template string, args ...interface{}) { GetLogger().Debugf(template, args...) }
func Info(args ...interface{})                  { GetLogger().Info(args...) }
func Infof(template string, args ...interface{})  { GetLogger().Infof(template, args...) }
func Warn(args ...interface{})                  { GetLogger().Warn(args...) }
func Warnf(template string, args ...interface{})  { GetLogger().Warnf(template, args...) }
func Error(args ...interface{})                 { GetLogger().Error(args...) }
func Errorf(template string, args ...interface{}) { GetLogger().Errorf(template, args...) }

// WithFields returns a global logger with additional fields.
func WithFields(fields ...interface{}) *Logger { return GetLogger().WithFields(fields...) }

// WithComponent returns a global logger scoped to one pipeline component.
func WithComponent(name string) *Logger { return GetLogger().WithComponent(name) }

// WithError returns a global logger with an error field.
func WithError(err error) *Logger { return GetLogger().WithError(err) }

// Sync syncs the global logger.
func Sync() error { return GetLogger().Sync() }
