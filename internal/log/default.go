package log

import "go.uber.org/zap"

var defaultLogger *zap.Logger

func Logger() *zap.Logger {
	return defaultLogger
}

func init() {
	logger, err := zap.NewProduction(zap.AddCaller())
	if err != nil {
		panic(err)
	}
	defaultLogger = logger
}

// SetLogger replaces the process logger. Tests use it to silence output.
func SetLogger(logger *zap.Logger) {
	defaultLogger = logger
}

// Debug is a convenient alias for defaultLogger.Debug
func Debug(msg string, fields ...zap.Field) {
	defaultLogger.Debug(msg, fields...)
}

// Info is a convenient alias for defaultLogger.Info
func Info(msg string, fields ...zap.Field) {
	defaultLogger.Info(msg, fields...)
}

// Warn is a convenient alias for defaultLogger.Warn
func Warn(msg string, fields ...zap.Field) {
	defaultLogger.Warn(msg, fields...)
}

// Error is a convenient alias for defaultLogger.Error
func Error(msg string, fields ...zap.Field) {
	defaultLogger.Error(msg, fields...)
}

// Fatal is a convenient alias for defaultLogger.Fatal
func Fatal(msg string, fields ...zap.Field) {
	defaultLogger.Fatal(msg, fields...)
}
