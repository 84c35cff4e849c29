// Package logger builds the zap logger shared by every component.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New constructs a logger for the given level ("debug".."error") and
// format ("json" or "console"). Unknown levels fall back to info.
func New(level, format string) *zap.Logger {
	atomic := zap.NewAtomicLevel()
	switch level {
	case "debug":
		atomic.SetLevel(zapcore.DebugLevel)
	case "info":
		atomic.SetLevel(zapcore.InfoLevel)
	case "warn":
		atomic.SetLevel(zapcore.WarnLevel)
	case "error":
		atomic.SetLevel(zapcore.ErrorLevel)
	default:
		atomic.SetLevel(zapcore.InfoLevel)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), atomic)
	return zap.New(core)
}
