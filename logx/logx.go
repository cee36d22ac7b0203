// Package logx provides the structured logger every component takes as a
// dependency, backed by zap but exposed through a small interface so
// callers never import zap directly.
package logx

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging interface passed to every component
// constructor in this module.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Fatal(msg string, fields ...zap.Field)
	// With returns a child logger with fields bound to every subsequent
	// call, e.g. log.With(zap.String("world_id", id)).
	With(fields ...zap.Field) Logger
}

type zapLogger struct {
	z *zap.Logger
}

// NewProduction returns a JSON-encoded, info-level-and-above logger
// suitable for a running node.
func NewProduction() (Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &zapLogger{z: z}, nil
}

// NewDevelopment returns a human-readable, debug-level-and-above logger
// suitable for local runs and tests.
func NewDevelopment() (Logger, error) {
	z, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return &zapLogger{z: z}, nil
}

// Wrap adapts an existing *zap.Logger.
func Wrap(z *zap.Logger) Logger {
	return &zapLogger{z: z}
}

func (l *zapLogger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...zap.Field)  { l.z.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...zap.Field)  { l.z.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }
func (l *zapLogger) Fatal(msg string, fields ...zap.Field) { l.z.Fatal(msg, fields...) }
func (l *zapLogger) With(fields ...zap.Field) Logger       { return &zapLogger{z: l.z.With(fields...)} }

// NoOp is a logger that discards everything, used in tests that don't
// care about log output.
type noOp struct{}

// NewNoOp returns a Logger that discards every call.
func NewNoOp() Logger { return noOp{} }

func (noOp) Debug(string, ...zap.Field)    {}
func (noOp) Info(string, ...zap.Field)     {}
func (noOp) Warn(string, ...zap.Field)     {}
func (noOp) Error(string, ...zap.Field)    {}
func (noOp) Fatal(string, ...zap.Field)    {}
func (n noOp) With(...zap.Field) Logger    { return n }
