// Package logger constructs the zap-backed structured logger used by the
// node and miner binaries; the wallet CLI and offline tools do not use it.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New constructs a logger tagged with service, writing JSON to stdout at
// info level and above.
func New(service string) (*zap.SugaredLogger, error) {
	return NewWithLevel(service, zapcore.InfoLevel)
}

// NewWithLevel constructs a logger tagged with service at the given
// minimum level, for binaries (e.g. miners) that want quieter or noisier
// output than the node's default.
func NewWithLevel(service string, level zapcore.Level) (*zap.SugaredLogger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := config.Build(zap.WithCaller(true))
	if err != nil {
		return nil, err
	}

	return log.Sugar().With("service", service), nil
}
