// Package observability provides logging and tracing setup.
package observability

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/skirmish/internal/config"
)

// samplingTick is the window over which identical entries are counted.
const samplingTick = time.Second

// NewLogger creates a structured logger writing to stderr. Every entry
// carries a "service" field so combat logs from several hosts can be told
// apart once aggregated.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig, service string) (*zap.Logger, error) {
	return newLogger(cfg, service, zapcore.Lock(os.Stderr))
}

func newLogger(cfg config.LoggingConfig, service string, sink zapcore.WriteSyncer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}
	if cfg.Sampling.Initial < 0 || cfg.Sampling.Thereafter < 0 {
		return nil, fmt.Errorf("negative sampling %+v", cfg.Sampling)
	}

	opts := []zap.Option{zap.AddCaller(), zap.ErrorOutput(sink)}
	var enc zapcore.Encoder
	switch cfg.Format {
	case "json":
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	case "console":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	core := zapcore.NewCore(enc, sink, zap.NewAtomicLevelAt(level))
	if cfg.Sampling.Initial > 0 {
		core = zapcore.NewSamplerWithOptions(core, samplingTick, cfg.Sampling.Initial, cfg.Sampling.Thereafter)
	}

	logger := zap.New(core, opts...)
	if service != "" {
		logger = logger.With(zap.String("service", service))
	}
	return logger, nil
}
