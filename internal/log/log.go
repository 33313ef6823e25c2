// Package log constructs the single *zap.Logger every other package
// takes as a dependency, the same way the teacher passes one *zap.Logger
// into SpinUpRelayerApiContainer and the rest of packages/go-relayer-api
// rather than each package building its own.
package log

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger. level is parsed with zapcore's standard
// names ("debug", "info", "warn", "error"); dev selects zap's
// development encoder config (console, stack traces on warn) versus
// the production JSON encoder used when running under a supervisor.
func New(level string, dev bool) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		return nil, fmt.Errorf("log: parse level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("log: build logger: %w", err)
	}
	return logger, nil
}
