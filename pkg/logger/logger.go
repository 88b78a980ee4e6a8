// Package logger owns the process-wide zap logger. Every component logs
// through a named child (see WithModule), so log lines can be filtered by
// the subsystem that produced them.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	root *zap.Logger = zap.NewNop() // usable before Init runs
)

// Init builds the global logger at the given level. Unknown level strings
// fall back to info rather than failing startup.
func Init(level string) error {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.NameKey = "module"
	cfg.DisableStacktrace = parsed > zapcore.DebugLevel

	built, err := cfg.Build(zap.Fields(zap.String("service", "taskrythm")))
	if err != nil {
		return err
	}

	mu.Lock()
	root = built
	mu.Unlock()

	return nil
}

// WithModule returns a child logger named after the subsystem, e.g.
// "database", "ai", "maintenance".
func WithModule(module string) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.Named(module)
}

// Sync flushes buffered log entries.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return root.Sync()
}
