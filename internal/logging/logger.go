// Package logging provides config-driven categorized logging for kinship.
// Logs are written to <data_dir>/logs/kinship.log through a single zap core;
// each category is a named child logger. Until Initialize succeeds, and for
// categories switched off in config, every logger is a no-op.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot       Category = "boot"       // Startup, config, wiring
	CategoryAPI        Category = "api"        // Generative-language calls
	CategoryChat       Category = "chat"       // Conversation controller
	CategoryDigest     Category = "digest"     // Digest controller
	CategoryOnboarding Category = "onboarding" // Onboarding wizard
	CategoryFixtures   Category = "fixtures"   // Fixture loading and hot reload
	CategoryStore      Category = "store"      // Transcript store, preferences, usage
	CategoryUI         Category = "ui"         // Shell event loop
)

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	Enabled    bool
	Level      string // debug, info, warn, error
	Format     string // json, text
	Categories map[string]bool
}

// Logger is a category-scoped logger with printf-style helpers.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	opts    Options
	loggers = make(map[Category]*Logger)
	logPath string
)

// Initialize builds the file-backed zap logger under dir/logs.
// A disabled configuration leaves every logger as a no-op.
func Initialize(dir string, o Options) error {
	if dir == "" {
		return fmt.Errorf("log directory required")
	}

	mu.Lock()
	defer mu.Unlock()

	opts = o
	loggers = make(map[Category]*Logger)
	if !o.Enabled {
		base = zap.NewNop()
		return nil
	}

	logsDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	logPath = filepath.Join(logsDir, "kinship.log")

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(o.Level))
	cfg.Sampling = nil
	cfg.OutputPaths = []string{logPath}
	cfg.ErrorOutputPaths = []string{logPath}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if o.Format == "json" {
		cfg.Encoding = "json"
	} else {
		cfg.Encoding = "console"
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	base = l
	return nil
}

// SetBase replaces the underlying zap logger. Intended for tests and for
// commands that log to stderr instead of a file.
func SetBase(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	base = l
	opts.Enabled = true
	loggers = make(map[Category]*Logger)
}

// Path returns the active log file path, empty when logging to elsewhere.
func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return logPath
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabledLocked(category)
}

func categoryEnabledLocked(category Category) bool {
	if !opts.Enabled {
		return false
	}
	if opts.Categories == nil {
		return true
	}
	enabled, exists := opts.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	z := zap.NewNop()
	if categoryEnabledLocked(category) {
		z = base.Named(string(category))
	}
	l := &Logger{category: category, sugar: z.Sugar()}
	loggers[category] = l
	return l
}

// With returns a child logger carrying key-value pairs on every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// Sync flushes buffered entries (call at shutdown)
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}

// =============================================================================
// CONVENIENCE FUNCTIONS
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootWarn(format string, args ...interface{})  { Get(CategoryBoot).Warn(format, args...) }
func API(format string, args ...interface{})       { Get(CategoryAPI).Info(format, args...) }
func APIDebug(format string, args ...interface{})  { Get(CategoryAPI).Debug(format, args...) }
func APIWarn(format string, args ...interface{})   { Get(CategoryAPI).Warn(format, args...) }
func Chat(format string, args ...interface{})      { Get(CategoryChat).Info(format, args...) }
func ChatDebug(format string, args ...interface{}) { Get(CategoryChat).Debug(format, args...) }
func Digest(format string, args ...interface{})    { Get(CategoryDigest).Info(format, args...) }
func DigestDebug(format string, args ...interface{}) {
	Get(CategoryDigest).Debug(format, args...)
}
func Onboarding(format string, args ...interface{}) { Get(CategoryOnboarding).Info(format, args...) }
func Fixtures(format string, args ...interface{})   { Get(CategoryFixtures).Info(format, args...) }
func FixturesWarn(format string, args ...interface{}) {
	Get(CategoryFixtures).Warn(format, args...)
}
func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }
func StoreError(format string, args ...interface{}) { Get(CategoryStore).Error(format, args...) }
func UI(format string, args ...interface{})         { Get(CategoryUI).Info(format, args...) }
func UIDebug(format string, args ...interface{})    { Get(CategoryUI).Debug(format, args...) }
