package logger

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment variables configuring the log sink.
const (
	envLogPath  = "FM_PREFS_LOG"
	envLogLevel = "FM_PREFS_LOG_LEVEL"
)

var (
	mu      sync.RWMutex
	std     *zap.Logger
	sugared *zap.SugaredLogger
	logFile *os.File
)

// InitFromEnv initializes the logger using FM_PREFS_LOG or a default path.
func InitFromEnv() error {
	path := os.Getenv(envLogPath)
	if path == "" {
		// Default to the directory where the executable is located
		if exePath, err := os.Executable(); err == nil {
			path = filepath.Join(filepath.Dir(exePath), "fm-prefs.log")
		} else {
			path = "./fm-prefs.log"
		}
	}
	return Init(path, os.Getenv(envLogLevel))
}

// Init initializes the logger to write JSON lines to the provided file path.
// It creates parent directories if needed and opens the file in append mode.
// An empty level means info.
func Init(path, level string) error {
	mu.Lock()
	defer mu.Unlock()
	if std != nil {
		return nil
	}
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return err
		}
	}
	if err := ensureParentDir(path); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(f), lvl)

	logFile = f
	set(zap.New(core, zap.AddCaller()))
	return nil
}

// Set replaces the process logger. Tests use it with an observer core.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	set(l)
}

func set(l *zap.Logger) {
	std = l
	sugared = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// L returns the process logger, or a no-op logger before Init.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if std == nil {
		return zap.NewNop()
	}
	return std
}

// Close flushes and closes the underlying log file, if open.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if std != nil {
		_ = std.Sync()
	}
	std, sugared = nil, nil
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}

// Infof logs informational messages.
func Infof(format string, args ...any) { write(zapcore.InfoLevel, format, args...) }

// Warnf logs warnings.
func Warnf(format string, args ...any) { write(zapcore.WarnLevel, format, args...) }

// Errorf logs errors.
func Errorf(format string, args ...any) { write(zapcore.ErrorLevel, format, args...) }

func write(level zapcore.Level, format string, args ...any) {
	mu.RLock()
	s := sugared
	mu.RUnlock()
	if s == nil {
		return
	}
	s.Logf(level, format, args...)
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
