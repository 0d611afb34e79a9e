package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	AppName   string
	AddCaller bool
	LogFile   string
	LogLevel  string

	// Rotation settings for LogFile, zero values fall back to defaults.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger wraps zap so packages depend on one logger type.
type Logger struct {
	*zap.Logger
}

var (
	global *Logger
	mu     sync.RWMutex
)

var ErrEmptyAppName = errors.New("app name cannot be empty")

// Init builds the process logger: JSON lines to a rotated file plus a
// console encoder on stdout.
func Init(cfg Config) error {
	if cfg.AppName == "" {
		return ErrEmptyAppName
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), level),
	}

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return fmt.Errorf("failed create log dir: %w", err)
		}

		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    orDefault(cfg.MaxSizeMB, 100),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
			Compress:   true,
		}

		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotator), level))
	}

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.AddCaller {
		opts = append(opts, zap.AddCaller())
	}

	z := zap.New(zapcore.NewTee(cores...), opts...).With(zap.String("app", cfg.AppName))

	mu.Lock()
	global = &Logger{Logger: z}
	mu.Unlock()

	return nil
}

// Get returns the logger set by Init, or a no-op logger before Init ran.
func Get() *Logger {
	mu.RLock()
	defer mu.RUnlock()

	if global == nil {
		return NewNop()
	}

	return global
}

func New(z *zap.Logger) *Logger {
	if z == nil {
		return NewNop()
	}

	return &Logger{Logger: z}
}

func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// With keeps the wrapper type so child loggers can be passed around.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}

	return v
}
