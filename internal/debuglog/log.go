package debuglog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dotse/slug"
	slogmulti "github.com/samber/slog-multi"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff // Disables all logging
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a string into a LogLevel, defaulting to INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "OFF":
		return LevelOff
	default:
		return LevelInfo
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Options selects the sinks. File defaults to ~/.newsdesk/newsdesk.log when
// Stderr is false.
type Options struct {
	Level  LogLevel
	File   string
	Stderr bool
}

var (
	mu           sync.RWMutex
	currentLevel = LevelOff
	levelVar     = new(slog.LevelVar)
	logger       *slog.Logger
	logFile      *os.File
)

// Setup configures file logging with the specified level and optional file
// path.
func Setup(level LogLevel, filePath ...string) error {
	opts := Options{Level: level}
	if len(filePath) > 0 {
		opts.File = filePath[0]
	}
	return SetupWith(opts)
}

func SetupWith(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	currentLevel = opts.Level
	levelVar.Set(opts.Level.slogLevel())

	if opts.Level == LevelOff {
		logger = nil
		return nil
	}

	handlerOpts := slug.HandlerOptions{
		HandlerOptions: slog.HandlerOptions{Level: levelVar},
	}

	var handlers []slog.Handler
	if opts.File != "" || !opts.Stderr {
		logPath := opts.File
		if logPath == "" {
			home, _ := os.UserHomeDir()
			dir := filepath.Join(home, ".newsdesk")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
			logPath = filepath.Join(dir, "newsdesk.log")
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", logPath, err)
		}
		logFile = f
		handlers = append(handlers, slug.NewHandler(handlerOpts, f))
	}
	if opts.Stderr {
		handlers = append(handlers, slug.NewHandler(handlerOpts, os.Stderr))
	}

	logger = slog.New(slogmulti.Fanout(handlers...)).With("app", "newsdesk")
	return nil
}

// SetOutput routes logging to w. Used by tests and the mock server.
func SetOutput(level LogLevel, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	currentLevel = level
	levelVar.Set(level.slogLevel())
	if level == LevelOff {
		logger = nil
		return
	}
	logger = slog.New(slug.NewHandler(slug.HandlerOptions{
		HandlerOptions: slog.HandlerOptions{Level: levelVar},
	}, w))
}

func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
	levelVar.Set(level.slogLevel())
}

func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// Logger returns the underlying slog logger, or a discarding one when
// logging is off.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

// Close closes the log file if open
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeLocked()
}

func closeLocked() error {
	logger = nil
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// ErrAttr is the attribute under which failures are logged.
func ErrAttr(err error) slog.Attr {
	return slog.Any("reason", err)
}

func logAttrs(level LogLevel, attrs []slog.Attr, format string, args ...any) {
	mu.RLock()
	l := logger
	enabled := level >= currentLevel && currentLevel != LevelOff
	mu.RUnlock()
	if !enabled || l == nil {
		return
	}
	l.LogAttrs(context.Background(), level.slogLevel(), fmt.Sprintf(format, args...), attrs...)
}

func Debugf(format string, args ...any) {
	logAttrs(LevelDebug, nil, format, args...)
}

func Infof(format string, args ...any) {
	logAttrs(LevelInfo, nil, format, args...)
}

func Warnf(format string, args ...any) {
	logAttrs(LevelWarn, nil, format, args...)
}

func Errorf(format string, args ...any) {
	logAttrs(LevelError, nil, format, args...)
}

// FieldLogger attaches structured fields to every message.
type FieldLogger struct {
	attrs []slog.Attr
}

func WithFields(fields map[string]any) *FieldLogger {
	attrs := make([]slog.Attr, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return &FieldLogger{attrs: attrs}
}

// WithErr returns a copy of fl that also logs err. A nil err adds nothing.
func (fl *FieldLogger) WithErr(err error) *FieldLogger {
	if err == nil {
		return fl
	}
	attrs := make([]slog.Attr, 0, len(fl.attrs)+1)
	attrs = append(attrs, fl.attrs...)
	return &FieldLogger{attrs: append(attrs, ErrAttr(err))}
}

func (fl *FieldLogger) Debugf(format string, args ...any) {
	logAttrs(LevelDebug, fl.attrs, format, args...)
}

func (fl *FieldLogger) Infof(format string, args ...any) {
	logAttrs(LevelInfo, fl.attrs, format, args...)
}

func (fl *FieldLogger) Warnf(format string, args ...any) {
	logAttrs(LevelWarn, fl.attrs, format, args...)
}

func (fl *FieldLogger) Errorf(format string, args ...any) {
	logAttrs(LevelError, fl.attrs, format, args...)
}
