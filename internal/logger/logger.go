// Package logger is deskr's leveled logger. Output is discarded unless a log
// file is configured, so logging never draws over the terminal UI.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a case-insensitive level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level: %s", s)
	}
}

// Logger writes "[LEVEL] scope: message" lines to a single sink.
type Logger struct {
	mu     sync.Mutex
	level  Level
	scope  string
	logger *log.Logger
	file   *os.File
	parent *Logger
}

// Default is the process-wide logger used by the package-level helpers.
var Default = New()

// New builds a logger from DESKR_LOG_LEVEL and DESKR_LOG_FILE.
func New() *Logger {
	l := &Logger{
		level:  LevelInfo,
		logger: log.New(io.Discard, "", log.LstdFlags),
	}

	if lvl := os.Getenv("DESKR_LOG_LEVEL"); lvl != "" {
		if level, err := ParseLevel(lvl); err == nil {
			l.level = level
		}
	}
	if path := os.Getenv("DESKR_LOG_FILE"); path != "" {
		_ = l.openFile(path)
	}
	return l
}

// Setup applies configured values on top of whatever the environment set.
// An empty level or file leaves the current setting alone.
func (l *Logger) Setup(level, file string) error {
	if level != "" {
		lvl, err := ParseLevel(level)
		if err != nil {
			return err
		}
		l.SetLevel(lvl)
	}
	if file != "" {
		return l.openFile(file)
	}
	return nil
}

func (l *Logger) openFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Close()
	}
	l.file = f
	l.logger.SetOutput(f)
	return nil
}

// Named returns a logger that shares this logger's sink and level but tags
// every line with scope.
func (l *Logger) Named(scope string) *Logger {
	return &Logger{scope: scope, parent: l}
}

func (l *Logger) root() *Logger {
	if l.parent != nil {
		return l.parent.root()
	}
	return l
}

// Close releases the log file, if one is open.
func (l *Logger) Close() error {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	r.logger.SetOutput(io.Discard)
	return err
}

func (l *Logger) SetLevel(level Level) {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.level = level
}

func (l *Logger) SetOutput(w io.Writer) {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.SetOutput(w)
}

func (l *Logger) Debug(format string, v ...any) { l.log(LevelDebug, format, v...) }
func (l *Logger) Info(format string, v ...any)  { l.log(LevelInfo, format, v...) }
func (l *Logger) Warn(format string, v ...any)  { l.log(LevelWarn, format, v...) }
func (l *Logger) Error(format string, v ...any) { l.log(LevelError, format, v...) }

func (l *Logger) log(level Level, format string, v ...any) {
	r := l.root()
	r.mu.Lock()
	defer r.mu.Unlock()

	if level < r.level {
		return
	}

	msg := fmt.Sprintf(format, v...)
	if l.scope != "" {
		r.logger.Printf("[%s] %s: %s", level, l.scope, msg)
		return
	}
	r.logger.Printf("[%s] %s", level, msg)
}

func Debug(format string, v ...any) { Default.Debug(format, v...) }
func Info(format string, v ...any)  { Default.Info(format, v...) }
func Warn(format string, v ...any)  { Default.Warn(format, v...) }
func Error(format string, v ...any) { Default.Error(format, v...) }

// Setup configures the default logger.
func Setup(level, file string) error { return Default.Setup(level, file) }

// Named returns a scoped view of the default logger.
func Named(scope string) *Logger { return Default.Named(scope) }

// Close closes the default logger.
func Close() error { return Default.Close() }
