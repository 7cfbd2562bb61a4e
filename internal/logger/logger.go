// Package logger provides the leveled logger used across the service.
// Levels: off, normal (info/warn/error) and verbose (adds debug).
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level controls the verbosity of the logger.
type Level int

const (
	// LevelOff disables all log output.
	LevelOff Level = iota
	// LevelNormal enables info, warn, and error output.
	LevelNormal
	// LevelVerbose enables all output including debug.
	LevelVerbose
)

// ParseLevel maps LOG_LEVEL values to a Level. Unknown values yield LevelNormal.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none", "silent":
		return LevelOff
	case "debug", "verbose":
		return LevelVerbose
	default:
		return LevelNormal
	}
}

// Logger is a leveled logger. All methods are safe for concurrent use.
type Logger struct {
	mu     sync.RWMutex
	level  Level
	debug  *log.Logger
	info   *log.Logger
	warn   *log.Logger
	errLog *log.Logger
}

// New creates a logger with the given level writing to out (os.Stderr when nil).
func New(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	flags := log.LstdFlags
	return &Logger{
		level:  level,
		debug:  log.New(out, "[DEBUG] ", flags),
		info:   log.New(out, "[INFO] ", flags),
		warn:   log.New(out, "[WARN] ", flags),
		errLog: log.New(out, "[ERROR] ", flags),
	}
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() *Logger {
	return New(LevelOff, io.Discard)
}

// SetLevel changes the log level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the current log level.
func (l *Logger) Level() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *Logger) output(min Level, target *log.Logger, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.level >= min {
		target.Output(3, fmt.Sprintf(format, args...))
	}
}

// Debug logs at debug level (verbose only).
func (l *Logger) Debug(format string, args ...any) { l.output(LevelVerbose, l.debugLogger(), format, args...) }

// Info logs at info level.
func (l *Logger) Info(format string, args ...any) { l.output(LevelNormal, l.infoLogger(), format, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...any) { l.output(LevelNormal, l.warnLogger(), format, args...) }

// Error logs at error level.
func (l *Logger) Error(format string, args ...any) { l.output(LevelNormal, l.errLogger(), format, args...) }

func (l *Logger) debugLogger() *log.Logger {
	if l == nil {
		return nil
	}
	return l.debug
}

func (l *Logger) infoLogger() *log.Logger {
	if l == nil {
		return nil
	}
	return l.info
}

func (l *Logger) warnLogger() *log.Logger {
	if l == nil {
		return nil
	}
	return l.warn
}

func (l *Logger) errLogger() *log.Logger {
	if l == nil {
		return nil
	}
	return l.errLog
}
