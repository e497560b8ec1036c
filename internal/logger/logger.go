// Package logger writes prefixed, levelled diagnostics through the standard
// log package. The TUI points the standard logger at a file, so nothing here
// ever writes to the terminal while screens are drawn.
package logger

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// Level selects how much is written.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

var (
	mu     sync.RWMutex
	prefix string
	level  = LevelInfo
)

// ParseLevel maps LOG_LEVEL values to a Level. Unknown values mean info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetLevel sets the minimum level that is written.
func SetLevel(l Level) {
	mu.Lock()
	level = l
	mu.Unlock()
}

// SetPrefix sets the tag prepended to every line (e.g. "client", "devserver").
func SetPrefix(p string) {
	mu.Lock()
	prefix = p
	mu.Unlock()
}

// DebugEnabled reports whether debug lines are written.
func DebugEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return level <= LevelDebug
}

func write(l Level, tag, msg string) {
	mu.RLock()
	threshold := level
	mu.RUnlock()
	if l < threshold {
		return
	}
	emit(tag, msg)
}

func emit(tag, msg string) {
	mu.RLock()
	p := prefix
	mu.RUnlock()
	if p != "" {
		p = "[" + p + "] "
	}
	log.Print(p + tag + msg)
}

// Debugf writes a debug line.
func Debugf(format string, v ...any) {
	write(LevelDebug, "DEBUG: ", fmt.Sprintf(format, v...))
}

// Info writes an info line.
func Info(v ...any) {
	write(LevelInfo, "", fmt.Sprint(v...))
}

// Infof formats and writes an info line.
func Infof(format string, v ...any) {
	write(LevelInfo, "", fmt.Sprintf(format, v...))
}

// Error writes an error line.
func Error(v ...any) {
	write(LevelError, "ERROR: ", fmt.Sprint(v...))
}

// Errorf formats and writes an error line.
func Errorf(format string, v ...any) {
	write(LevelError, "ERROR: ", fmt.Sprintf(format, v...))
}

// LogDuration logs fn and its elapsed time. At info level only calls slower
// than 100ms are written; at debug level every call is.
func LogDuration(fn string, start time.Time) {
	elapsed := time.Since(start)
	if DebugEnabled() || elapsed >= 100*time.Millisecond {
		emit("", fmt.Sprintf("fn=%s duration_ms=%d", fn, elapsed.Milliseconds()))
	}
}
