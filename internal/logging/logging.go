// Package logging provides the leveled logger shared by the bootstrap layer
// and the command router.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// Levels understood by the logger. LevelVerbose sits below info and is only
// shown when debug output is requested.
const (
	LevelVerbose = slog.LevelDebug
	LevelInfo    = slog.LevelInfo
	LevelWarn    = slog.LevelWarn
	LevelError   = slog.LevelError
)

// Logger is a slog.Logger whose level can be changed after construction.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// New returns a Logger writing tagged lines to w at the given level.
func New(w io.Writer, level slog.Level) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(level)
	return &Logger{
		Logger: slog.New(newHandler(w, lv)),
		level:  lv,
	}
}

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level { return l.level.Level() }

// SetLevel changes the minimum level for every subsequent record.
func (l *Logger) SetLevel(level slog.Level) { l.level.Set(level) }

// Verbose logs at LevelVerbose.
func (l *Logger) Verbose(msg string, args ...any) {
	l.Log(context.Background(), LevelVerbose, msg, args...)
}

// ParseLevel maps a level name to a slog.Level. "debug" is accepted as an
// alias for "verbose". Unknown names report ok=false and LevelInfo.
func ParseLevel(name string) (level slog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "verbose", "debug":
		return LevelVerbose, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

// LevelName is the inverse of ParseLevel.
func LevelName(level slog.Level) string {
	switch {
	case level <= LevelVerbose:
		return "verbose"
	case level <= LevelInfo:
		return "info"
	case level <= LevelWarn:
		return "warn"
	default:
		return "error"
	}
}
