// Package logging holds the process logger. Diagnostics go to stderr through
// a clog console handler; command reports are written to stdout by the CLI.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/m-mizutani/clog"
)

var (
	mu      sync.RWMutex
	current = New(os.Stderr, slog.LevelWarn)
)

// New builds a logger writing to w at the given minimum level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := clog.New(
		clog.WithWriter(w),
		clog.WithLevel(level),
	)
	return slog.New(handler)
}

// Default returns the process logger.
func Default() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SetDefault replaces the process logger.
func SetDefault(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

// ParseLevel maps a config string to a slog level. Unknown values fall back to warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
