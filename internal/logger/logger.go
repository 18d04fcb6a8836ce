// Package logger provides the slog setup shared by the engine and the
// command front-end, including the hex packet-trace helper used at debug
// level.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// New returns a leveled text logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(127),
	}))
}

// ParseLevel maps a level name to its slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Hex renders packet bytes for trace output, truncated to keep lines
// readable.
func Hex(b []byte) string {
	const max = 128
	if len(b) <= max {
		return fmt.Sprintf("% x", b)
	}
	return fmt.Sprintf("% x ... (%d bytes)", b[:max], len(b))
}
