package slogutil

import (
	"log/slog"
	"strings"
)

// LevelSilent is above every standard level.
const LevelSilent = slog.Level(100)

// ParseLevel converts a level name (debug, info, warn, warning, error,
// silent, off; case-insensitive) to a slog.Level. ok is false for anything
// else.
func ParseLevel(s string) (level slog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	case "silent", "off":
		return LevelSilent, true
	default:
		return slog.LevelInfo, false
	}
}

// LevelFromString is ParseLevel with info as the fallback.
func LevelFromString(s string) slog.Level {
	level, _ := ParseLevel(s)
	return level
}

// LevelFromVerbosity maps the CLI's -v count and -q flag to a console level:
// warn by default, info at -v, debug at -vv. quiet wins.
func LevelFromVerbosity(verbosity int, quiet bool) slog.Level {
	switch {
	case quiet:
		return LevelSilent
	case verbosity <= 0:
		return slog.LevelWarn
	case verbosity == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
