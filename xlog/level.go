package xlog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// LevelTrace is the most verbose logging level, below slog.LevelDebug.
const LevelTrace = slog.Level(-8)

// LevelNames are the level names accepted by ParseLevel, from most to least
// verbose.
var LevelNames = []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

// ParseLevel parses a level name into a slog.Level. It accepts the names in
// LevelNames case-insensitively, as well as anything slog.Level itself can
// parse (e.g. "DEBUG+2").
func ParseLevel(s string) (slog.Level, error) {
	if strings.EqualFold(s, "TRACE") {
		return LevelTrace, nil
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level '%s': %w", s, err)
	}

	return lvl, nil
}

// LevelString returns the short name of lvl as rendered in log output.
func LevelString(lvl slog.Level) string {
	switch {
	case lvl == LevelTrace:
		return "TRC"
	case lvl < slog.LevelDebug:
		return fmt.Sprintf("TRC%+d", lvl-LevelTrace)
	default:
		return ""
	}
}

// ReplaceLevelAttr renders the custom TRACE level with a readable name. It is
// meant to be used as, or called from, a handler's ReplaceAttr function.
func ReplaceLevelAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	lvl, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	if name := LevelString(lvl); name != "" {
		a.Value = slog.StringValue(name)
	}

	return a
}

// Trace logs msg at LevelTrace.
func Trace(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	logger.Log(ctx, LevelTrace, msg, args...)
}
