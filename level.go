package ringlog

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Level is the severity of a log record. The numeric values match log/slog
// levels for consistency with applications that use it.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the canonical upper-case name of the level.
func (l Level) String() string {
	switch {
	case l < LevelInfo:
		return "DEBUG"
	case l < LevelWarn:
		return "INFO"
	case l < LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel converts a level name to a Level. Matching is case-insensitive.
// The empty string parses to LevelInfo.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, &ConfigError{Field: "level", Reason: fmt.Sprintf("unknown level %q", s)}
}

// FormatFunc renders a (level, message, metadata) triple into the byte string
// a sink buffers and ultimately writes out. The returned slice is owned by
// the caller; implementations must not retain it. The core makes no
// assumption about the output's structure, so any rendering engine can be
// plugged in.
type FormatFunc func(level Level, msg string, meta map[string]any) []byte

// TextFormat is the built-in fallback renderer, producing a single
// newline-terminated line:
//
//	2006-01-02T15:04:05Z [INFO] message key=value
//
// Metadata keys are emitted in sorted order so output is deterministic.
func TextFormat(level Level, msg string, meta map[string]any) []byte {
	var b strings.Builder
	b.WriteString(time.Now().UTC().Format(time.RFC3339))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(msg)

	if len(meta) > 0 {
		keys := make([]string, 0, len(meta))
		for k := range meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, meta[k])
		}
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
