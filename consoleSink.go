package ringlog

import (
	"io"
	"os"
	"sync"
)

// ConsoleSink writes rendered records directly to an io.Writer, typically
// os.Stderr. It is unbuffered; Flush is a no-op.
type ConsoleSink struct {
	mu       sync.Mutex
	w        io.Writer
	minLevel Level
	format   FormatFunc
}

// NewConsoleSink creates a console sink. A nil writer defaults to os.Stderr
// and a nil format to TextFormat.
func NewConsoleSink(w io.Writer, minLevel Level, format FormatFunc) *ConsoleSink {
	if w == nil {
		w = os.Stderr
	}
	if format == nil {
		format = TextFormat
	}
	return &ConsoleSink{w: w, minLevel: minLevel, format: format}
}

func (s *ConsoleSink) WriteRaw(level Level, msg string, meta map[string]any) error {
	if level < s.minLevel {
		return nil
	}
	return s.WriteFormatted(s.format(level, msg, meta))
}

func (s *ConsoleSink) WriteFormatted(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(p); err != nil {
		return err
	}
	return nil
}

func (s *ConsoleSink) Flush() error { return nil }

// Close is a no-op; the sink does not own its writer.
func (s *ConsoleSink) Close() error { return nil }
