package ringlog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// DocumentSink maintains a JSON array document on disk. Records accumulate
// in memory and Flush folds them into the document, rewriting it atomically
// through a temp file and rename.
type DocumentSink struct {
	mu       sync.Mutex
	path     string
	minLevel Level
	pending  []json.RawMessage
	clk      clock
}

// NewDocumentSink creates a JSON-document sink targeting path.
func NewDocumentSink(path string, minLevel Level) (*DocumentSink, error) {
	if path == "" {
		return nil, &ConfigError{Field: "path", Reason: "must not be empty"}
	}
	return &DocumentSink{path: path, minLevel: minLevel, clk: realClock{}}, nil
}

func (s *DocumentSink) WriteRaw(level Level, msg string, meta map[string]any) error {
	if level < s.minLevel {
		return nil
	}
	e := newLogEntry(s.clk.Now(), level, msg, meta)
	b, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("failed to encode document entry: %w", err)
	}
	s.mu.Lock()
	s.pending = append(s.pending, b)
	s.mu.Unlock()
	return nil
}

// WriteFormatted appends pre-rendered bytes to the document. Bytes that are
// not valid JSON are wrapped in a {"message": ...} object so the document
// stays a well-formed array.
func (s *DocumentSink) WriteFormatted(p []byte) error {
	raw := json.RawMessage(p)
	if !json.Valid(p) {
		b, err := json.Marshal(map[string]string{"message": string(p)})
		if err != nil {
			return fmt.Errorf("failed to wrap formatted entry: %w", err)
		}
		raw = b
	}
	s.mu.Lock()
	s.pending = append(s.pending, raw)
	s.mu.Unlock()
	return nil
}

// Flush appends the pending records to the on-disk array and rewrites the
// document. An unreadable or malformed existing document is replaced, with a
// note on the internal logger, rather than blocking all future flushes.
func (s *DocumentSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}

	var doc []json.RawMessage
	if data, err := os.ReadFile(s.path); err == nil && len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			InternalLogger().Printf("document sink: discarding malformed document %s: %v", s.path, err)
			doc = nil
		}
	}
	doc = append(doc, s.pending...)

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}

	s.pending = s.pending[:0]
	return nil
}

func (s *DocumentSink) Close() error { return s.Flush() }
