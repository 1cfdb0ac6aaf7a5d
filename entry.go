package ringlog

import "time"

// logEntry is the encoded form of one record as sent to a collector or
// stored in a JSON document: timestamp, level, message, plus optional call
// site fields picked out of the metadata map.
type logEntry struct {
	Timestamp string `json:"timestamp" msgpack:"timestamp"`
	Level     string `json:"level" msgpack:"level"`
	Message   string `json:"message" msgpack:"message"`
	File      string `json:"file,omitempty" msgpack:"file,omitempty"`
	Line      int    `json:"line,omitempty" msgpack:"line,omitempty"`
	Function  string `json:"function,omitempty" msgpack:"function,omitempty"`
}

func newLogEntry(now time.Time, level Level, msg string, meta map[string]any) logEntry {
	e := logEntry{
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
	}
	if meta == nil {
		return e
	}
	if v, ok := meta["file"].(string); ok {
		e.File = v
	}
	if v, ok := meta["function"].(string); ok {
		e.Function = v
	}
	switch v := meta["line"].(type) {
	case int:
		e.Line = v
	case int64:
		e.Line = int(v)
	case float64:
		e.Line = int(v)
	}
	return e
}
