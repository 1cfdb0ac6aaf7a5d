package ringlog

// Sink is an output destination for log records. Console, file, network, and
// JSON-document variants all expose the same four operations.
//
// Each sink owns its internal buffer exclusively and guards it with its own
// lock, so contention is per-sink. Flush may block the calling goroutine on
// file or socket I/O; the network sink's retry loop additionally sleeps
// between attempts.
type Sink interface {
	// WriteRaw renders and buffers a single record, applying the sink's own
	// minimum-level filter. The metadata map may be nil.
	WriteRaw(level Level, msg string, meta map[string]any) error

	// WriteFormatted buffers an already-rendered byte string verbatim. It is
	// used when the dispatcher pre-renders once and fans the same bytes out
	// to every sink; no level filter is applied.
	WriteFormatted(p []byte) error

	// Flush pushes buffered bytes to the real destination.
	Flush() error

	// Close flushes and releases all resources owned by the sink.
	Close() error
}
