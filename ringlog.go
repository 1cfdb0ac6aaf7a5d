/*
Package ringlog provides the resilient buffering and output-dispatch core of
a structured logging stack, including:

  - `ringlog.RingBuffer` - a fixed-capacity circular byte buffer with
    overflow/underflow signaling and in-place compaction
  - `ringlog.BufferPool` - bounded acquire-or-create buffer reuse
  - `ringlog.Dispatcher` - ordered fan-out of records to registered sinks
    with partial-failure semantics
  - `ringlog.FileSink` - buffered file output with size/time rotation,
    rotated-file chaining, and optional compression
  - `ringlog.NetworkSink` - batched delivery to a remote collector with
    connection reuse and retry/backoff-with-jitter
  - `ringlog.ConsoleSink` and `ringlog.DocumentSink` - direct writer output
    and JSON array documents

The core is synchronous: every operation completes or fails on the calling
goroutine, and a flush may block on file or socket I/O. Each sink guards its
own buffer with its own lock, so contention is per-sink; the dispatcher holds
a single lock across one fan-out, so concurrent callers serialize there.

Rendering is pluggable. Sinks consume the output of a FormatFunc as an
opaque byte string, so any template engine can sit in front of the core;
TextFormat is the built-in fallback.

Failures inside the stack itself - rotation shift errors, compression
failures, a broken sink during fan-out - are reported on the internal logger
(see InternalLogger) rather than allowed to stop the remaining sinks.
*/
package ringlog
