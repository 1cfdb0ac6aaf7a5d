package ringlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/bitdabbler/backoff"
	"github.com/vmihailenco/msgpack/v5"
)

// NetworkSink batches encoded records in a ring buffer and flushes them to a
// remote collector as an HTTP-style POST over a connection it owns and
// reuses. Failed sends back off and retry on the calling goroutine, bounded
// by the retry options; a failed dial gates further connection attempts
// until the backoff window passes, so concurrent callers short-circuit with
// ErrReconnectPending instead of hammering a dead endpoint.
type NetworkSink struct {
	opts *NetworkSinkOptions
	addr string

	mu   sync.Mutex
	ring *RingBuffer
	clk  clock

	batchCount int
	lastFlush  time.Time

	conn          net.Conn
	reconnectTime time.Time
	retry         *retryState
}

// NewNetworkSink creates a network sink for the configured endpoint. With
// EagerDial set it also establishes the connection, retrying with
// exponential backoff up to MaxEagerDialTries.
func NewNetworkSink(opts *NetworkSinkOptions) (*NetworkSink, error) {
	if opts == nil {
		opts = DefaultNetworkSinkOptions()
	} else {
		opts.resolve()
	}
	if opts.Endpoint.Host == "" {
		return nil, &ConfigError{Field: "endpoint.host", Reason: "must not be empty"}
	}
	if opts.Endpoint.Secure {
		return nil, ErrSecureNotSupported
	}

	var ring *RingBuffer
	if opts.Pool != nil {
		b, err := opts.Pool.Acquire()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire buffer from pool: %w", err)
		}
		ring = b
	} else {
		ring = NewRingBuffer(opts.BufferSize)
	}

	s := &NetworkSink{
		opts:  opts,
		addr:  fmt.Sprintf("%s:%d", opts.Endpoint.Host, opts.Endpoint.Port),
		ring:  ring,
		clk:   realClock{},
		retry: newRetryState(opts.Retry),
	}
	s.lastFlush = s.clk.Now()

	if opts.EagerDial {
		if err := s.dialEagerly(context.Background(), opts.MaxEagerDialTries); err != nil {
			if opts.Pool != nil {
				opts.Pool.Release(ring)
			}
			return nil, err
		}
	}
	return s, nil
}

// dialEagerly tries to connect until it succeeds or maxAttempts is reached.
// With maxAttempts < 0 it does not return until connected.
func (s *NetworkSink) dialEagerly(ctx context.Context, maxAttempts int) error {
	b, err := backoff.New(
		backoff.WithInitialDelay(0),
		backoff.WithExponentialLimit(defaultEagerDialWaitLimit),
	)
	if err != nil {
		return err
	}

	var dialErr error
	for i := 1; ; i++ {
		s.mu.Lock()
		s.reconnectTime = time.Time{}
		dialErr = s.connectLocked(ctx)
		s.mu.Unlock()
		if dialErr == nil {
			return nil
		}
		if maxAttempts > 0 && i >= maxAttempts {
			break
		}
		b.Sleep()
	}
	return fmt.Errorf("failed to connect to collector; max attempts reached: %d: %w", maxAttempts, dialErr)
}

func (s *NetworkSink) WriteRaw(level Level, msg string, meta map[string]any) error {
	if level < s.opts.MinLevel {
		return nil
	}
	line, err := s.encodeEntry(level, msg, meta)
	if err != nil {
		return err
	}
	return s.writeLine(line)
}

// WriteFormatted buffers pre-rendered bytes as one batch entry, terminating
// the line if the renderer did not.
func (s *NetworkSink) WriteFormatted(p []byte) error {
	if len(p) == 0 || p[len(p)-1] != '\n' {
		line := make([]byte, 0, len(p)+1)
		line = append(line, p...)
		p = append(line, '\n')
	}
	return s.writeLine(p)
}

func (s *NetworkSink) encodeEntry(level Level, msg string, meta map[string]any) ([]byte, error) {
	e := newLogEntry(s.clk.Now(), level, msg, meta)

	var b []byte
	var err error
	switch s.opts.Encoding {
	case EncodingMsgpack:
		b, err = msgpack.Marshal(&e)
	default:
		b, err = json.Marshal(&e)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode entry: %w", err)
	}
	return append(b, '\n'), nil
}

func (s *NetworkSink) writeLine(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ring.Write(line); err != nil {
		if !errors.Is(err, ErrBufferFull) {
			return err
		}
		// push the current batch out to make room
		if ferr := s.flushLocked(); ferr != nil {
			return ferr
		}
		if _, err := s.ring.Write(line); err != nil {
			return err
		}
	}
	s.batchCount++

	if s.batchCount >= s.opts.BatchSize ||
		s.clk.Now().Sub(s.lastFlush) >= s.opts.FlushInterval {
		return s.flushLocked()
	}
	return nil
}

// Flush sends the buffered batch to the collector, retrying with backoff on
// failure. Exhausting the attempts surfaces a NetworkError; the attempt
// counters keep their values until a subsequent successful send resets them.
func (s *NetworkSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *NetworkSink) flushLocked() error {
	body := s.ring.ReadAll()
	s.batchCount = 0
	s.lastFlush = s.clk.Now()
	if len(body) == 0 {
		return nil
	}

	req := s.buildRequest(body)
	var lastErr error
	for {
		err := s.sendLocked(req)
		if err == nil {
			s.retry.reset()
			s.lastFlush = s.clk.Now()
			return nil
		}
		if errors.Is(err, ErrReconnectPending) {
			return err
		}
		lastErr = err

		delay := s.retry.fail()
		if s.retry.exhausted() {
			return &NetworkError{Attempts: s.retry.attempts, Err: lastErr}
		}
		// deliberately blocks the logging call; see the concurrency notes
		// on Sink
		s.clk.Sleep(delay)
	}
}

func (s *NetworkSink) sendLocked(req []byte) error {
	if err := s.connectLocked(context.Background()); err != nil {
		return err
	}
	if s.opts.WriteTimeout > 0 {
		s.conn.SetWriteDeadline(s.clk.Now().Add(s.opts.WriteTimeout))
	}
	if _, err := s.conn.Write(req); err != nil {
		// broken pipe; tear the connection down so the retry redials
		s.conn.Close()
		s.conn = nil
		return fmt.Errorf("failed to write batch: %w", err)
	}
	return nil
}

// connectLocked reuses a live connection when one exists. A failed dial arms
// the reconnect gate: until it expires, further attempts short-circuit with
// ErrReconnectPending.
func (s *NetworkSink) connectLocked(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}
	if s.clk.Now().Before(s.reconnectTime) {
		return ErrReconnectPending
	}

	var d net.Dialer
	ctx, cancel := context.WithTimeout(ctx, s.opts.ConnectTimeout)
	defer cancel()

	conn, err := d.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		gate := s.retry.currentDelay
		if gate <= 0 {
			gate = s.opts.Retry.InitialDelay
		}
		s.reconnectTime = s.clk.Now().Add(gate)
		return fmt.Errorf("failed to dial collector at %s: %w", s.addr, err)
	}
	s.conn = conn
	return nil
}

func (s *NetworkSink) buildRequest(body []byte) []byte {
	contentType := "application/json"
	if s.opts.Encoding == EncodingMsgpack {
		contentType = "application/msgpack"
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "POST %s HTTP/1.1\r\n", s.opts.Endpoint.Path)
	fmt.Fprintf(&b, "Host: %s\r\n", s.opts.Endpoint.Host)
	fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType)
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(body))
	b.WriteString("Connection: keep-alive\r\n\r\n")
	b.Write(body)
	return b.Bytes()
}

// Close flushes the pending batch best-effort, closes the connection, and
// releases a pooled buffer.
func (s *NetworkSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if err := s.flushLocked(); err != nil {
		errs = append(errs, err)
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			errs = append(errs, err)
		}
		s.conn = nil
	}
	if s.opts.Pool != nil {
		s.opts.Pool.Release(s.ring)
	}
	return errors.Join(errs...)
}

// BufferStats exposes the sink's ring buffer counters.
func (s *NetworkSink) BufferStats() RingBufferStats { return s.ring.Stats() }
