package ringlog

import (
	"errors"
	"fmt"
)

// Buffer error taxonomy. These are sentinel values so callers can branch on
// them with errors.Is.
var (
	// ErrBufferOverflow is returned when a single write is larger than the
	// buffer's total capacity and therefore can never fit.
	ErrBufferOverflow = errors.New("write exceeds buffer capacity")

	// ErrBufferUnderflow is returned when reading from an empty buffer.
	ErrBufferUnderflow = errors.New("read from empty buffer")

	// ErrBufferFull is returned when a buffer (or pool) has no space left,
	// even after compaction.
	ErrBufferFull = errors.New("buffer full")

	// ErrSecureNotSupported is returned when a network sink is configured
	// with a secure endpoint. TLS transport is not implemented.
	ErrSecureNotSupported = errors.New("secure endpoints are not supported")

	// ErrReconnectPending is returned when a connection attempt is gated
	// because a recent one failed and the backoff window has not yet passed.
	ErrReconnectPending = errors.New("reconnect pending")
)

// ConfigError reports an invalid sink or dispatcher configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// NetworkError reports that a batch send failed after exhausting all retry
// attempts. It wraps the error from the final attempt.
type NetworkError struct {
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("send failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
