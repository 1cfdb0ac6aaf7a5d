package ringlog

import "time"

// Batch encodings for the network sink.
const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"
)

const (
	defaultNetworkPort        = 8080
	defaultNetworkPath        = "/"
	defaultBatchSize          = 32
	defaultNetworkFlush       = time.Second
	defaultConnectTimeout     = 10 * time.Second
	defaultNetworkWriteTime   = 10 * time.Second
	defaultEagerDialTries     = 10
	defaultEagerDialWaitLimit = 20 * time.Second
)

// Endpoint identifies the remote collector a NetworkSink sends batches to.
type Endpoint struct {
	// Host of the collector. Required.
	Host string

	// Port of the collector. The default is 8080.
	Port int

	// Secure requests TLS transport, which is not implemented; constructing
	// a sink with Secure set fails with ErrSecureNotSupported.
	Secure bool

	// Path is the request target of the POST. The default is "/".
	Path string
}

// NetworkSinkOptions are used to customize a NetworkSink.
//
// # Invalid options are coerced, except Endpoint.Host which is required
type NetworkSinkOptions struct {
	// Endpoint is the remote collector address.
	Endpoint Endpoint

	// Retry configures the backoff between failed batch sends.
	Retry RetryOptions

	// MinLevel is the sink's minimum-level filter for raw writes.
	MinLevel Level

	// BufferSize is the capacity of the sink's ring buffer in bytes. The
	// default is 8192.
	BufferSize int

	// BatchSize is the record count that triggers a flush. The default is
	// 32.
	BatchSize int

	// FlushInterval bounds how long a partial batch may wait before being
	// flushed. The default is 1s.
	FlushInterval time.Duration

	// ConnectTimeout bounds each dial. The default is 10s.
	ConnectTimeout time.Duration

	// WriteTimeout bounds each socket write. If negative, no deadline is
	// set. The default is 10s.
	WriteTimeout time.Duration

	// Encoding selects the batch wire encoding: "json" (one object per
	// line) or "msgpack". The default is "json".
	Encoding string

	// EagerDial makes the constructor establish the connection up front
	// instead of on the first flush.
	EagerDial bool

	// MaxEagerDialTries bounds the eager dial loop. If negative, the
	// constructor will not return until a connection is established. The
	// default is 10.
	MaxEagerDialTries int

	// Pool, when set, supplies the sink's ring buffer from a shared
	// BufferPool. The buffer is released on Close.
	Pool *BufferPool
}

// DefaultNetworkSinkOptions returns *NetworkSinkOptions with all default
// values. Endpoint.Host must still be set by the caller.
func DefaultNetworkSinkOptions() *NetworkSinkOptions {
	return &NetworkSinkOptions{
		Endpoint: Endpoint{
			Port: defaultNetworkPort,
			Path: defaultNetworkPath,
		},
		Retry:             DefaultRetryOptions(),
		MinLevel:          LevelInfo,
		BufferSize:        defaultBufferSize,
		BatchSize:         defaultBatchSize,
		FlushInterval:     defaultNetworkFlush,
		ConnectTimeout:    defaultConnectTimeout,
		WriteTimeout:      defaultNetworkWriteTime,
		Encoding:          EncodingJSON,
		MaxEagerDialTries: defaultEagerDialTries,
	}
}

// resolve ensures that all options have valid values.
func (o *NetworkSinkOptions) resolve() {
	if o.Endpoint.Port < 1 || o.Endpoint.Port > 65535 {
		o.Endpoint.Port = defaultNetworkPort
	}
	if o.Endpoint.Path == "" {
		o.Endpoint.Path = defaultNetworkPath
	}
	o.Retry.resolve()
	if o.BufferSize <= 0 {
		o.BufferSize = defaultBufferSize
	}
	if o.BatchSize < 1 {
		o.BatchSize = defaultBatchSize
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = defaultNetworkFlush
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = defaultConnectTimeout
	}
	if o.WriteTimeout == 0 {
		o.WriteTimeout = defaultNetworkWriteTime
	}
	if o.Encoding != EncodingJSON && o.Encoding != EncodingMsgpack {
		o.Encoding = EncodingJSON
	}
	if o.MaxEagerDialTries == 0 {
		o.MaxEagerDialTries = defaultEagerDialTries
	}
}
