package ringlog

import "time"

// File open modes.
const (
	ModeAppend   = "append"
	ModeTruncate = "truncate"
)

// Rotation trigger modes.
const (
	RotateBySize = "size"
	RotateByTime = "time"
	RotateByBoth = "both"
)

// Rotated-file compression codecs.
const (
	CompressionNone = "none"
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"
)

const (
	defaultFileMode         = ModeAppend
	defaultFlushInterval    = time.Second
	defaultMaxSize          = int64(10 << 20) // 10 MiB
	defaultRotationMode     = RotateBySize
	defaultRotationInterval = 24 * time.Hour
	defaultMaxRotatedFiles  = 5
	defaultRotationPattern  = "{path}.{index}"
)

// FileSinkOptions are used to customize a FileSink.
//
// # Invalid options are coerced, except Path which is required
type FileSinkOptions struct {
	// Path of the active log file. Required.
	Path string

	// Mode controls how an existing file at Path is opened: "append" keeps
	// its content, "truncate" discards it. The default is "append".
	Mode string

	// MinLevel is the sink's minimum-level filter for raw writes.
	MinLevel Level

	// BufferSize is the capacity of the sink's ring buffer in bytes. A
	// flush is triggered once more than half of it is occupied. The default
	// is 8192.
	BufferSize int

	// FlushInterval bounds how long bytes may sit in the buffer before
	// being flushed regardless of volume. The default is 1s.
	FlushInterval time.Duration

	// EnableRotation turns the rotation state machine on.
	EnableRotation bool

	// RotationMode selects the trigger: "size", "time", or "both". The
	// default is "size".
	RotationMode string

	// MaxSize is the byte count written since the last rotation that
	// triggers a size rotation. The default is 10 MiB.
	MaxSize int64

	// RotationInterval triggers a time rotation once this much time has
	// passed since the last one. The default is 24h.
	RotationInterval time.Duration

	// MaxRotatedFiles bounds the rotated-file chain; the file that would
	// exceed it is deleted during the shift. The default is 5.
	MaxRotatedFiles int

	// Compression selects the codec applied to a freshly rotated file:
	// "none", "gzip", or "zstd". The default is "none".
	Compression string

	// RotationPattern names rotated files, substituting {path}, {timestamp},
	// and {index}. Patterns without {index} produce unique names and skip
	// the shift chain. The default is "{path}.{index}".
	RotationPattern string

	// Format renders raw records. The default is TextFormat.
	Format FormatFunc

	// Pool, when set, supplies the sink's ring buffer from a shared
	// BufferPool instead of a dedicated allocation. The buffer is released
	// on Close.
	Pool *BufferPool
}

// DefaultFileSinkOptions returns *FileSinkOptions with all default values.
// Path must still be set by the caller.
func DefaultFileSinkOptions() *FileSinkOptions {
	return &FileSinkOptions{
		Mode:             defaultFileMode,
		MinLevel:         LevelInfo,
		BufferSize:       defaultBufferSize,
		FlushInterval:    defaultFlushInterval,
		RotationMode:     defaultRotationMode,
		MaxSize:          defaultMaxSize,
		RotationInterval: defaultRotationInterval,
		MaxRotatedFiles:  defaultMaxRotatedFiles,
		Compression:      CompressionNone,
		RotationPattern:  defaultRotationPattern,
		Format:           TextFormat,
	}
}

// resolve ensures that all options have valid values.
func (o *FileSinkOptions) resolve() {
	if o.Mode != ModeAppend && o.Mode != ModeTruncate {
		o.Mode = defaultFileMode
	}
	if o.BufferSize <= 0 {
		o.BufferSize = defaultBufferSize
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = defaultFlushInterval
	}
	if o.RotationMode != RotateBySize && o.RotationMode != RotateByTime && o.RotationMode != RotateByBoth {
		o.RotationMode = defaultRotationMode
	}
	if o.MaxSize <= 0 {
		o.MaxSize = defaultMaxSize
	}
	if o.RotationInterval <= 0 {
		o.RotationInterval = defaultRotationInterval
	}
	if o.MaxRotatedFiles < 1 {
		o.MaxRotatedFiles = defaultMaxRotatedFiles
	}
	if o.Compression != CompressionNone && o.Compression != CompressionGzip && o.Compression != CompressionZstd {
		o.Compression = CompressionNone
	}
	if o.RotationPattern == "" {
		o.RotationPattern = defaultRotationPattern
	}
	if o.Format == nil {
		o.Format = TextFormat
	}
}
