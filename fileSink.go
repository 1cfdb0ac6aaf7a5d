package ringlog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// FileSink buffers rendered records in a ring buffer and flushes them to a
// log file, rotating it by size, elapsed time, or both. Rotated files are
// renamed into a bounded chain and optionally compressed.
//
// If reopening the file after a rotation fails, the sink stays usable for
// buffering but flushes fail until the caller recreates it; there is no
// auto-recovery loop.
type FileSink struct {
	opts *FileSinkOptions

	mu   sync.Mutex
	ring *RingBuffer
	file *os.File
	clk  clock

	currentSize  int64
	lastRotation time.Time
	lastFlush    time.Time
	rotations    uint64
}

// NewFileSink opens (or creates) the log file at opts.Path and returns the
// sink. Invalid option values other than the path are coerced to defaults.
func NewFileSink(opts *FileSinkOptions) (*FileSink, error) {
	if opts == nil {
		opts = DefaultFileSinkOptions()
	} else {
		opts.resolve()
	}
	if opts.Path == "" {
		return nil, &ConfigError{Field: "path", Reason: "must not be empty"}
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

	s := &FileSink{
		opts: opts,
		ring: ring,
		clk:  realClock{},
	}

	if err := s.openFile(); err != nil {
		if opts.Pool != nil {
			opts.Pool.Release(ring)
		}
		return nil, err
	}
	now := s.clk.Now()
	s.lastRotation = now
	s.lastFlush = now
	return s, nil
}

func (s *FileSink) openFile() error {
	flag := os.O_CREATE | os.O_WRONLY
	if s.opts.Mode == ModeTruncate {
		flag |= os.O_TRUNC
	} else {
		flag |= os.O_APPEND
	}
	f, err := os.OpenFile(s.opts.Path, flag, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", s.opts.Path, err)
	}
	s.file = f
	s.currentSize = 0
	if info, err := f.Stat(); err == nil {
		// existing content counts toward the size trigger
		s.currentSize = info.Size()
	}
	return nil
}

func (s *FileSink) WriteRaw(level Level, msg string, meta map[string]any) error {
	if level < s.opts.MinLevel {
		return nil
	}
	return s.WriteFormatted(s.opts.Format(level, msg, meta))
}

func (s *FileSink) WriteFormatted(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ring.Write(p); err != nil {
		if !errors.Is(err, ErrBufferFull) {
			return err
		}
		// make room by pushing the current buffer out first
		if ferr := s.flushLocked(); ferr != nil {
			return ferr
		}
		if _, err := s.ring.Write(p); err != nil {
			return err
		}
	}
	s.currentSize += int64(len(p))

	// size is checked after accounting for the just-written bytes, and a
	// rotation fires at most once per write
	if s.opts.EnableRotation && s.rotationDueLocked() {
		return s.rotateLocked()
	}
	if s.flushDueLocked() {
		return s.flushLocked()
	}
	return nil
}

// Flush drains the ring buffer into the file.
func (s *FileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// Close flushes pending bytes, closes the file, and releases a pooled
// buffer.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if err := s.flushLocked(); err != nil {
		errs = append(errs, err)
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			errs = append(errs, err)
		}
		s.file = nil
	}
	if s.opts.Pool != nil {
		s.opts.Pool.Release(s.ring)
	}
	return errors.Join(errs...)
}

// BufferStats exposes the sink's ring buffer counters.
func (s *FileSink) BufferStats() RingBufferStats { return s.ring.Stats() }

// Rotations returns the number of completed rotations.
func (s *FileSink) Rotations() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotations
}

func (s *FileSink) rotationDueLocked() bool {
	bySize := s.currentSize >= s.opts.MaxSize
	byTime := s.clk.Now().Sub(s.lastRotation) >= s.opts.RotationInterval
	switch s.opts.RotationMode {
	case RotateByTime:
		return byTime
	case RotateByBoth:
		return bySize || byTime
	default:
		return bySize
	}
}

func (s *FileSink) flushDueLocked() bool {
	return s.ring.Len() > s.opts.BufferSize/2 ||
		s.clk.Now().Sub(s.lastFlush) >= s.opts.FlushInterval
}

func (s *FileSink) flushLocked() error {
	s.lastFlush = s.clk.Now()
	if s.ring.Len() == 0 {
		return nil
	}
	if s.file == nil {
		// keep the bytes buffered; the sink is in its error state
		return fmt.Errorf("log file %s unavailable after failed reopen", s.opts.Path)
	}
	data := s.ring.ReadAll()
	if _, err := s.file.Write(data); err != nil {
		return fmt.Errorf("failed to write log file %s: %w", s.opts.Path, err)
	}
	return nil
}

// rotateLocked drives one pass of the rotation state machine: flush, close,
// shift the chain, rename the closed file into slot one, compress it, then
// reopen a fresh file. Per-file rename and delete failures during the shift
// are logged and skipped; losing one historical file is less harmful than
// losing the ability to rotate.
func (s *FileSink) rotateLocked() error {
	if err := s.flushLocked(); err != nil {
		return err
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			InternalLogger().Printf("rotation: failed to close %s: %v", s.opts.Path, err)
		}
		s.file = nil
	}

	now := s.clk.Now()
	if strings.Contains(s.opts.RotationPattern, "{index}") {
		s.shiftRotatedLocked(now)
	}

	target := s.rotatedName(1, now)
	if err := os.Rename(s.opts.Path, target); err != nil {
		InternalLogger().Printf("rotation: failed to rename %s to %s: %v", s.opts.Path, target, err)
	} else if s.opts.Compression != CompressionNone {
		s.compressRotated(target)
	}

	f, err := os.OpenFile(s.opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		s.lastRotation = now
		return fmt.Errorf("failed to reopen log file after rotation: %w", err)
	}
	s.file = f
	s.currentSize = 0
	if info, err := f.Stat(); err == nil {
		// nonzero only when the rename above failed and we reopened the
		// old file
		s.currentSize = info.Size()
	}
	s.lastRotation = now
	s.rotations++
	return nil
}

// shiftRotatedLocked moves each rotated file one slot up, dropping the one
// that would exceed MaxRotatedFiles.
func (s *FileSink) shiftRotatedLocked(now time.Time) {
	suffix := compressionSuffix(s.opts.Compression)

	oldest := s.rotatedName(s.opts.MaxRotatedFiles, now) + suffix
	if _, err := os.Stat(oldest); err == nil {
		if err := os.Remove(oldest); err != nil {
			InternalLogger().Printf("rotation: failed to remove %s: %v", oldest, err)
		}
	}
	for i := s.opts.MaxRotatedFiles - 1; i >= 1; i-- {
		from := s.rotatedName(i, now) + suffix
		if _, err := os.Stat(from); err != nil {
			continue
		}
		to := s.rotatedName(i+1, now) + suffix
		if err := os.Rename(from, to); err != nil {
			InternalLogger().Printf("rotation: failed to rename %s to %s: %v", from, to, err)
		}
	}
}

func (s *FileSink) rotatedName(index int, now time.Time) string {
	r := strings.NewReplacer(
		"{path}", s.opts.Path,
		"{timestamp}", now.Format("20060102-150405"),
		"{index}", strconv.Itoa(index),
	)
	return r.Replace(s.opts.RotationPattern)
}

// compressRotated compresses path in place, appending the codec suffix and
// deleting the uncompressed file on success. Failures are logged and the
// uncompressed file is kept.
func (s *FileSink) compressRotated(path string) {
	out := path + compressionSuffix(s.opts.Compression)
	if err := compressFile(path, out, s.opts.Compression); err != nil {
		InternalLogger().Printf("rotation: failed to compress %s: %v", path, err)
		return
	}
	if err := os.Remove(path); err != nil {
		InternalLogger().Printf("rotation: failed to remove uncompressed %s: %v", path, err)
	}
}

func compressionSuffix(codec string) string {
	switch codec {
	case CompressionGzip:
		return ".gz"
	case CompressionZstd:
		return ".zst"
	}
	return ""
}

func compressFile(src, dst, codec string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	var w io.WriteCloser
	switch codec {
	case CompressionGzip:
		w = gzip.NewWriter(out)
	case CompressionZstd:
		zw, zerr := zstd.NewWriter(out)
		if zerr != nil {
			out.Close()
			return zerr
		}
		w = zw
	default:
		out.Close()
		return fmt.Errorf("unsupported compression codec: %s", codec)
	}

	if _, err := io.Copy(w, in); err != nil {
		w.Close()
		out.Close()
		return err
	}
	if err := w.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
