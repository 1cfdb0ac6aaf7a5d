package ringlog

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

func newTestFileSink(t *testing.T, opts *FileSinkOptions) *FileSink {
	t.Helper()
	if opts.Path == "" {
		opts.Path = filepath.Join(t.TempDir(), "test.log")
	}
	if opts.FlushInterval == 0 {
		// keep the time trigger out of the way unless a test wants it
		opts.FlushInterval = time.Hour
	}
	s, err := NewFileSink(opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFileSink_WriteAndFlush(t *testing.T) {
	s := newTestFileSink(t, &FileSinkOptions{})

	require.NoError(t, s.WriteRaw(LevelInfo, "hello", map[string]any{"user": "ops"}))
	require.NoError(t, s.Flush())

	data, err := os.ReadFile(s.opts.Path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[INFO] hello user=ops")
}

func TestFileSink_MinLevelFilter(t *testing.T) {
	s := newTestFileSink(t, &FileSinkOptions{MinLevel: LevelWarn})

	require.NoError(t, s.WriteRaw(LevelInfo, "dropped", nil))
	require.NoError(t, s.WriteRaw(LevelError, "kept", nil))
	require.NoError(t, s.Flush())

	data, err := os.ReadFile(s.opts.Path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "dropped")
	require.Contains(t, string(data), "kept")
}

func TestFileSink_FlushOnHalfFullBuffer(t *testing.T) {
	s := newTestFileSink(t, &FileSinkOptions{BufferSize: 100})

	// below half the buffer, bytes stay buffered
	require.NoError(t, s.WriteFormatted(bytes.Repeat([]byte("a"), 10)))
	data, err := os.ReadFile(s.opts.Path)
	require.NoError(t, err)
	require.Empty(t, data)

	// crossing half the buffer triggers a flush
	require.NoError(t, s.WriteFormatted(bytes.Repeat([]byte("b"), 45)))
	data, err = os.ReadFile(s.opts.Path)
	require.NoError(t, err)
	require.Len(t, data, 55)
}

func TestFileSink_RotationBySize(t *testing.T) {
	s := newTestFileSink(t, &FileSinkOptions{
		EnableRotation: true,
		RotationMode:   RotateBySize,
		MaxSize:        100,
	})

	// 90 bytes: under the limit, no rotation
	require.NoError(t, s.WriteFormatted(bytes.Repeat([]byte("x"), 90)))
	require.EqualValues(t, 0, s.Rotations())

	// 20 more push the size from 90 to 110: exactly one rotation
	require.NoError(t, s.WriteFormatted(bytes.Repeat([]byte("y"), 20)))
	require.EqualValues(t, 1, s.Rotations())

	rotated, err := os.ReadFile(s.opts.Path + ".1")
	require.NoError(t, err)
	require.Len(t, rotated, 110, "the previous file's full content moves to slot one")

	fresh, err := os.ReadFile(s.opts.Path)
	require.NoError(t, err)
	require.Empty(t, fresh, "a new empty file exists at the original path")

	_, err = os.Stat(s.opts.Path + ".2")
	require.True(t, os.IsNotExist(err), "a single trigger must not rotate twice")
}

func TestFileSink_RotationShiftChain(t *testing.T) {
	s := newTestFileSink(t, &FileSinkOptions{
		EnableRotation:  true,
		MaxSize:         10,
		MaxRotatedFiles: 2,
	})

	for _, marker := range []string{"first", "second", "third"} {
		require.NoError(t, s.WriteFormatted([]byte(marker+strings.Repeat(".", 10)+"\n")))
	}
	require.EqualValues(t, 3, s.Rotations())

	slot1, err := os.ReadFile(s.opts.Path + ".1")
	require.NoError(t, err)
	require.Contains(t, string(slot1), "third")

	slot2, err := os.ReadFile(s.opts.Path + ".2")
	require.NoError(t, err)
	require.Contains(t, string(slot2), "second")

	_, err = os.Stat(s.opts.Path + ".3")
	require.True(t, os.IsNotExist(err), "the file exceeding MaxRotatedFiles is dropped")
}

func TestFileSink_RotationByTime(t *testing.T) {
	s := newTestFileSink(t, &FileSinkOptions{
		EnableRotation:   true,
		RotationMode:     RotateByTime,
		RotationInterval: time.Hour,
	})
	fc := newFakeClock()
	s.clk = fc
	s.lastRotation = fc.Now()
	s.lastFlush = fc.Now()

	require.NoError(t, s.WriteFormatted([]byte("before\n")))
	require.EqualValues(t, 0, s.Rotations())

	fc.Advance(2 * time.Hour)
	require.NoError(t, s.WriteFormatted([]byte("after\n")))
	require.EqualValues(t, 1, s.Rotations())

	rotated, err := os.ReadFile(s.opts.Path + ".1")
	require.NoError(t, err)
	require.Contains(t, string(rotated), "before")
	require.Contains(t, string(rotated), "after")
}

func TestFileSink_AppendModeCountsExistingSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("e"), 95), 0644))

	s := newTestFileSink(t, &FileSinkOptions{
		Path:           path,
		Mode:           ModeAppend,
		EnableRotation: true,
		MaxSize:        100,
	})

	require.NoError(t, s.WriteFormatted(bytes.Repeat([]byte("n"), 10)))
	require.EqualValues(t, 1, s.Rotations(), "existing content counts toward the size trigger")

	rotated, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	require.Len(t, rotated, 105)
}

func TestFileSink_TruncateMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	s := newTestFileSink(t, &FileSinkOptions{Path: path, Mode: ModeTruncate})
	require.NoError(t, s.WriteFormatted([]byte("fresh\n")))
	require.NoError(t, s.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "fresh\n", string(data))
}

func TestFileSink_RotationCompression(t *testing.T) {
	s := newTestFileSink(t, &FileSinkOptions{
		EnableRotation: true,
		MaxSize:        10,
		Compression:    CompressionGzip,
	})

	content := "compress me" + strings.Repeat("!", 20) + "\n"
	require.NoError(t, s.WriteFormatted([]byte(content)))
	require.EqualValues(t, 1, s.Rotations())

	_, err := os.Stat(s.opts.Path + ".1")
	require.True(t, os.IsNotExist(err), "the uncompressed rotated file is deleted")

	f, err := os.Open(s.opts.Path + ".1.gz")
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	got, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.Equal(t, content, string(got))
}

func TestFileSink_RotationPattern(t *testing.T) {
	s := newTestFileSink(t, &FileSinkOptions{
		EnableRotation:  true,
		MaxSize:         10,
		RotationPattern: "{path}.old.{index}",
	})

	require.NoError(t, s.WriteFormatted(bytes.Repeat([]byte("p"), 12)))
	require.EqualValues(t, 1, s.Rotations())

	_, err := os.Stat(s.opts.Path + ".old.1")
	require.NoError(t, err)
}

func TestFileSink_ReopenFailureKeepsBuffering(t *testing.T) {
	dir := t.TempDir()
	s := newTestFileSink(t, &FileSinkOptions{
		Path:           filepath.Join(dir, "test.log"),
		EnableRotation: true,
		MaxSize:        10,
	})

	// pull the directory out from under the sink so the post-rotation
	// reopen fails
	require.NoError(t, os.RemoveAll(dir))

	err := s.WriteFormatted(bytes.Repeat([]byte("z"), 12))
	require.Error(t, err, "the rotation that cannot reopen surfaces an error")

	// the sink keeps buffering, but the file side keeps failing until the
	// caller recreates the sink
	require.Error(t, s.WriteFormatted([]byte("still buffered")))
	require.Error(t, s.Flush())
	require.GreaterOrEqual(t, s.BufferStats().Used, len("still buffered"))
}

func TestFileSink_PooledBuffer(t *testing.T) {
	pool := NewBufferPool(256, 1)
	s := newTestFileSink(t, &FileSinkOptions{Pool: pool})

	require.NoError(t, s.WriteFormatted([]byte("pooled\n")))
	require.NoError(t, s.Close())

	// the buffer went back to the pool on Close
	b, err := pool.Acquire()
	require.NoError(t, err)
	require.Zero(t, b.Len())
}

func TestFileSink_EmptyPathRejected(t *testing.T) {
	_, err := NewFileSink(&FileSinkOptions{})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
