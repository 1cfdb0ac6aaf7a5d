package ringlog

import (
	"fmt"
	"sync"
	"time"
)

const (
	defaultBufferSize          = 8192
	defaultCompactionThreshold = 75
)

// RingBuffer is a fixed-capacity circular byte buffer with overflow and
// underflow signaling. All operations are goroutine-safe and synchronous; the
// buffer never retries on its own, retry is a sink-level policy.
//
// A buffer with readPos == writePos is either completely empty or completely
// full; the full flag disambiguates this single degenerate case. Used length
// is always derived from the cursor positions and the flag.
type RingBuffer struct {
	mu       sync.Mutex
	buf      []byte
	readPos  int
	writePos int
	full     bool

	// compactionThreshold is the integer fragmentation percentage above
	// which Write attempts compaction before giving up.
	compactionThreshold int

	totalWritten   uint64
	compactions    uint64
	lastCompaction time.Time
}

// RingBufferStats is a point-in-time snapshot of a buffer's state plus its
// lifetime counters.
type RingBufferStats struct {
	Capacity             int
	Used                 int
	Available            int
	TotalBytesWritten    uint64
	Compactions          uint64
	FragmentationPercent int
}

// NewRingBuffer allocates a buffer with the given capacity. Non-positive
// capacities are coerced to the default.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = defaultBufferSize
	}
	return &RingBuffer{
		buf:                 make([]byte, capacity),
		compactionThreshold: defaultCompactionThreshold,
	}
}

// SetCompactionThreshold sets the fragmentation percentage above which Write
// attempts compaction. Values outside [1, 100] are ignored.
func (r *RingBuffer) SetCompactionThreshold(percent int) {
	if percent < 1 || percent > 100 {
		return
	}
	r.mu.Lock()
	r.compactionThreshold = percent
	r.mu.Unlock()
}

// Write copies p into the buffer in one atomic step. It returns
// ErrBufferOverflow when p is larger than the total capacity, and
// ErrBufferFull when the buffer cannot hold p even after compaction. A failed
// write never stores a partial prefix.
func (r *RingBuffer) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(p) > len(r.buf) {
		return 0, fmt.Errorf("write of %d bytes into capacity %d: %w", len(p), len(r.buf), ErrBufferOverflow)
	}
	if len(p) == 0 {
		return 0, nil
	}

	if r.availableLocked() < len(p) {
		if r.fragmentationPercentLocked() > r.compactionThreshold {
			r.compactLocked()
		}
		if r.availableLocked() < len(p) {
			return 0, ErrBufferFull
		}
	}

	n := copy(r.buf[r.writePos:], p)
	if n < len(p) {
		copy(r.buf, p[n:])
	}
	r.writePos = (r.writePos + len(p)) % len(r.buf)
	if r.writePos == r.readPos {
		r.full = true
	}
	r.totalWritten += uint64(len(p))
	return len(p), nil
}

// Read drains up to len(p) bytes in FIFO order, oldest-written first. It
// returns ErrBufferUnderflow if and only if the buffer is empty at call time.
func (r *RingBuffer) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	used := r.usedLocked()
	if used == 0 {
		return 0, ErrBufferUnderflow
	}
	n := len(p)
	if n > used {
		n = used
	}
	if n == 0 {
		return 0, nil
	}

	first := copy(p[:n], r.buf[r.readPos:])
	if first < n {
		copy(p[first:n], r.buf)
	}
	r.readPos = (r.readPos + n) % len(r.buf)
	r.full = false
	return n, nil
}

// ReadAll drains the entire logical content in one call, returning nil when
// the buffer is empty.
func (r *RingBuffer) ReadAll() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	used := r.usedLocked()
	if used == 0 {
		return nil
	}
	out := make([]byte, used)
	first := len(r.buf) - r.readPos
	if first > used {
		first = used
	}
	copy(out, r.buf[r.readPos:r.readPos+first])
	copy(out[first:], r.buf[:used-first])
	r.readPos = (r.readPos + used) % len(r.buf)
	r.full = false
	return out
}

// Peek returns a copy of the logical content in FIFO order without draining
// it. It returns nil when the buffer is empty.
func (r *RingBuffer) Peek() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	used := r.usedLocked()
	if used == 0 {
		return nil
	}
	out := make([]byte, used)
	first := len(r.buf) - r.readPos
	if first > used {
		first = used
	}
	copy(out, r.buf[r.readPos:r.readPos+first])
	copy(out[first:], r.buf[:used-first])
	return out
}

// Compact relocates the logical content to start at offset zero, eliminating
// wraparound. It is a no-op when the buffer is empty or the content is
// already contiguous; compaction exists only to remove wraparound, not to
// shift contiguous data. Byte order and content are preserved exactly.
func (r *RingBuffer) Compact() {
	r.mu.Lock()
	r.compactLocked()
	r.mu.Unlock()
}

func (r *RingBuffer) compactLocked() {
	used := r.usedLocked()
	if used == 0 {
		return
	}
	if r.readPos < r.writePos {
		return // contiguous, nothing to do
	}
	if r.readPos == 0 {
		return // contiguous from the start, including the full case
	}

	tmp := make([]byte, used)
	n := copy(tmp, r.buf[r.readPos:])
	copy(tmp[n:], r.buf[:r.writePos])
	copy(r.buf, tmp)

	r.readPos = 0
	r.writePos = used % len(r.buf)
	r.full = used == len(r.buf)
	r.compactions++
	r.lastCompaction = time.Now()
}

// Reset discards the logical content, keeping the backing storage and the
// lifetime counters.
func (r *RingBuffer) Reset() {
	r.mu.Lock()
	r.readPos = 0
	r.writePos = 0
	r.full = false
	r.mu.Unlock()
}

// Capacity returns the fixed size of the backing storage.
func (r *RingBuffer) Capacity() int { return len(r.buf) }

// Len returns the number of logical bytes currently held.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usedLocked()
}

// Available returns the number of free bytes.
func (r *RingBuffer) Available() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.availableLocked()
}

// Fragmentation returns the current fragmentation percentage: the free bytes
// stranded by content wraparound, relative to capacity. It is zero when the
// content is contiguous and zero when the buffer is completely full or empty.
func (r *RingBuffer) Fragmentation() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fragmentationPercentLocked()
}

// Stats returns a snapshot of the buffer state and its lifetime counters.
func (r *RingBuffer) Stats() RingBufferStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RingBufferStats{
		Capacity:             len(r.buf),
		Used:                 r.usedLocked(),
		Available:            r.availableLocked(),
		TotalBytesWritten:    r.totalWritten,
		Compactions:          r.compactions,
		FragmentationPercent: r.fragmentationPercentLocked(),
	}
}

func (r *RingBuffer) usedLocked() int {
	if r.full {
		return len(r.buf)
	}
	if r.writePos >= r.readPos {
		return r.writePos - r.readPos
	}
	return len(r.buf) - r.readPos + r.writePos
}

func (r *RingBuffer) availableLocked() int {
	return len(r.buf) - r.usedLocked()
}

// fragmentedLocked returns the free bytes that sit between the wrapped halves
// of the content. Zero when the content is contiguous, or the buffer is full
// or empty.
func (r *RingBuffer) fragmentedLocked() int {
	if r.full {
		return 0
	}
	if r.usedLocked() == 0 {
		return 0
	}
	if r.writePos < r.readPos {
		return r.readPos - r.writePos
	}
	return 0
}

func (r *RingBuffer) fragmentationPercentLocked() int {
	return r.fragmentedLocked() * 100 / len(r.buf)
}
