package ringlog

import "sync"

const defaultMaxBuffers = 16

// BufferPool is a bounded collection of RingBuffers supporting
// acquire-or-create and release-for-reuse. A buffer handed out by Acquire is
// owned by the caller, by convention, until it is passed back to Release.
// Sinks that want buffer reuse instead of per-sink allocation take a pool as
// an option.
type BufferPool struct {
	mu         sync.Mutex
	buffers    []*RingBuffer
	inUse      []bool
	bufferSize int
	maxBuffers int
}

// NewBufferPool creates a pool that hands out buffers of bufferSize bytes,
// growing on demand up to maxBuffers. Non-positive arguments are coerced to
// defaults.
func NewBufferPool(bufferSize, maxBuffers int) *BufferPool {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if maxBuffers <= 0 {
		maxBuffers = defaultMaxBuffers
	}
	return &BufferPool{
		bufferSize: bufferSize,
		maxBuffers: maxBuffers,
	}
}

// Acquire returns an idle buffer, allocating a new one when none is idle and
// the pool has not reached its bound. It fails with ErrBufferFull when every
// buffer is checked out and the pool cannot grow.
func (p *BufferPool) Acquire() (*RingBuffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, b := range p.buffers {
		if !p.inUse[i] && b.Len() == 0 {
			p.inUse[i] = true
			return b, nil
		}
	}
	if len(p.buffers) < p.maxBuffers {
		b := NewRingBuffer(p.bufferSize)
		p.buffers = append(p.buffers, b)
		p.inUse = append(p.inUse, true)
		return b, nil
	}
	return nil, ErrBufferFull
}

// Release returns a buffer to the pool, resetting its cursors for reuse. The
// backing storage is kept. Releasing a buffer that did not come from this
// pool is a programming error and panics.
func (p *BufferPool) Release(b *RingBuffer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, have := range p.buffers {
		if have == b {
			b.Reset()
			p.inUse[i] = false
			return
		}
	}
	panic("ringlog: Release called with a buffer not owned by this pool")
}

// Size returns the number of buffers currently held by the pool.
func (p *BufferPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffers)
}
