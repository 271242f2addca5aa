package compositor

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// wl_shm opcodes (requests).
const (
	shmCreatePool Opcode = 0
)

// wl_shm event opcodes.
const (
	shmEventFormat Opcode = 0
)

// wl_shm_pool opcodes (requests).
const (
	shmPoolCreateBuffer Opcode = 0
	shmPoolDestroy      Opcode = 1
	shmPoolResize       Opcode = 2
)

// wl_buffer opcodes (requests).
const (
	bufferDestroy Opcode = 0
)

// wl_buffer event opcodes.
const (
	bufferEventRelease Opcode = 0
)

// ShmFormat is a wl_shm pixel format code.
type ShmFormat uint32

// Mandatory formats.
const (
	ShmFormatARGB8888 ShmFormat = 0
	ShmFormatXRGB8888 ShmFormat = 1
)

// bytesPerPixel returns the pixel stride unit used to validate buffer
// geometry. Every format, including the two mandatory 32bpp ones, is
// treated as 4 bytes per pixel, so stride>=w*4 is required for all.
func bytesPerPixel(format ShmFormat) int32 {
	switch format {
	case ShmFormatARGB8888, ShmFormatXRGB8888:
		return 4
	default:
		return 4
	}
}

// ShmPool is a client-provided shared-memory region. The kernel owns the fd
// until pool destruction and mmaps lazily on first read.
type ShmPool struct {
	id   EntityID
	mu   sync.Mutex
	fd   int
	size int32
	data []byte // lazily mmapped view
	refs int    // buffers created from this pool; destroying the pool does not invalidate them
}

// ShmPools tracks every pool and buffer a client has created, validating
// buffer geometry against pool bounds.
type ShmPools struct {
	ids *IDRegistry

	mu      sync.Mutex
	pools   map[EntityID]*ShmPool
	buffers map[EntityID]*ShmBuffer
}

// NewShmPools constructs an empty pool/buffer tracker.
func NewShmPools(ids *IDRegistry) *ShmPools {
	return &ShmPools{
		ids:     ids,
		pools:   make(map[EntityID]*ShmPool),
		buffers: make(map[EntityID]*ShmBuffer),
	}
}

// CreatePool registers a new pool from a client-supplied fd and length.
func (s *ShmPools) CreatePool(fd int, size int32) (*ShmPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: pool size %d", ErrPoolTooSmall, size)
	}
	p := &ShmPool{id: s.ids.Next(), fd: fd, size: size}
	s.mu.Lock()
	s.pools[p.id] = p
	s.mu.Unlock()
	return p, nil
}

// Resize grows a pool. Pools may never shrink.
func (s *ShmPools) Resize(pool *ShmPool, size int32) error {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	if size < pool.size {
		return fmt.Errorf("%w: from %d to %d", ErrPoolShrink, pool.size, size)
	}
	pool.size = size
	if pool.data != nil {
		// Existing mapping is now short; drop it so the next read remaps at
		// the new length.
		_ = unix.Munmap(pool.data)
		pool.data = nil
	}
	return nil
}

// mapped returns (and lazily creates) the pool's memory mapping.
func (p *ShmPool) mapped() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data != nil {
		return p.data, nil
	}
	data, err := unix.Mmap(p.fd, 0, int(p.size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("compositor: mmap shm pool: %w", err)
	}
	p.data = data
	return data, nil
}

// DestroyPool marks a pool destroyed. Buffers already created from it
// outlive the pool; the mapping and fd are released once the last
// referencing buffer is destroyed.
func (s *ShmPools) DestroyPool(pool *ShmPool) {
	s.mu.Lock()
	delete(s.pools, pool.id)
	s.mu.Unlock()

	pool.mu.Lock()
	refs := pool.refs
	pool.mu.Unlock()
	if refs == 0 {
		pool.release()
	}
}

func (p *ShmPool) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data != nil {
		_ = unix.Munmap(p.data)
		p.data = nil
	}
	if p.fd >= 0 {
		_ = unix.Close(p.fd)
		p.fd = -1
	}
}

// ShmBuffer is a rectangular view into a pool, usable as a surface's pixel
// source once attached.
type ShmBuffer struct {
	id             EntityID
	pool           *ShmPool
	offset         int32
	width, height  int32
	stride         int32
	format         ShmFormat
	mu             sync.Mutex
	current        bool // currently the "current" buffer of at least one surface
	releasePending bool
}

// CreateBuffer validates and registers a buffer view into pool: w>0, h>0,
// stride>=w*bpp, offset+stride*h<=pool.size.
func (s *ShmPools) CreateBuffer(pool *ShmPool, offset, width, height, stride int32, format ShmFormat) (*ShmBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrPoolTooSmall, width, height)
	}
	minStride := width * bytesPerPixel(format)
	if stride < minStride {
		return nil, fmt.Errorf("%w: have %d need >= %d", ErrBadStride, stride, minStride)
	}
	pool.mu.Lock()
	fits := offset >= 0 && int64(offset)+int64(stride)*int64(height) <= int64(pool.size)
	if fits {
		pool.refs++
	}
	pool.mu.Unlock()
	if !fits {
		return nil, fmt.Errorf("%w: offset=%d stride=%d height=%d pool=%d",
			ErrPoolTooSmall, offset, stride, height, pool.size)
	}

	b := &ShmBuffer{
		id:     s.ids.Next(),
		pool:   pool,
		offset: offset,
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}
	s.mu.Lock()
	s.buffers[b.id] = b
	s.mu.Unlock()
	return b, nil
}

// Bytes returns the buffer's pixel data, read from its pool's mapping.
func (b *ShmBuffer) Bytes() ([]byte, error) {
	data, err := b.pool.mapped()
	if err != nil {
		return nil, err
	}
	end := int64(b.offset) + int64(b.stride)*int64(b.height)
	if end > int64(len(data)) {
		return nil, fmt.Errorf("%w: pool shrank under buffer", ErrPoolTooSmall)
	}
	return data[b.offset:end], nil
}

func (b *ShmBuffer) Width() int32       { return b.width }
func (b *ShmBuffer) Height() int32      { return b.height }
func (b *ShmBuffer) Stride() int32      { return b.stride }
func (b *ShmBuffer) Format() ShmFormat  { return b.format }
func (b *ShmBuffer) ID() EntityID       { return b.id }

// DestroyBuffer removes a buffer and drops its pool reference, releasing the
// pool's fd/mapping if that was the last outstanding buffer on an already
// destroyed pool.
func (s *ShmPools) DestroyBuffer(b *ShmBuffer) {
	s.mu.Lock()
	delete(s.buffers, b.id)
	s.mu.Unlock()

	pool := b.pool
	pool.mu.Lock()
	pool.refs--
	_, stillRegistered := s.poolRegistered(pool.id)
	shouldRelease := pool.refs == 0 && !stillRegistered
	pool.mu.Unlock()
	if shouldRelease {
		pool.release()
	}
}

func (s *ShmPools) poolRegistered(id EntityID) (*ShmPool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pools[id]
	return p, ok
}
