package securemem

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/awnumar/memguard"
)

var (
	// ErrHeapClosed is returned when allocating through a closed handle or a torn down subsystem.
	ErrHeapClosed = errors.New("secure heap is closed")

	// ErrInvalidSize is returned for allocations of zero or negative size.
	ErrInvalidSize = errors.New("invalid secure allocation size")
)

// Subsystem is a reference counted scope over the hardened allocator.
type Subsystem struct {
	mu          sync.Mutex
	refs        int
	initialized bool
	generation  uint64
	live        map[*Buffer]struct{}
}

var defaultSubsystem = NewSubsystem()

// NewSubsystem creates an independent allocator scope. Most callers use Open, which shares the process-wide scope.
func NewSubsystem() *Subsystem {
	return &Subsystem{}
}

// Default returns the process-wide subsystem.
func Default() *Subsystem {
	return defaultSubsystem
}

// Open opens a handle on the process-wide subsystem.
func Open() *Heap {
	return defaultSubsystem.Open()
}

// Open returns a new handle, initializing the subsystem if no other handle is live.
func (s *Subsystem) Open() *Heap {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs == 0 {
		s.live = make(map[*Buffer]struct{})
		s.initialized = true
		s.generation++
	}
	s.refs++

	return &Heap{sub: s}
}

// Initialized reports whether at least one handle keeps the subsystem alive.
func (s *Subsystem) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Handles returns the number of open handles.
func (s *Subsystem) Handles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

// LiveBuffers returns the number of buffers allocated and not yet freed.
func (s *Subsystem) LiveBuffers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Generation increments every time the subsystem is (re)initialized.
func (s *Subsystem) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Subsystem) release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs--
	if s.refs > 0 {
		return
	}

	for b := range s.live {
		b.lb.Destroy()
	}
	s.live = nil
	s.initialized = false
}

func (s *Subsystem) track(lb *memguard.LockedBuffer) (*Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		lb.Destroy()
		return nil, ErrHeapClosed
	}

	b := &Buffer{lb: lb, sub: s}
	s.live[b] = struct{}{}
	return b, nil
}

func (s *Subsystem) forget(b *Buffer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live != nil {
		delete(s.live, b)
	}
}

// Heap is a handle on a Subsystem. Handles are safe for concurrent use; Close is idempotent.
type Heap struct {
	sub    *Subsystem
	closed atomic.Bool
}

// Allocate returns a zeroed hardened buffer of the given size.
func (h *Heap) Allocate(size int) (*Buffer, error) {
	if h.closed.Load() {
		return nil, ErrHeapClosed
	}
	if size <= 0 {
		return nil, fmt.Errorf("failed to allocate %d bytes: %w", size, ErrInvalidSize)
	}

	return h.sub.track(memguard.NewBuffer(size))
}

// AllocateFrom moves src into a hardened buffer. src is wiped whether or not the allocation succeeds.
func (h *Heap) AllocateFrom(src []byte) (*Buffer, error) {
	if h.closed.Load() {
		memguard.WipeBytes(src)
		return nil, ErrHeapClosed
	}
	if len(src) == 0 {
		return nil, fmt.Errorf("failed to allocate from empty source: %w", ErrInvalidSize)
	}

	return h.sub.track(memguard.NewBufferFromBytes(src))
}

// Free overwrites and releases the buffer. It is equivalent to b.Free.
func (h *Heap) Free(b *Buffer) {
	if b != nil {
		b.Free()
	}
}

// Closed reports whether Close has been called on this handle.
func (h *Heap) Closed() bool {
	return h.closed.Load()
}

// Subsystem returns the scope this handle belongs to.
func (h *Heap) Subsystem() *Subsystem {
	return h.sub
}

// Close releases the handle. The last handle to close tears the subsystem down.
func (h *Heap) Close() error {
	if h.closed.CompareAndSwap(false, true) {
		h.sub.release()
	}
	return nil
}
