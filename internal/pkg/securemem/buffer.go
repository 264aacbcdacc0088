package securemem

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Buffer is a region of hardened memory owned by exactly one holder.
type Buffer struct {
	lb   *memguard.LockedBuffer
	sub  *Subsystem
	once sync.Once
}

// Bytes returns the protected region. The slice is only valid until Free; callers must not retain it.
func (b *Buffer) Bytes() []byte {
	if b == nil || !b.lb.IsAlive() {
		return nil
	}
	return b.lb.Bytes()
}

// Size returns the length of the region, or zero once freed.
func (b *Buffer) Size() int {
	if b == nil || !b.lb.IsAlive() {
		return 0
	}
	return b.lb.Size()
}

// Clone copies the region into a new buffer of the same subsystem.
func (b *Buffer) Clone() (*Buffer, error) {
	if b.Destroyed() {
		return nil, ErrHeapClosed
	}
	lb := memguard.NewBuffer(b.lb.Size())
	lb.Copy(b.lb.Bytes())
	return b.sub.track(lb)
}

// Destroyed reports whether the region has been wiped and released.
func (b *Buffer) Destroyed() bool {
	return b == nil || !b.lb.IsAlive()
}

// Free wipes the region and returns it to the allocator. Safe to call more than once.
func (b *Buffer) Free() {
	if b == nil {
		return
	}
	b.once.Do(func() {
		b.sub.forget(b)
		b.lb.Destroy()
	})
}
