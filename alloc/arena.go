package alloc

import "unsafe"

// Arena is a bump allocator over one fixed block. The block is created once
// and never grows, so every run of the same call sees the same layout.
type Arena struct {
	buf         []byte
	base        uintptr
	off         int
	peak        int
	lastStart   int
	allocations int
}

// NewArena returns an arena with the given capacity in bytes.
func NewArena(capacity uint32) *Arena {
	a := &Arena{buf: make([]byte, capacity), lastStart: -1}
	if capacity > 0 {
		//nolint:gosec // G103: address arithmetic for alignment only
		a.base = uintptr(unsafe.Pointer(&a.buf[0]))
	}
	return a
}

// Allocate implements Allocator.
func (a *Arena) Allocate(size, align uint32) ([]byte, error) {
	if !validAlign(align) {
		return nil, ErrInvalidAlignment
	}
	mask := uintptr(align) - 1
	start := int((a.base+uintptr(a.off)+mask)&^mask - a.base)
	end := start + int(size)
	if end > len(a.buf) || end < start {
		return nil, &OutOfMemoryError{
			Requested: uint64(size),
			Capacity:  uint64(len(a.buf)),
			InUse:     uint64(a.off),
		}
	}

	region := a.buf[start:end:end]
	clear(region)
	a.lastStart = start
	a.off = end
	if end > a.peak {
		a.peak = end
	}
	a.allocations++
	return region, nil
}

// Deallocate rolls the arena back when region is the most recent allocation
// and is otherwise a no-op.
func (a *Arena) Deallocate(region []byte) {
	if a.lastStart < 0 || a.lastStart+len(region) != a.off {
		return
	}
	if len(region) > 0 && unsafe.SliceData(region) != unsafe.SliceData(a.buf[a.lastStart:]) {
		return
	}
	a.off = a.lastStart
	a.lastStart = -1
	a.allocations--
}

// Reset rewinds the arena to empty.
func (a *Arena) Reset() {
	a.off = 0
	a.lastStart = -1
	a.allocations = 0
}

// Stats implements Allocator.
func (a *Arena) Stats() Stats {
	return Stats{
		Capacity:    uint64(len(a.buf)),
		InUse:       uint64(a.off),
		Peak:        uint64(a.peak),
		Allocations: a.allocations,
	}
}
