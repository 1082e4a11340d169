package alloc

import (
	"sync"
	"unsafe"
)

// Tracked keeps every live region in a map keyed by address, which keeps the
// backing arrays reachable until they are released, and enforces a ceiling on
// the total bytes outstanding.
type Tracked struct {
	mu          sync.Mutex
	regions     map[uintptr][]byte
	limit       uint64
	inUse       uint64
	peak        uint64
	allocations int
}

// NewTracked returns a tracked allocator that refuses to hold more than limit
// bytes at once.
func NewTracked(limit uint64) *Tracked {
	return &Tracked{regions: make(map[uintptr][]byte), limit: limit}
}

// Allocate implements Allocator.
func (t *Tracked) Allocate(size, align uint32) ([]byte, error) {
	if !validAlign(align) {
		return nil, ErrInvalidAlignment
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.inUse+uint64(size) > t.limit {
		return nil, &OutOfMemoryError{Requested: uint64(size), Capacity: t.limit, InUse: t.inUse}
	}
	if size == 0 {
		return []byte{}, nil
	}

	// Over-allocate so an aligned window of size bytes always fits.
	raw := make([]byte, int(size)+int(align)-1)
	//nolint:gosec // G103: address arithmetic for alignment only
	addr := uintptr(unsafe.Pointer(&raw[0]))
	skip := int((addr+uintptr(align)-1)&^(uintptr(align)-1) - addr)
	region := raw[skip : skip+int(size) : skip+int(size)]

	//nolint:gosec // G103: address is used as a map key only
	t.regions[uintptr(unsafe.Pointer(&region[0]))] = raw
	t.inUse += uint64(size)
	if t.inUse > t.peak {
		t.peak = t.inUse
	}
	t.allocations++
	return region, nil
}

// Deallocate releases region. Unknown and already released regions are
// ignored.
func (t *Tracked) Deallocate(region []byte) {
	if len(region) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	//nolint:gosec // G103: address is used as a map key only
	key := uintptr(unsafe.Pointer(&region[0]))
	if _, ok := t.regions[key]; !ok {
		return
	}
	delete(t.regions, key)
	t.allocations--
	// Account by the requested length, clamped so a mismatched region can
	// never drive the counter negative.
	if uint64(len(region)) > t.inUse {
		t.inUse = 0
	} else {
		t.inUse -= uint64(len(region))
	}
}

// Reset releases every tracked region.
func (t *Tracked) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	clear(t.regions)
	t.inUse = 0
	t.allocations = 0
}

// Stats implements Allocator.
func (t *Tracked) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Stats{Capacity: t.limit, InUse: t.inUse, Peak: t.peak, Allocations: t.allocations}
}
