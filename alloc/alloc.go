// Package alloc provides the single memory source used for data moved across
// the host boundary. One allocator is installed per module instance, exactly
// once, before the first register read.
//
// The strategy is chosen at compile time: a bump Arena by default, or the
// map-tracked allocator when built with the nesdie_tracked_alloc tag.
package alloc

import (
	"errors"
	"fmt"
)

// DefaultArenaSize is the capacity of the default arena.
const DefaultArenaSize = 1 << 20

var (
	// ErrOutOfMemory is matched by every *OutOfMemoryError.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrAlreadyConfigured is returned by a second call to Configure.
	ErrAlreadyConfigured = errors.New("alloc: allocator already configured")

	// ErrInvalidAlignment is returned for an alignment that is zero or not a
	// power of two.
	ErrInvalidAlignment = errors.New("alloc: alignment must be a power of two")
)

// Allocator hands out regions of the module's memory.
type Allocator interface {
	// Allocate returns a zeroed region of exactly size bytes whose first
	// byte is aligned to align.
	Allocate(size, align uint32) ([]byte, error)
	// Deallocate releases a region previously returned by Allocate.
	Deallocate(region []byte)
	// Reset releases every region at once.
	Reset()
	Stats() Stats
}

// Stats describes allocator usage.
type Stats struct {
	Capacity    uint64
	InUse       uint64
	Peak        uint64
	Allocations int
}

// OutOfMemoryError reports a request the allocator could not satisfy.
type OutOfMemoryError struct {
	Requested uint64
	Capacity  uint64
	InUse     uint64
}

func (e *OutOfMemoryError) Error() string {
	return fmt.Sprintf("alloc: out of memory (requested: %d bytes, in use: %d bytes, capacity: %d bytes)",
		e.Requested, e.InUse, e.Capacity)
}

func (e *OutOfMemoryError) Is(target error) bool {
	return target == ErrOutOfMemory
}

type config struct {
	arenaSize uint32
}

// Option configures the process-wide allocator.
type Option func(*config)

// WithArenaSize sets the capacity in bytes.
func WithArenaSize(n uint32) Option {
	return func(c *config) {
		c.arenaSize = n
	}
}

var active Allocator

// Configure installs the process-wide allocator. It may run only once; later
// calls return ErrAlreadyConfigured and leave the allocator untouched.
func Configure(opts ...Option) error {
	if active != nil {
		return ErrAlreadyConfigured
	}
	cfg := config{arenaSize: DefaultArenaSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	active = newStrategy(cfg)
	return nil
}

// Default returns the installed allocator, configuring it with defaults on
// first use.
func Default() Allocator {
	if active == nil {
		_ = Configure()
	}
	return active
}

// Install replaces the process-wide allocator and returns the previous one,
// which may be nil. Hosts and tests use it to run calls against a specific
// arena.
func Install(a Allocator) Allocator {
	prev := active
	active = a
	return prev
}

// Allocate draws from the process-wide allocator.
func Allocate(size, align uint32) ([]byte, error) {
	region, err := Default().Allocate(size, align)
	if err != nil {
		return nil, outOfMemory(err)
	}
	return region, nil
}

// Bytes allocates a byte-aligned region of n bytes.
func Bytes(n uint64) ([]byte, error) {
	if n > uint64(^uint32(0)) {
		st := Default().Stats()
		return nil, outOfMemory(&OutOfMemoryError{Requested: n, Capacity: st.Capacity, InUse: st.InUse})
	}
	return Allocate(uint32(n), 1)
}

func validAlign(align uint32) bool {
	return align != 0 && align&(align-1) == 0
}
