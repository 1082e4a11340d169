// Package register implements the length-then-copy protocol for moving
// variable-length data between the module and the host.
//
// The host keeps a set of numbered byte buffers ("registers") for the
// duration of a call. Imports that produce data of unknown size write it to a
// register; the module asks for the length, allocates exactly that much and
// asks the host to copy. Register contents never outlive the call.
package register

import (
	"errors"
	"fmt"
	"math"

	"github.com/austinabell/nesdie/alloc"
	"github.com/austinabell/nesdie/sys"
)

// ID names a host register.
type ID = uint64

const (
	// AtomicOp is the scratch register used by single-shot imports.
	AtomicOp ID = 0
	// Evicted receives the previous value displaced by storage_write and
	// storage_remove.
	Evicted ID = math.MaxUint64 - 1
)

// notSet is what register_len reports for a register holding no data. A set
// register may still have length zero.
const notSet = math.MaxUint64

var (
	// ErrNotSet reports that the host holds no data under the register. It
	// is a normal outcome callers branch on, not a failure.
	ErrNotSet = errors.New("register: not set")

	// ErrBufferTooSmall is returned by ReadInto when the register does not
	// fit the caller's buffer.
	ErrBufferTooSmall = errors.New("register: buffer too small")
)

// Len returns the length of the data held under id, and false when the
// register is not set.
func Len(id ID) (uint64, bool) {
	n := sys.RegisterLen(id)
	if n == notSet {
		return 0, false
	}
	return n, true
}

// Read copies the register's content into a region drawn from the module's
// allocator. Allocation failures are returned unchanged.
func Read(id ID) ([]byte, error) {
	n, ok := Len(id)
	if !ok {
		return nil, ErrNotSet
	}
	buf, err := alloc.Bytes(n)
	if err != nil {
		return nil, fmt.Errorf("register %d: %w", id, err)
	}
	if n > 0 {
		sys.ReadRegister(id, sys.Ptr(buf))
	}
	return buf, nil
}

// ReadInto copies the register into buf without allocating and returns the
// number of bytes written.
func ReadInto(id ID, buf []byte) (int, error) {
	n, ok := Len(id)
	if !ok {
		return 0, ErrNotSet
	}
	if n > uint64(len(buf)) {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferTooSmall, n, len(buf))
	}
	if n > 0 {
		sys.ReadRegister(id, sys.Ptr(buf[:n]))
	}
	return int(n), nil
}

// Write hands data to the host to keep under id.
func Write(id ID, data []byte) {
	sys.WriteRegister(id, uint64(len(data)), sys.Ptr(data))
}
