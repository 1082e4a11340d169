package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/austinabell/nesdie/dispatch"
	"github.com/austinabell/nesdie/env"
)

// ErrIndexOutOfBounds is returned for an index at or past a Vector's length.
var ErrIndexOutOfBounds = errors.New("index out of bounds")

// Vector is a growable list of T. The length lives under the prefix itself
// and element i under prefix followed by i as 4 little-endian bytes.
type Vector[T any] struct {
	prefix []byte
	codec  dispatch.Codec[T]
}

// NewVector returns a Vector stored under prefix.
func NewVector[T any](prefix []byte, codec dispatch.Codec[T]) *Vector[T] {
	return &Vector[T]{prefix: append([]byte(nil), prefix...), codec: codec}
}

func (v *Vector[T]) indexKey(i uint32) []byte {
	key := make([]byte, 0, len(v.prefix)+4)
	return binary.LittleEndian.AppendUint32(append(key, v.prefix...), i)
}

// Len returns the number of elements.
func (v *Vector[T]) Len() (uint32, error) {
	raw, ok, err := env.StorageRead(v.prefix)
	if err != nil || !ok {
		return 0, err
	}
	if len(raw) != 4 {
		return 0, fmt.Errorf("vector %q: corrupt length of %d bytes", v.prefix, len(raw))
	}
	return binary.LittleEndian.Uint32(raw), nil
}

func (v *Vector[T]) setLen(n uint32) {
	if n == 0 {
		env.StorageRemove(v.prefix)
		return
	}
	env.StorageWrite(v.prefix, binary.LittleEndian.AppendUint32(nil, n))
}

func (v *Vector[T]) encode(x T) ([]byte, error) {
	raw, err := v.codec.Encode(x)
	if err != nil {
		return nil, fmt.Errorf("encode element: %w", err)
	}
	if raw == nil {
		raw = []byte{}
	}
	return raw, nil
}

func (v *Vector[T]) load(i uint32) (T, error) {
	var zero T
	raw, ok, err := env.StorageRead(v.indexKey(i))
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, fmt.Errorf("vector %q: missing element %d", v.prefix, i)
	}
	x, err := v.codec.Decode(raw)
	if err != nil {
		return zero, fmt.Errorf("decode element %d: %w", i, err)
	}
	return x, nil
}

// Get returns element i, and false when i is out of bounds.
func (v *Vector[T]) Get(i uint32) (T, bool, error) {
	var zero T
	n, err := v.Len()
	if err != nil || i >= n {
		return zero, false, err
	}
	x, err := v.load(i)
	if err != nil {
		return zero, false, err
	}
	return x, true, nil
}

// Push appends x.
func (v *Vector[T]) Push(x T) error {
	n, err := v.Len()
	if err != nil {
		return err
	}
	raw, err := v.encode(x)
	if err != nil {
		return err
	}
	env.StorageWrite(v.indexKey(n), raw)
	v.setLen(n + 1)
	return nil
}

// Pop removes and returns the last element.
func (v *Vector[T]) Pop() (T, bool, error) {
	var zero T
	n, err := v.Len()
	if err != nil || n == 0 {
		return zero, false, err
	}
	x, err := v.load(n - 1)
	if err != nil {
		return zero, false, err
	}
	env.StorageRemove(v.indexKey(n - 1))
	v.setLen(n - 1)
	return x, true, nil
}

// Replace stores x at i and returns the element it replaced.
func (v *Vector[T]) Replace(i uint32, x T) (T, error) {
	var zero T
	n, err := v.Len()
	if err != nil {
		return zero, err
	}
	if i >= n {
		return zero, fmt.Errorf("%w: %d >= %d", ErrIndexOutOfBounds, i, n)
	}
	old, err := v.load(i)
	if err != nil {
		return zero, err
	}
	raw, err := v.encode(x)
	if err != nil {
		return zero, err
	}
	env.StorageWrite(v.indexKey(i), raw)
	return old, nil
}

// SwapRemove removes element i by moving the last element into its place.
func (v *Vector[T]) SwapRemove(i uint32) (T, error) {
	var zero T
	n, err := v.Len()
	if err != nil {
		return zero, err
	}
	if i >= n {
		return zero, fmt.Errorf("%w: %d >= %d", ErrIndexOutOfBounds, i, n)
	}
	if i == n-1 {
		x, _, err := v.Pop()
		return x, err
	}
	last, err := v.load(n - 1)
	if err != nil {
		return zero, err
	}
	old, err := v.Replace(i, last)
	if err != nil {
		return zero, err
	}
	env.StorageRemove(v.indexKey(n - 1))
	v.setLen(n - 1)
	return old, nil
}

// Clear removes every element.
func (v *Vector[T]) Clear() error {
	n, err := v.Len()
	if err != nil {
		return err
	}
	for i := range n {
		env.StorageRemove(v.indexKey(i))
	}
	v.setLen(0)
	return nil
}

// Each calls fn for every element in index order until fn returns false.
func (v *Vector[T]) Each(fn func(i uint32, x T) bool) error {
	n, err := v.Len()
	if err != nil {
		return err
	}
	for i := range n {
		x, err := v.load(i)
		if err != nil {
			return err
		}
		if !fn(i, x) {
			return nil
		}
	}
	return nil
}
