package store

import (
	"encoding/binary"
	"fmt"

	"github.com/austinabell/nesdie/dispatch"
	"github.com/austinabell/nesdie/env"
)

// UnorderedMap is an iterable map. Keys and values are kept in two Vectors
// at matching positions, and prefix+"i"+key holds each key's position.
// Removal swaps the last entry into the freed slot, so iteration order
// changes as entries are removed.
type UnorderedMap[K, V any] struct {
	indexPrefix []byte
	keyCodec    dispatch.Codec[K]
	keys        *Vector[K]
	values      *Vector[V]
}

// NewUnorderedMap returns a map stored under prefix.
func NewUnorderedMap[K, V any](prefix []byte, keys dispatch.Codec[K], values dispatch.Codec[V]) *UnorderedMap[K, V] {
	return &UnorderedMap[K, V]{
		indexPrefix: withSuffix(prefix, 'i'),
		keyCodec:    keys,
		keys:        NewVector(withSuffix(prefix, 'k'), keys),
		values:      NewVector(withSuffix(prefix, 'v'), values),
	}
}

func withSuffix(prefix []byte, b byte) []byte {
	out := make([]byte, 0, len(prefix)+1)
	return append(append(out, prefix...), b)
}

func (m *UnorderedMap[K, V]) indexKey(k K) ([]byte, error) {
	raw, err := m.keyCodec.Encode(k)
	if err != nil {
		return nil, fmt.Errorf("encode key: %w", err)
	}
	return append(append([]byte(nil), m.indexPrefix...), raw...), nil
}

func (m *UnorderedMap[K, V]) index(lookup []byte) (uint32, bool, error) {
	raw, ok, err := env.StorageRead(lookup)
	if err != nil || !ok {
		return 0, false, err
	}
	if len(raw) != 4 {
		return 0, false, fmt.Errorf("map index %q: corrupt entry of %d bytes", lookup, len(raw))
	}
	return binary.LittleEndian.Uint32(raw), true, nil
}

// Len returns the number of entries.
func (m *UnorderedMap[K, V]) Len() (uint32, error) { return m.keys.Len() }

// Get returns the value stored under k.
func (m *UnorderedMap[K, V]) Get(k K) (V, bool, error) {
	var zero V
	lookup, err := m.indexKey(k)
	if err != nil {
		return zero, false, err
	}
	i, ok, err := m.index(lookup)
	if err != nil || !ok {
		return zero, false, err
	}
	return m.values.Get(i)
}

// ContainsKey reports whether k has an entry.
func (m *UnorderedMap[K, V]) ContainsKey(k K) (bool, error) {
	lookup, err := m.indexKey(k)
	if err != nil {
		return false, err
	}
	return env.StorageHasKey(lookup), nil
}

// Insert stores v under k and returns the value it replaced.
func (m *UnorderedMap[K, V]) Insert(k K, v V) (V, bool, error) {
	var zero V
	lookup, err := m.indexKey(k)
	if err != nil {
		return zero, false, err
	}
	i, ok, err := m.index(lookup)
	if err != nil {
		return zero, false, err
	}
	if ok {
		old, err := m.values.Replace(i, v)
		if err != nil {
			return zero, false, err
		}
		return old, true, nil
	}

	n, err := m.keys.Len()
	if err != nil {
		return zero, false, err
	}
	env.StorageWrite(lookup, binary.LittleEndian.AppendUint32(nil, n))
	if err := m.keys.Push(k); err != nil {
		return zero, false, err
	}
	return zero, false, m.values.Push(v)
}

// Remove deletes k and returns the value it held.
func (m *UnorderedMap[K, V]) Remove(k K) (V, bool, error) {
	var zero V
	lookup, err := m.indexKey(k)
	if err != nil {
		return zero, false, err
	}
	i, ok, err := m.index(lookup)
	if err != nil || !ok {
		return zero, false, err
	}
	env.StorageRemove(lookup)

	n, err := m.keys.Len()
	if err != nil {
		return zero, false, err
	}
	if last := n - 1; i != last {
		lastKey, err := m.keys.load(last)
		if err != nil {
			return zero, false, err
		}
		lastLookup, err := m.indexKey(lastKey)
		if err != nil {
			return zero, false, err
		}
		env.StorageWrite(lastLookup, binary.LittleEndian.AppendUint32(nil, i))
	}

	if _, err := m.keys.SwapRemove(i); err != nil {
		return zero, false, err
	}
	v, err := m.values.SwapRemove(i)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Clear removes every entry.
func (m *UnorderedMap[K, V]) Clear() error {
	var err error
	eachErr := m.keys.Each(func(_ uint32, k K) bool {
		var lookup []byte
		if lookup, err = m.indexKey(k); err != nil {
			return false
		}
		env.StorageRemove(lookup)
		return true
	})
	if eachErr != nil {
		return eachErr
	}
	if err != nil {
		return err
	}
	if err := m.keys.Clear(); err != nil {
		return err
	}
	return m.values.Clear()
}

// Each calls fn for every entry until fn returns false.
func (m *UnorderedMap[K, V]) Each(fn func(k K, v V) bool) error {
	n, err := m.keys.Len()
	if err != nil {
		return err
	}
	for i := range n {
		k, err := m.keys.load(i)
		if err != nil {
			return err
		}
		v, err := m.values.load(i)
		if err != nil {
			return err
		}
		if !fn(k, v) {
			return nil
		}
	}
	return nil
}

// Keys returns every key in iteration order.
func (m *UnorderedMap[K, V]) Keys() ([]K, error) {
	var out []K
	err := m.keys.Each(func(_ uint32, k K) bool {
		out = append(out, k)
		return true
	})
	return out, err
}

// Values returns every value in iteration order.
func (m *UnorderedMap[K, V]) Values() ([]V, error) {
	var out []V
	err := m.values.Each(func(_ uint32, v V) bool {
		out = append(out, v)
		return true
	})
	return out, err
}
