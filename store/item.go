package store

import (
	"fmt"

	"github.com/austinabell/nesdie/dispatch"
	"github.com/austinabell/nesdie/env"
)

// Item is a single value stored under a fixed key.
type Item[T any] struct {
	key   []byte
	codec dispatch.Codec[T]
}

// NewItem returns an Item stored under key.
func NewItem[T any](key []byte, codec dispatch.Codec[T]) *Item[T] {
	return &Item[T]{key: append([]byte(nil), key...), codec: codec}
}

// Get returns the stored value, and false when the item was never set.
func (i *Item[T]) Get() (T, bool, error) {
	var zero T
	raw, ok, err := env.StorageRead(i.key)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := i.codec.Decode(raw)
	if err != nil {
		return zero, false, fmt.Errorf("decode %q: %w", i.key, err)
	}
	return v, true, nil
}

// GetOr returns the stored value or def.
func (i *Item[T]) GetOr(def T) (T, error) {
	v, ok, err := i.Get()
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

// Set stores v.
func (i *Item[T]) Set(v T) error {
	raw, err := i.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", i.key, err)
	}
	if raw == nil {
		raw = []byte{}
	}
	env.StorageWrite(i.key, raw)
	return nil
}

// Exists reports whether the item is set.
func (i *Item[T]) Exists() bool {
	return env.StorageHasKey(i.key)
}

// Remove clears the item and reports whether it was set.
func (i *Item[T]) Remove() bool {
	return env.StorageRemove(i.key)
}
