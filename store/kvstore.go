// Package store provides typed collections over the contract's key/value
// storage. Every operation goes straight to the host; nothing is cached in
// the module.
package store

import (
	"fmt"

	"github.com/austinabell/nesdie/dispatch"
	"github.com/austinabell/nesdie/env"
)

// KvStore maps keys of type K to values of type V under a storage prefix.
// Two collections must not share a prefix.
type KvStore[K, V any] struct {
	prefix []byte
	keys   dispatch.Codec[K]
	values dispatch.Codec[V]
	hash   Hasher
}

// Option configures a KvStore.
type Option func(*config)

type config struct {
	hash Hasher
}

// WithHasher sets how encoded keys become storage keys. The default is
// Identity.
func WithHasher(h Hasher) Option {
	return func(c *config) {
		c.hash = h
	}
}

// NewKvStore returns a collection stored under prefix.
func NewKvStore[K, V any](prefix []byte, keys dispatch.Codec[K], values dispatch.Codec[V], opts ...Option) *KvStore[K, V] {
	cfg := config{hash: Identity}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &KvStore[K, V]{
		prefix: append([]byte(nil), prefix...),
		keys:   keys,
		values: values,
		hash:   cfg.hash,
	}
}

// Prefix returns the collection's storage prefix.
func (s *KvStore[K, V]) Prefix() []byte {
	return append([]byte(nil), s.prefix...)
}

func (s *KvStore[K, V]) storageKey(k K) ([]byte, error) {
	raw, err := s.keys.Encode(k)
	if err != nil {
		return nil, fmt.Errorf("encode key: %w", err)
	}
	return s.hash(s.prefix, raw), nil
}

// Insert stores v under k and reports whether a value was replaced.
func (s *KvStore[K, V]) Insert(k K, v V) (bool, error) {
	key, err := s.storageKey(k)
	if err != nil {
		return false, err
	}
	val, err := s.values.Encode(v)
	if err != nil {
		return false, fmt.Errorf("encode value: %w", err)
	}
	if val == nil {
		val = []byte{}
	}
	return env.StorageWrite(key, val), nil
}

// Get returns the value stored under k.
func (s *KvStore[K, V]) Get(k K) (V, bool, error) {
	var zero V
	key, err := s.storageKey(k)
	if err != nil {
		return zero, false, err
	}
	raw, ok, err := env.StorageRead(key)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := s.values.Decode(raw)
	if err != nil {
		return zero, false, fmt.Errorf("decode value: %w", err)
	}
	return v, true, nil
}

// ContainsKey reports whether a value is stored under k.
func (s *KvStore[K, V]) ContainsKey(k K) (bool, error) {
	key, err := s.storageKey(k)
	if err != nil {
		return false, err
	}
	return env.StorageHasKey(key), nil
}

// Remove deletes k and returns the value it held.
func (s *KvStore[K, V]) Remove(k K) (V, bool, error) {
	var zero V
	key, err := s.storageKey(k)
	if err != nil {
		return zero, false, err
	}
	if !env.StorageRemove(key) {
		return zero, false, nil
	}
	raw, _, err := env.StorageGetEvicted()
	if err != nil {
		return zero, false, err
	}
	v, err := s.values.Decode(raw)
	if err != nil {
		return zero, false, fmt.Errorf("decode value: %w", err)
	}
	return v, true, nil
}
