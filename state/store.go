// Package state holds contract storage on the host side.
//
// A Store is the persistent layer. Calls never write to it directly: each
// call goes through an Overlay whose pending writes are applied in one batch
// when the call succeeds and dropped when it aborts.
package state

import (
	"errors"
	"sort"
	"sync"
)

// ErrClosed is returned by a store after Close.
var ErrClosed = errors.New("state: store closed")

// Store is a byte-keyed persistent map.
type Store interface {
	Get(key []byte) ([]byte, bool, error)
	Has(key []byte) (bool, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	// Apply writes every op atomically.
	Apply(ops []Op) error
}

// Op is one write in a batch. A nil Value deletes Key.
type Op struct {
	Key   []byte
	Value []byte
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, ErrClosed
	}
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *Memory) Set(key, value []byte) error {
	return m.Apply([]Op{{Key: key, Value: value}})
}

func (m *Memory) Delete(key []byte) error {
	return m.Apply([]Op{{Key: key}})
}

func (m *Memory) Apply(ops []Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for _, op := range ops {
		if op.Value == nil {
			delete(m.data, string(op.Key))
			continue
		}
		m.data[string(op.Key)] = append([]byte{}, op.Value...)
	}
	return nil
}

// Keys returns every key in sorted order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len is the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
