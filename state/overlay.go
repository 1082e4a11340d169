package state

import "sort"

// Overlay buffers writes on top of a Store. Reads see pending writes first.
// Nothing reaches the base store until Commit.
type Overlay struct {
	base    Store
	pending map[string][]byte
}

// NewOverlay returns an overlay with no pending writes.
func NewOverlay(base Store) *Overlay {
	return &Overlay{base: base, pending: make(map[string][]byte)}
}

func (o *Overlay) Get(key []byte) ([]byte, bool, error) {
	if v, ok := o.pending[string(key)]; ok {
		if v == nil {
			return nil, false, nil
		}
		return v, true, nil
	}
	return o.base.Get(key)
}

func (o *Overlay) Has(key []byte) (bool, error) {
	if v, ok := o.pending[string(key)]; ok {
		return v != nil, nil
	}
	return o.base.Has(key)
}

func (o *Overlay) Set(key, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	o.pending[string(key)] = v
	return nil
}

func (o *Overlay) Delete(key []byte) error {
	o.pending[string(key)] = nil
	return nil
}

// Apply stages ops like a sequence of Set and Delete calls.
func (o *Overlay) Apply(ops []Op) error {
	for _, op := range ops {
		if op.Value == nil {
			_ = o.Delete(op.Key)
			continue
		}
		_ = o.Set(op.Key, op.Value)
	}
	return nil
}

// Pending returns the staged writes in key order.
func (o *Overlay) Pending() []Op {
	keys := make([]string, 0, len(o.pending))
	for k := range o.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ops := make([]Op, len(keys))
	for i, k := range keys {
		ops[i] = Op{Key: []byte(k), Value: o.pending[k]}
	}
	return ops
}

// Commit applies the staged writes to the base store in one batch and
// clears them.
func (o *Overlay) Commit() error {
	if len(o.pending) == 0 {
		return nil
	}
	if err := o.base.Apply(o.Pending()); err != nil {
		return err
	}
	clear(o.pending)
	return nil
}

// Discard drops the staged writes.
func (o *Overlay) Discard() {
	clear(o.pending)
}
