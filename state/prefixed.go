package state

import "github.com/austinabell/nesdie/types"

// prefixed scopes a Store to one account's keys.
type prefixed struct {
	base   Store
	prefix []byte
}

// Prefixed returns a view of base holding only account's keys. Account IDs
// cannot contain ':', so namespaces never overlap.
func Prefixed(base Store, account types.AccountID) Store {
	return &prefixed{base: base, prefix: AccountPrefix(account)}
}

// AccountPrefix is the key prefix under which account's storage lives.
func AccountPrefix(account types.AccountID) []byte {
	return []byte(string(account) + ":")
}

func (p *prefixed) key(k []byte) []byte {
	out := make([]byte, 0, len(p.prefix)+len(k))
	return append(append(out, p.prefix...), k...)
}

func (p *prefixed) Get(key []byte) ([]byte, bool, error) { return p.base.Get(p.key(key)) }

func (p *prefixed) Has(key []byte) (bool, error) { return p.base.Has(p.key(key)) }

func (p *prefixed) Set(key, value []byte) error { return p.base.Set(p.key(key), value) }

func (p *prefixed) Delete(key []byte) error { return p.base.Delete(p.key(key)) }

func (p *prefixed) Apply(ops []Op) error {
	scoped := make([]Op, len(ops))
	for i, op := range ops {
		scoped[i] = Op{Key: p.key(op.Key), Value: op.Value}
	}
	return p.base.Apply(scoped)
}
