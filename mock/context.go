package mock

import (
	"github.com/austinabell/nesdie/types"
	"github.com/austinabell/nesdie/vm"
)

// Defaults used by NewContext.
var (
	DefaultAccountBalance = types.Balance{Hi: 0x52b7d2, Lo: 0xdcc80cd2e4000000} // 10^26
	DefaultStorageUsage   = uint64(300 * 1024)
	DefaultPrepaidGas     = types.Gas(300_000_000_000_000)
)

// ContextBuilder builds call contexts for tests.
type ContextBuilder struct {
	ctx vm.Context
}

// NewContext starts from a call by "bob" on a contract deployed at "alice".
func NewContext() *ContextBuilder {
	return &ContextBuilder{ctx: vm.Context{
		CurrentAccountID:     "alice",
		SignerAccountID:      "bob",
		SignerAccountPK:      make(types.PublicKey, 32),
		PredecessorAccountID: "bob",
		Input:                []byte{},
		AccountBalance:       DefaultAccountBalance,
		StorageUsage:         DefaultStorageUsage,
		PrepaidGas:           DefaultPrepaidGas,
		RandomSeed:           make([]byte, 32),
	}}
}

func (b *ContextBuilder) CurrentAccountID(id types.AccountID) *ContextBuilder {
	b.ctx.CurrentAccountID = id
	return b
}

func (b *ContextBuilder) SignerAccountID(id types.AccountID) *ContextBuilder {
	b.ctx.SignerAccountID = id
	return b
}

func (b *ContextBuilder) SignerAccountPK(pk types.PublicKey) *ContextBuilder {
	b.ctx.SignerAccountPK = pk
	return b
}

func (b *ContextBuilder) PredecessorAccountID(id types.AccountID) *ContextBuilder {
	b.ctx.PredecessorAccountID = id
	return b
}

func (b *ContextBuilder) Input(input []byte) *ContextBuilder {
	b.ctx.Input = input
	return b
}

func (b *ContextBuilder) BlockIndex(index uint64) *ContextBuilder {
	b.ctx.BlockIndex = index
	return b
}

func (b *ContextBuilder) BlockTimestamp(ts uint64) *ContextBuilder {
	b.ctx.BlockTimestamp = ts
	return b
}

func (b *ContextBuilder) EpochHeight(h uint64) *ContextBuilder {
	b.ctx.EpochHeight = h
	return b
}

func (b *ContextBuilder) AccountBalance(v types.Balance) *ContextBuilder {
	b.ctx.AccountBalance = v
	return b
}

func (b *ContextBuilder) AccountLockedBalance(v types.Balance) *ContextBuilder {
	b.ctx.AccountLockedBalance = v
	return b
}

func (b *ContextBuilder) StorageUsage(n uint64) *ContextBuilder {
	b.ctx.StorageUsage = n
	return b
}

func (b *ContextBuilder) AttachedDeposit(v types.Balance) *ContextBuilder {
	b.ctx.AttachedDeposit = v
	return b
}

func (b *ContextBuilder) PrepaidGas(g types.Gas) *ContextBuilder {
	b.ctx.PrepaidGas = g
	return b
}

func (b *ContextBuilder) RandomSeed(seed []byte) *ContextBuilder {
	b.ctx.RandomSeed = seed
	return b
}

// IsView marks the call as a read-only view.
func (b *ContextBuilder) IsView(view bool) *ContextBuilder {
	b.ctx.IsView = view
	return b
}

// Validator sets the stake of a validator.
func (b *ContextBuilder) Validator(id types.AccountID, stake types.Balance) *ContextBuilder {
	if b.ctx.Validators == nil {
		b.ctx.Validators = make(map[types.AccountID]types.Balance)
	}
	b.ctx.Validators[id] = stake
	return b
}

// PromiseResults sets the results a callback sees.
func (b *ContextBuilder) PromiseResults(results ...types.PromiseResult) *ContextBuilder {
	b.ctx.PromiseResults = results
	return b
}

// Build returns a copy of the context built so far.
func (b *ContextBuilder) Build() *vm.Context {
	ctx := b.ctx
	ctx.Input = append([]byte{}, b.ctx.Input...)
	if b.ctx.Validators != nil {
		ctx.Validators = make(map[types.AccountID]types.Balance, len(b.ctx.Validators))
		for k, v := range b.ctx.Validators {
			ctx.Validators[k] = v
		}
	}
	return &ctx
}
