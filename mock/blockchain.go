// Package mock runs contract code natively against an in-process host.
//
// A Blockchain installs a vm.Logic as the sys backend for the duration of a
// call, so the same contract code that targets wasm can be exercised with
// go test. Storage persists across calls in the Blockchain's store.
package mock

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/austinabell/nesdie/alloc"
	"github.com/austinabell/nesdie/state"
	"github.com/austinabell/nesdie/sys"
	"github.com/austinabell/nesdie/types"
	"github.com/austinabell/nesdie/vm"
)

// Blockchain is a single-node host for native tests.
type Blockchain struct {
	store     state.Store
	vmOpts    []vm.Option
	arenaSize uint32
	logger    *slog.Logger
}

// Option configures a Blockchain.
type Option func(*Blockchain)

// WithStore persists storage in s instead of memory.
func WithStore(s state.Store) Option {
	return func(b *Blockchain) {
		b.store = s
	}
}

// WithVMOptions passes options to every call's vm.Logic.
func WithVMOptions(opts ...vm.Option) Option {
	return func(b *Blockchain) {
		b.vmOpts = append(b.vmOpts, opts...)
	}
}

// WithArenaSize gives every call a fresh arena of n bytes instead of the
// process-wide allocator.
func WithArenaSize(n uint32) Option {
	return func(b *Blockchain) {
		b.arenaSize = n
	}
}

// WithLogger sets the logger for host diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Blockchain) {
		b.logger = logger
	}
}

// New returns a Blockchain with empty in-memory storage.
func New(opts ...Option) *Blockchain {
	b := &Blockchain{
		store:  state.NewMemory(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Store returns the persistent storage shared by all calls.
func (b *Blockchain) Store() state.Store { return b.store }

// StorageGet reads a committed value from account's storage.
func (b *Blockchain) StorageGet(account types.AccountID, key []byte) ([]byte, bool, error) {
	return state.Prefixed(b.store, account).Get(key)
}

// Call runs fn as one contract call described by ctx. Storage writes made by
// fn are committed only if it finishes without trapping. Calls must not
// overlap: the sys backend and the allocator are process-wide.
func (b *Blockchain) Call(ctx *vm.Context, fn func()) (*vm.Outcome, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}

	opts := append([]vm.Option{vm.WithLogger(b.logger)}, b.vmOpts...)
	logic := vm.NewLogic(ctx, nativeMemory{}, b.store, opts...)

	prevBackend := sys.SetBackend(logic)
	defer sys.SetBackend(prevBackend)
	defer sys.Unpin()

	if b.arenaSize > 0 {
		prevAlloc := alloc.Install(alloc.NewArena(b.arenaSize))
		defer alloc.Install(prevAlloc)
	} else {
		alloc.Default().Reset()
	}

	err := run(fn)
	out := logic.Finish(err)
	b.logger.DebugContext(context.Background(), "mock call complete",
		slog.String("account", string(ctx.CurrentAccountID)),
		slog.Bool("aborted", out.Aborted()))
	return out, nil
}

// run executes fn and converts a trap or stray panic into an error.
func run(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if t, ok := r.(sys.Trap); ok {
			err = t.Err
			return
		}
		err = &vm.HostError{Kind: vm.WasmTrap, Message: fmt.Sprint(r)}
	}()
	fn()
	return nil
}
