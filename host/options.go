package host

import (
	"log/slog"

	"github.com/austinabell/nesdie/state"
	"github.com/austinabell/nesdie/vm"
)

// DefaultMemoryLimitPages caps instance memory at 64 MiB.
const DefaultMemoryLimitPages = 1024

// Option configures an Executor.
type Option func(*Executor)

// WithStore persists contract storage in s. The default is an in-memory
// store.
func WithStore(s state.Store) Option {
	return func(e *Executor) {
		e.store = s
	}
}

// WithMemoryLimitPages caps each instance's linear memory at pages of
// 64 KiB.
func WithMemoryLimitPages(pages uint32) Option {
	return func(e *Executor) {
		e.memoryLimitPages = pages
	}
}

// WithVMOptions passes options to the vm.Logic of every call.
func WithVMOptions(opts ...vm.Option) Option {
	return func(e *Executor) {
		e.vmOpts = append(e.vmOpts, opts...)
	}
}

// WithLogger sets the logger for executor diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}
