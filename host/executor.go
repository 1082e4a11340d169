package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	wsys "github.com/tetratelabs/wazero/sys"

	"github.com/austinabell/nesdie/abort"
	"github.com/austinabell/nesdie/state"
	"github.com/austinabell/nesdie/types"
	"github.com/austinabell/nesdie/vm"
)

// ErrNotDeployed is returned for a call to an account without code.
var ErrNotDeployed = errors.New("host: no contract deployed")

// Executor loads contracts and runs calls against them.
type Executor struct {
	runtime          wazero.Runtime
	store            state.Store
	vmOpts           []vm.Option
	memoryLimitPages uint32
	logger           *slog.Logger

	mu        sync.RWMutex
	contracts map[types.AccountID]wazero.CompiledModule
	callMu    sync.Mutex
}

// NewExecutor creates an executor with its own wazero runtime, WASI and
// the env import module.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	e := &Executor{
		memoryLimitPages: DefaultMemoryLimitPages,
		logger:           slog.Default(),
		contracts:        make(map[types.AccountID]wazero.CompiledModule),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = state.NewMemory()
	}

	cfg := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(e.memoryLimitPages).
		WithCloseOnContextDone(true)
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate wasi: %w", err)
	}
	if _, err := instantiateEnv(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	e.runtime = rt
	return e, nil
}

// Close releases the runtime and every compiled contract. The store is left
// open.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Store returns the storage calls are executed against.
func (e *Executor) Store() state.Store { return e.store }

// Deploy compiles wasm and installs it as account's contract, replacing any
// previous code.
func (e *Executor) Deploy(ctx context.Context, account types.AccountID, wasm []byte) error {
	if !vm.ValidAccountID(account) {
		return fmt.Errorf("deploy: invalid account id %q", account)
	}
	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return fmt.Errorf("failed to compile contract for %s: %w", account, err)
	}

	e.mu.Lock()
	prev := e.contracts[account]
	e.contracts[account] = compiled
	e.mu.Unlock()

	if prev != nil {
		prev.Close(ctx)
	}
	e.logger.DebugContext(ctx, "contract deployed",
		slog.String("account", string(account)),
		slog.Int("exports", len(compiled.ExportedFunctions())))
	return nil
}

// Methods lists the functions account's contract exports.
func (e *Executor) Methods(account types.AccountID) ([]string, error) {
	compiled, err := e.contract(account)
	if err != nil {
		return nil, err
	}
	var names []string
	for name := range compiled.ExportedFunctions() {
		if !strings.HasPrefix(name, "_") {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func (e *Executor) contract(account types.AccountID) (wazero.CompiledModule, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	compiled, ok := e.contracts[account]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDeployed, account)
	}
	return compiled, nil
}

// Call runs method of the contract deployed at vmctx.CurrentAccountID in a
// fresh instance. Failures inside the contract are reported in the
// Outcome; the error is for calls that could not be attempted.
func (e *Executor) Call(ctx context.Context, vmctx *vm.Context, method string) (*vm.Outcome, error) {
	if err := vmctx.Validate(); err != nil {
		return nil, err
	}
	compiled, err := e.contract(vmctx.CurrentAccountID)
	if err != nil {
		return nil, err
	}

	// Calls share the store and must see each other's commits in order.
	e.callMu.Lock()
	defer e.callMu.Unlock()

	logic := vm.NewLogic(vmctx, nil, e.store, append([]vm.Option{vm.WithLogger(e.logger)}, e.vmOpts...)...)
	stderr := newBoundedBuffer(maxStderr)
	clk := newClock(vmctx)
	modCfg := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions().
		WithStdout(stderr).
		WithStderr(stderr).
		WithWalltime(clk.walltime, wsys.ClockResolution(1)).
		WithNanotime(clk.nanotime, wsys.ClockResolution(1)).
		WithNanosleep(nosleep).
		WithRandSource(randSource(vmctx))

	callCtx := withLogic(ctx, logic)
	mod, err := e.runtime.InstantiateModule(callCtx, compiled, modCfg)
	if err != nil {
		return logic.Finish(classify(logic, err, stderr)), nil
	}
	defer mod.Close(callCtx)
	logic.SetMemory(memory{mem: mod.Memory()})

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(callCtx); err != nil {
			return logic.Finish(classify(logic, err, stderr)), nil
		}
	}

	fn := mod.ExportedFunction(method)
	if fn == nil {
		return logic.Finish(&vm.HostError{Kind: vm.MethodNotFound, Message: method}), nil
	}
	_, err = fn.Call(callCtx)
	out := logic.Finish(classify(logic, err, stderr))
	e.logger.DebugContext(ctx, "contract call complete",
		slog.String("account", string(vmctx.CurrentAccountID)),
		slog.String("method", method),
		slog.Uint64("gas_used", out.GasUsed),
		slog.Bool("aborted", out.Aborted()))
	return out, nil
}

// classify turns the error of a guest call into the call's failure. A trap
// raised by an import wins; an exit through WASI becomes a guest panic
// carrying whatever the module printed; anything else is a wasm trap.
func classify(logic *vm.Logic, err error, stderr *boundedBuffer) error {
	if err == nil {
		return nil
	}
	if trap := logic.Trapped(); trap != nil {
		return trap
	}
	var exit *wsys.ExitError
	if errors.As(err, &exit) {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = fmt.Sprintf("module exited with code %d", exit.ExitCode())
		}
		return &vm.HostError{Kind: vm.GuestPanic, Message: abort.Sanitize(msg)}
	}
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return &vm.HostError{Kind: vm.WasmTrap, Message: msg}
}
