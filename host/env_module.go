package host

import (
	"context"
	"errors"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/austinabell/nesdie/vm"
)

// envModule is the import module name contracts link against.
const envModule = "env"

type logicKey struct{}

func withLogic(ctx context.Context, l *vm.Logic) context.Context {
	return context.WithValue(ctx, logicKey{}, l)
}

func logicFrom(ctx context.Context) (*vm.Logic, bool) {
	l, ok := ctx.Value(logicKey{}).(*vm.Logic)
	return l, ok
}

var errNoLogic = errors.New("host: import called outside a contract call")

// binding is one import: its arity and how it maps onto vm.Logic. Every
// parameter and result is an i64.
type binding struct {
	name    string
	params  int
	results int
	call    func(l *vm.Logic, p []uint64) (uint64, error)
}

func unit(err error) (uint64, error) { return 0, err }

var bindings = []binding{
	{"read_register", 2, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.ReadRegister(p[0], p[1])) }},
	{"register_len", 1, 1, func(l *vm.Logic, p []uint64) (uint64, error) { return l.RegisterLen(p[0]) }},
	{"write_register", 3, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.WriteRegister(p[0], p[1], p[2])) }},

	{"current_account_id", 1, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.CurrentAccountID(p[0])) }},
	{"signer_account_id", 1, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.SignerAccountID(p[0])) }},
	{"signer_account_pk", 1, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.SignerAccountPK(p[0])) }},
	{"predecessor_account_id", 1, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.PredecessorAccountID(p[0])) }},
	{"input", 1, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.Input(p[0])) }},
	{"block_index", 0, 1, func(l *vm.Logic, _ []uint64) (uint64, error) { return l.BlockIndex() }},
	{"block_timestamp", 0, 1, func(l *vm.Logic, _ []uint64) (uint64, error) { return l.BlockTimestamp() }},
	{"epoch_height", 0, 1, func(l *vm.Logic, _ []uint64) (uint64, error) { return l.EpochHeight() }},
	{"storage_usage", 0, 1, func(l *vm.Logic, _ []uint64) (uint64, error) { return l.StorageUsage() }},

	{"account_balance", 1, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.AccountBalance(p[0])) }},
	{"account_locked_balance", 1, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.AccountLockedBalance(p[0])) }},
	{"attached_deposit", 1, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.AttachedDeposit(p[0])) }},
	{"prepaid_gas", 0, 1, func(l *vm.Logic, _ []uint64) (uint64, error) { return l.PrepaidGas() }},
	{"used_gas", 0, 1, func(l *vm.Logic, _ []uint64) (uint64, error) { return l.UsedGas() }},

	{"random_seed", 1, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.RandomSeed(p[0])) }},
	{"sha256", 3, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.Sha256(p[0], p[1], p[2])) }},
	{"keccak256", 3, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.Keccak256(p[0], p[1], p[2])) }},
	{"keccak512", 3, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.Keccak512(p[0], p[1], p[2])) }},

	{"value_return", 2, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.ValueReturn(p[0], p[1])) }},
	{"panic", 0, 0, func(l *vm.Logic, _ []uint64) (uint64, error) { return unit(l.Panic()) }},
	{"panic_utf8", 2, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.PanicUTF8(p[0], p[1])) }},
	{"log_utf8", 2, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.LogUTF8(p[0], p[1])) }},

	{"promise_create", 8, 1, func(l *vm.Logic, p []uint64) (uint64, error) {
		return l.PromiseCreate(p[0], p[1], p[2], p[3], p[4], p[5], p[6], p[7])
	}},
	{"promise_then", 9, 1, func(l *vm.Logic, p []uint64) (uint64, error) {
		return l.PromiseThen(p[0], p[1], p[2], p[3], p[4], p[5], p[6], p[7], p[8])
	}},
	{"promise_and", 2, 1, func(l *vm.Logic, p []uint64) (uint64, error) { return l.PromiseAnd(p[0], p[1]) }},
	{"promise_batch_create", 2, 1, func(l *vm.Logic, p []uint64) (uint64, error) { return l.PromiseBatchCreate(p[0], p[1]) }},
	{"promise_batch_then", 3, 1, func(l *vm.Logic, p []uint64) (uint64, error) { return l.PromiseBatchThen(p[0], p[1], p[2]) }},
	{"promise_batch_action_create_account", 1, 0, func(l *vm.Logic, p []uint64) (uint64, error) {
		return unit(l.PromiseBatchActionCreateAccount(p[0]))
	}},
	{"promise_batch_action_deploy_contract", 3, 0, func(l *vm.Logic, p []uint64) (uint64, error) {
		return unit(l.PromiseBatchActionDeployContract(p[0], p[1], p[2]))
	}},
	{"promise_batch_action_function_call", 7, 0, func(l *vm.Logic, p []uint64) (uint64, error) {
		return unit(l.PromiseBatchActionFunctionCall(p[0], p[1], p[2], p[3], p[4], p[5], p[6]))
	}},
	{"promise_batch_action_transfer", 2, 0, func(l *vm.Logic, p []uint64) (uint64, error) {
		return unit(l.PromiseBatchActionTransfer(p[0], p[1]))
	}},
	{"promise_batch_action_stake", 4, 0, func(l *vm.Logic, p []uint64) (uint64, error) {
		return unit(l.PromiseBatchActionStake(p[0], p[1], p[2], p[3]))
	}},
	{"promise_batch_action_add_key_with_full_access", 4, 0, func(l *vm.Logic, p []uint64) (uint64, error) {
		return unit(l.PromiseBatchActionAddKeyWithFullAccess(p[0], p[1], p[2], p[3]))
	}},
	{"promise_batch_action_add_key_with_function_call", 9, 0, func(l *vm.Logic, p []uint64) (uint64, error) {
		return unit(l.PromiseBatchActionAddKeyWithFunctionCall(p[0], p[1], p[2], p[3], p[4], p[5], p[6], p[7], p[8]))
	}},
	{"promise_batch_action_delete_key", 3, 0, func(l *vm.Logic, p []uint64) (uint64, error) {
		return unit(l.PromiseBatchActionDeleteKey(p[0], p[1], p[2]))
	}},
	{"promise_batch_action_delete_account", 3, 0, func(l *vm.Logic, p []uint64) (uint64, error) {
		return unit(l.PromiseBatchActionDeleteAccount(p[0], p[1], p[2]))
	}},
	{"promise_results_count", 0, 1, func(l *vm.Logic, _ []uint64) (uint64, error) { return l.PromiseResultsCount() }},
	{"promise_result", 2, 1, func(l *vm.Logic, p []uint64) (uint64, error) { return l.PromiseResult(p[0], p[1]) }},
	{"promise_return", 1, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.PromiseReturn(p[0])) }},

	{"storage_write", 5, 1, func(l *vm.Logic, p []uint64) (uint64, error) {
		return l.StorageWrite(p[0], p[1], p[2], p[3], p[4])
	}},
	{"storage_read", 3, 1, func(l *vm.Logic, p []uint64) (uint64, error) { return l.StorageRead(p[0], p[1], p[2]) }},
	{"storage_remove", 3, 1, func(l *vm.Logic, p []uint64) (uint64, error) { return l.StorageRemove(p[0], p[1], p[2]) }},
	{"storage_has_key", 2, 1, func(l *vm.Logic, p []uint64) (uint64, error) { return l.StorageHasKey(p[0], p[1]) }},

	{"validator_stake", 3, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.ValidatorStake(p[0], p[1], p[2])) }},
	{"validator_total_stake", 1, 0, func(l *vm.Logic, p []uint64) (uint64, error) { return unit(l.ValidatorTotalStake(p[0])) }},
}

// instantiateEnv registers every binding as a host function. A failing
// import panics with its error, which unwinds the guest; the Logic has
// already recorded the trap.
func instantiateEnv(ctx context.Context, rt wazero.Runtime) (api.Module, error) {
	builder := rt.NewHostModuleBuilder(envModule)
	for _, b := range bindings {
		fn := api.GoModuleFunc(func(ctx context.Context, _ api.Module, stack []uint64) {
			l, ok := logicFrom(ctx)
			if !ok {
				panic(errNoLogic)
			}
			v, err := b.call(l, stack[:b.params])
			if err != nil {
				panic(err)
			}
			if b.results > 0 {
				stack[0] = v
			}
		})
		builder.NewFunctionBuilder().
			WithGoModuleFunction(fn, i64s(b.params), i64s(b.results)).
			WithName(b.name).
			Export(b.name)
	}
	return builder.Instantiate(ctx)
}

func i64s(n int) []api.ValueType {
	out := make([]api.ValueType, n)
	for i := range out {
		out[i] = api.ValueTypeI64
	}
	return out
}
