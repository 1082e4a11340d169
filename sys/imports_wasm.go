//go:build wasip1

// Package sys declares the raw functions imported from the host's "env"
// module. Every parameter and result is a 64-bit integer: lengths, pointers
// into linear memory, register IDs and promise indices.
//
// Prefer the env package; these are the unchecked primitives it wraps.
package sys

import "unsafe"

// Registers

//go:wasmimport env read_register
func ReadRegister(registerID, ptr uint64)

//go:wasmimport env register_len
func RegisterLen(registerID uint64) uint64

//go:wasmimport env write_register
func WriteRegister(registerID, dataLen, dataPtr uint64)

// Context

//go:wasmimport env current_account_id
func CurrentAccountID(registerID uint64)

//go:wasmimport env signer_account_id
func SignerAccountID(registerID uint64)

//go:wasmimport env signer_account_pk
func SignerAccountPK(registerID uint64)

//go:wasmimport env predecessor_account_id
func PredecessorAccountID(registerID uint64)

//go:wasmimport env input
func Input(registerID uint64)

//go:wasmimport env block_index
func BlockIndex() uint64

//go:wasmimport env block_timestamp
func BlockTimestamp() uint64

//go:wasmimport env epoch_height
func EpochHeight() uint64

//go:wasmimport env storage_usage
func StorageUsage() uint64

// Economics

//go:wasmimport env account_balance
func AccountBalance(balancePtr uint64)

//go:wasmimport env account_locked_balance
func AccountLockedBalance(balancePtr uint64)

//go:wasmimport env attached_deposit
func AttachedDeposit(balancePtr uint64)

//go:wasmimport env prepaid_gas
func PrepaidGas() uint64

//go:wasmimport env used_gas
func UsedGas() uint64

// Math

//go:wasmimport env random_seed
func RandomSeed(registerID uint64)

//go:wasmimport env sha256
func Sha256(valueLen, valuePtr, registerID uint64)

//go:wasmimport env keccak256
func Keccak256(valueLen, valuePtr, registerID uint64)

//go:wasmimport env keccak512
func Keccak512(valueLen, valuePtr, registerID uint64)

// Miscellaneous

//go:wasmimport env value_return
func ValueReturn(valueLen, valuePtr uint64)

//go:wasmimport env panic
func Panic()

//go:wasmimport env panic_utf8
func PanicUTF8(msgLen, msgPtr uint64)

//go:wasmimport env log_utf8
func LogUTF8(msgLen, msgPtr uint64)

// Promises

//go:wasmimport env promise_create
func PromiseCreate(accountLen, accountPtr, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas uint64) uint64

//go:wasmimport env promise_then
func PromiseThen(promiseIdx, accountLen, accountPtr, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas uint64) uint64

//go:wasmimport env promise_and
func PromiseAnd(indicesPtr, count uint64) uint64

//go:wasmimport env promise_batch_create
func PromiseBatchCreate(accountLen, accountPtr uint64) uint64

//go:wasmimport env promise_batch_then
func PromiseBatchThen(promiseIdx, accountLen, accountPtr uint64) uint64

//go:wasmimport env promise_batch_action_create_account
func PromiseBatchActionCreateAccount(promiseIdx uint64)

//go:wasmimport env promise_batch_action_deploy_contract
func PromiseBatchActionDeployContract(promiseIdx, codeLen, codePtr uint64)

//go:wasmimport env promise_batch_action_function_call
func PromiseBatchActionFunctionCall(promiseIdx, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas uint64)

//go:wasmimport env promise_batch_action_transfer
func PromiseBatchActionTransfer(promiseIdx, amountPtr uint64)

//go:wasmimport env promise_batch_action_stake
func PromiseBatchActionStake(promiseIdx, amountPtr, keyLen, keyPtr uint64)

//go:wasmimport env promise_batch_action_add_key_with_full_access
func PromiseBatchActionAddKeyWithFullAccess(promiseIdx, keyLen, keyPtr, nonce uint64)

//go:wasmimport env promise_batch_action_add_key_with_function_call
func PromiseBatchActionAddKeyWithFunctionCall(promiseIdx, keyLen, keyPtr, nonce, allowancePtr, receiverLen, receiverPtr, methodsLen, methodsPtr uint64)

//go:wasmimport env promise_batch_action_delete_key
func PromiseBatchActionDeleteKey(promiseIdx, keyLen, keyPtr uint64)

//go:wasmimport env promise_batch_action_delete_account
func PromiseBatchActionDeleteAccount(promiseIdx, beneficiaryLen, beneficiaryPtr uint64)

//go:wasmimport env promise_results_count
func PromiseResultsCount() uint64

//go:wasmimport env promise_result
func PromiseResult(resultIdx, registerID uint64) uint64

//go:wasmimport env promise_return
func PromiseReturn(promiseIdx uint64)

// Storage

//go:wasmimport env storage_write
func StorageWrite(keyLen, keyPtr, valueLen, valuePtr, registerID uint64) uint64

//go:wasmimport env storage_read
func StorageRead(keyLen, keyPtr, registerID uint64) uint64

//go:wasmimport env storage_remove
func StorageRemove(keyLen, keyPtr, registerID uint64) uint64

//go:wasmimport env storage_has_key
func StorageHasKey(keyLen, keyPtr uint64) uint64

// Validators

//go:wasmimport env validator_stake
func ValidatorStake(accountLen, accountPtr, stakePtr uint64)

//go:wasmimport env validator_total_stake
func ValidatorTotalStake(stakePtr uint64)

// Ptr returns the linear-memory address of b's first byte, or 0 for an empty
// slice. The host reads it synchronously, so no pinning is needed.
func Ptr(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	//nolint:gosec // G103: linear memory offsets are the ABI
	return uint64(uintptr(unsafe.Pointer(unsafe.SliceData(b))))
}

// Unpin is a no-op inside the sandbox.
func Unpin() {}

// IsTrap always reports false inside the sandbox: a host trap never returns
// control to the module.
func IsTrap(any) bool { return false }
