//go:build !wasip1

// Package sys declares the raw functions imported from the host's "env"
// module. Every parameter and result is a 64-bit integer: lengths, pointers
// into linear memory, register IDs and promise indices.
//
// Outside the sandbox each function forwards to the Backend installed with
// SetBackend, which lets contract code run natively against an in-process
// host (see package mock).
package sys

import (
	"runtime"
	"unsafe"
)

// Backend is the host side of the import surface. Implementations return an
// error to trap; the error is raised as a panic carrying a Trap so nothing
// after the import executes, matching a real host trap.
type Backend interface {
	ReadRegister(registerID, ptr uint64) error
	RegisterLen(registerID uint64) (uint64, error)
	WriteRegister(registerID, dataLen, dataPtr uint64) error

	CurrentAccountID(registerID uint64) error
	SignerAccountID(registerID uint64) error
	SignerAccountPK(registerID uint64) error
	PredecessorAccountID(registerID uint64) error
	Input(registerID uint64) error
	BlockIndex() (uint64, error)
	BlockTimestamp() (uint64, error)
	EpochHeight() (uint64, error)
	StorageUsage() (uint64, error)

	AccountBalance(balancePtr uint64) error
	AccountLockedBalance(balancePtr uint64) error
	AttachedDeposit(balancePtr uint64) error
	PrepaidGas() (uint64, error)
	UsedGas() (uint64, error)

	RandomSeed(registerID uint64) error
	Sha256(valueLen, valuePtr, registerID uint64) error
	Keccak256(valueLen, valuePtr, registerID uint64) error
	Keccak512(valueLen, valuePtr, registerID uint64) error

	ValueReturn(valueLen, valuePtr uint64) error
	Panic() error
	PanicUTF8(msgLen, msgPtr uint64) error
	LogUTF8(msgLen, msgPtr uint64) error

	PromiseCreate(accountLen, accountPtr, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas uint64) (uint64, error)
	PromiseThen(promiseIdx, accountLen, accountPtr, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas uint64) (uint64, error)
	PromiseAnd(indicesPtr, count uint64) (uint64, error)
	PromiseBatchCreate(accountLen, accountPtr uint64) (uint64, error)
	PromiseBatchThen(promiseIdx, accountLen, accountPtr uint64) (uint64, error)
	PromiseBatchActionCreateAccount(promiseIdx uint64) error
	PromiseBatchActionDeployContract(promiseIdx, codeLen, codePtr uint64) error
	PromiseBatchActionFunctionCall(promiseIdx, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas uint64) error
	PromiseBatchActionTransfer(promiseIdx, amountPtr uint64) error
	PromiseBatchActionStake(promiseIdx, amountPtr, keyLen, keyPtr uint64) error
	PromiseBatchActionAddKeyWithFullAccess(promiseIdx, keyLen, keyPtr, nonce uint64) error
	PromiseBatchActionAddKeyWithFunctionCall(promiseIdx, keyLen, keyPtr, nonce, allowancePtr, receiverLen, receiverPtr, methodsLen, methodsPtr uint64) error
	PromiseBatchActionDeleteKey(promiseIdx, keyLen, keyPtr uint64) error
	PromiseBatchActionDeleteAccount(promiseIdx, beneficiaryLen, beneficiaryPtr uint64) error
	PromiseResultsCount() (uint64, error)
	PromiseResult(resultIdx, registerID uint64) (uint64, error)
	PromiseReturn(promiseIdx uint64) error

	StorageWrite(keyLen, keyPtr, valueLen, valuePtr, registerID uint64) (uint64, error)
	StorageRead(keyLen, keyPtr, registerID uint64) (uint64, error)
	StorageRemove(keyLen, keyPtr, registerID uint64) (uint64, error)
	StorageHasKey(keyLen, keyPtr uint64) (uint64, error)

	ValidatorStake(accountLen, accountPtr, stakePtr uint64) error
	ValidatorTotalStake(stakePtr uint64) error
}

// Trap is the panic value raised when the backend terminates the call.
type Trap struct {
	Err error
}

func (t Trap) Error() string { return "host trap: " + t.Err.Error() }

func (t Trap) Unwrap() error { return t.Err }

// IsTrap reports whether a recovered panic value is a host trap.
func IsTrap(v any) bool {
	_, ok := v.(Trap)
	return ok
}

var (
	backend Backend
	pinner  runtime.Pinner
)

// SetBackend installs b as the host and returns the previous one.
func SetBackend(b Backend) Backend {
	prev := backend
	backend = b
	return prev
}

// CurrentBackend returns the installed host, or nil.
func CurrentBackend() Backend {
	return backend
}

// Ptr returns the address of b's first byte, or 0 for an empty slice. The
// backing array is pinned until Unpin so the host can address it.
func Ptr(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	p := unsafe.SliceData(b)
	pinner.Pin(p)
	return uint64(uintptr(unsafe.Pointer(p)))
}

// Unpin releases every slice pinned by Ptr. Hosts call it when a call ends.
func Unpin() {
	pinner.Unpin()
}

func host() Backend {
	if backend == nil {
		panic(Trap{Err: errNoBackend})
	}
	return backend
}

func check(err error) {
	if err != nil {
		panic(Trap{Err: err})
	}
}

func value(v uint64, err error) uint64 {
	check(err)
	return v
}

type noBackendError struct{}

func (noBackendError) Error() string { return "sys: no host backend installed" }

var errNoBackend error = noBackendError{}

func ReadRegister(registerID, ptr uint64) { check(host().ReadRegister(registerID, ptr)) }

func RegisterLen(registerID uint64) uint64 { return value(host().RegisterLen(registerID)) }

func WriteRegister(registerID, dataLen, dataPtr uint64) {
	check(host().WriteRegister(registerID, dataLen, dataPtr))
}

func CurrentAccountID(registerID uint64) { check(host().CurrentAccountID(registerID)) }

func SignerAccountID(registerID uint64) { check(host().SignerAccountID(registerID)) }

func SignerAccountPK(registerID uint64) { check(host().SignerAccountPK(registerID)) }

func PredecessorAccountID(registerID uint64) { check(host().PredecessorAccountID(registerID)) }

func Input(registerID uint64) { check(host().Input(registerID)) }

func BlockIndex() uint64 { return value(host().BlockIndex()) }

func BlockTimestamp() uint64 { return value(host().BlockTimestamp()) }

func EpochHeight() uint64 { return value(host().EpochHeight()) }

func StorageUsage() uint64 { return value(host().StorageUsage()) }

func AccountBalance(balancePtr uint64) { check(host().AccountBalance(balancePtr)) }

func AccountLockedBalance(balancePtr uint64) { check(host().AccountLockedBalance(balancePtr)) }

func AttachedDeposit(balancePtr uint64) { check(host().AttachedDeposit(balancePtr)) }

func PrepaidGas() uint64 { return value(host().PrepaidGas()) }

func UsedGas() uint64 { return value(host().UsedGas()) }

func RandomSeed(registerID uint64) { check(host().RandomSeed(registerID)) }

func Sha256(valueLen, valuePtr, registerID uint64) {
	check(host().Sha256(valueLen, valuePtr, registerID))
}

func Keccak256(valueLen, valuePtr, registerID uint64) {
	check(host().Keccak256(valueLen, valuePtr, registerID))
}

func Keccak512(valueLen, valuePtr, registerID uint64) {
	check(host().Keccak512(valueLen, valuePtr, registerID))
}

func ValueReturn(valueLen, valuePtr uint64) { check(host().ValueReturn(valueLen, valuePtr)) }

func Panic() {
	check(host().Panic())
	panic(Trap{Err: errHostReturned})
}

func PanicUTF8(msgLen, msgPtr uint64) {
	check(host().PanicUTF8(msgLen, msgPtr))
	panic(Trap{Err: errHostReturned})
}

func LogUTF8(msgLen, msgPtr uint64) { check(host().LogUTF8(msgLen, msgPtr)) }

func PromiseCreate(accountLen, accountPtr, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas uint64) uint64 {
	return value(host().PromiseCreate(accountLen, accountPtr, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas))
}

func PromiseThen(promiseIdx, accountLen, accountPtr, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas uint64) uint64 {
	return value(host().PromiseThen(promiseIdx, accountLen, accountPtr, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas))
}

func PromiseAnd(indicesPtr, count uint64) uint64 {
	return value(host().PromiseAnd(indicesPtr, count))
}

func PromiseBatchCreate(accountLen, accountPtr uint64) uint64 {
	return value(host().PromiseBatchCreate(accountLen, accountPtr))
}

func PromiseBatchThen(promiseIdx, accountLen, accountPtr uint64) uint64 {
	return value(host().PromiseBatchThen(promiseIdx, accountLen, accountPtr))
}

func PromiseBatchActionCreateAccount(promiseIdx uint64) {
	check(host().PromiseBatchActionCreateAccount(promiseIdx))
}

func PromiseBatchActionDeployContract(promiseIdx, codeLen, codePtr uint64) {
	check(host().PromiseBatchActionDeployContract(promiseIdx, codeLen, codePtr))
}

func PromiseBatchActionFunctionCall(promiseIdx, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas uint64) {
	check(host().PromiseBatchActionFunctionCall(promiseIdx, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas))
}

func PromiseBatchActionTransfer(promiseIdx, amountPtr uint64) {
	check(host().PromiseBatchActionTransfer(promiseIdx, amountPtr))
}

func PromiseBatchActionStake(promiseIdx, amountPtr, keyLen, keyPtr uint64) {
	check(host().PromiseBatchActionStake(promiseIdx, amountPtr, keyLen, keyPtr))
}

func PromiseBatchActionAddKeyWithFullAccess(promiseIdx, keyLen, keyPtr, nonce uint64) {
	check(host().PromiseBatchActionAddKeyWithFullAccess(promiseIdx, keyLen, keyPtr, nonce))
}

func PromiseBatchActionAddKeyWithFunctionCall(promiseIdx, keyLen, keyPtr, nonce, allowancePtr, receiverLen, receiverPtr, methodsLen, methodsPtr uint64) {
	check(host().PromiseBatchActionAddKeyWithFunctionCall(promiseIdx, keyLen, keyPtr, nonce, allowancePtr, receiverLen, receiverPtr, methodsLen, methodsPtr))
}

func PromiseBatchActionDeleteKey(promiseIdx, keyLen, keyPtr uint64) {
	check(host().PromiseBatchActionDeleteKey(promiseIdx, keyLen, keyPtr))
}

func PromiseBatchActionDeleteAccount(promiseIdx, beneficiaryLen, beneficiaryPtr uint64) {
	check(host().PromiseBatchActionDeleteAccount(promiseIdx, beneficiaryLen, beneficiaryPtr))
}

func PromiseResultsCount() uint64 { return value(host().PromiseResultsCount()) }

func PromiseResult(resultIdx, registerID uint64) uint64 {
	return value(host().PromiseResult(resultIdx, registerID))
}

func PromiseReturn(promiseIdx uint64) { check(host().PromiseReturn(promiseIdx)) }

func StorageWrite(keyLen, keyPtr, valueLen, valuePtr, registerID uint64) uint64 {
	return value(host().StorageWrite(keyLen, keyPtr, valueLen, valuePtr, registerID))
}

func StorageRead(keyLen, keyPtr, registerID uint64) uint64 {
	return value(host().StorageRead(keyLen, keyPtr, registerID))
}

func StorageRemove(keyLen, keyPtr, registerID uint64) uint64 {
	return value(host().StorageRemove(keyLen, keyPtr, registerID))
}

func StorageHasKey(keyLen, keyPtr uint64) uint64 {
	return value(host().StorageHasKey(keyLen, keyPtr))
}

func ValidatorStake(accountLen, accountPtr, stakePtr uint64) {
	check(host().ValidatorStake(accountLen, accountPtr, stakePtr))
}

func ValidatorTotalStake(stakePtr uint64) { check(host().ValidatorTotalStake(stakePtr)) }

type hostReturnedError struct{}

func (hostReturnedError) Error() string { return "sys: host returned from a trapping import" }

var errHostReturned error = hostReturnedError{}
