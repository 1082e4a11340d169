package env

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/austinabell/nesdie/abort"
	"github.com/austinabell/nesdie/register"
	"github.com/austinabell/nesdie/sys"
	"github.com/austinabell/nesdie/types"
)

// Promise status codes returned by promise_result.
const (
	promiseNotReady   = 0
	promiseSuccessful = 1
	promiseFailed     = 2
)

// PromiseCreate schedules a function call on receiver. It runs after this
// call completes, and only if this call succeeds.
func PromiseCreate(receiver types.AccountID, method string, args []byte, amount types.Balance, gas types.Gas) types.PromiseIndex {
	a, m, amt := []byte(receiver), []byte(method), balanceBytes(amount)
	return types.PromiseIndex(sys.PromiseCreate(
		uint64(len(a)), sys.Ptr(a),
		uint64(len(m)), sys.Ptr(m),
		uint64(len(args)), sys.Ptr(args),
		sys.Ptr(amt), gas,
	))
}

// PromiseThen schedules a function call on receiver that runs once idx has
// resolved, successfully or not.
func PromiseThen(idx types.PromiseIndex, receiver types.AccountID, method string, args []byte, amount types.Balance, gas types.Gas) types.PromiseIndex {
	a, m, amt := []byte(receiver), []byte(method), balanceBytes(amount)
	return types.PromiseIndex(sys.PromiseThen(
		uint64(idx),
		uint64(len(a)), sys.Ptr(a),
		uint64(len(m)), sys.Ptr(m),
		uint64(len(args)), sys.Ptr(args),
		sys.Ptr(amt), gas,
	))
}

// PromiseAnd joins several promises into one that resolves when all of them
// have. A joint promise can be depended on but cannot carry actions.
func PromiseAnd(indices ...types.PromiseIndex) types.PromiseIndex {
	buf := make([]byte, 8*len(indices))
	for i, idx := range indices {
		binary.LittleEndian.PutUint64(buf[8*i:], uint64(idx))
	}
	return types.PromiseIndex(sys.PromiseAnd(sys.Ptr(buf), uint64(len(indices))))
}

// PromiseBatchCreate starts an empty batch of actions on account.
func PromiseBatchCreate(account types.AccountID) types.PromiseIndex {
	a := []byte(account)
	return types.PromiseIndex(sys.PromiseBatchCreate(uint64(len(a)), sys.Ptr(a)))
}

// PromiseBatchThen starts an empty batch on account that runs after idx.
func PromiseBatchThen(idx types.PromiseIndex, account types.AccountID) types.PromiseIndex {
	a := []byte(account)
	return types.PromiseIndex(sys.PromiseBatchThen(uint64(idx), uint64(len(a)), sys.Ptr(a)))
}

func PromiseBatchActionCreateAccount(idx types.PromiseIndex) {
	sys.PromiseBatchActionCreateAccount(uint64(idx))
}

func PromiseBatchActionDeployContract(idx types.PromiseIndex, code []byte) {
	sys.PromiseBatchActionDeployContract(uint64(idx), uint64(len(code)), sys.Ptr(code))
}

func PromiseBatchActionFunctionCall(idx types.PromiseIndex, method string, args []byte, amount types.Balance, gas types.Gas) {
	m, amt := []byte(method), balanceBytes(amount)
	sys.PromiseBatchActionFunctionCall(
		uint64(idx),
		uint64(len(m)), sys.Ptr(m),
		uint64(len(args)), sys.Ptr(args),
		sys.Ptr(amt), gas,
	)
}

func PromiseBatchActionTransfer(idx types.PromiseIndex, amount types.Balance) {
	sys.PromiseBatchActionTransfer(uint64(idx), sys.Ptr(balanceBytes(amount)))
}

func PromiseBatchActionStake(idx types.PromiseIndex, amount types.Balance, key types.PublicKey) {
	sys.PromiseBatchActionStake(uint64(idx), sys.Ptr(balanceBytes(amount)), uint64(len(key)), sys.Ptr(key))
}

func PromiseBatchActionAddKeyWithFullAccess(idx types.PromiseIndex, key types.PublicKey, nonce uint64) {
	sys.PromiseBatchActionAddKeyWithFullAccess(uint64(idx), uint64(len(key)), sys.Ptr(key), nonce)
}

// PromiseBatchActionAddKeyWithFunctionCall adds a key limited to calling
// methods on receiver. An empty methods list allows every method.
func PromiseBatchActionAddKeyWithFunctionCall(idx types.PromiseIndex, key types.PublicKey, nonce uint64, allowance types.Balance, receiver types.AccountID, methods []string) {
	r, ms, amt := []byte(receiver), []byte(strings.Join(methods, ",")), balanceBytes(allowance)
	sys.PromiseBatchActionAddKeyWithFunctionCall(
		uint64(idx),
		uint64(len(key)), sys.Ptr(key),
		nonce, sys.Ptr(amt),
		uint64(len(r)), sys.Ptr(r),
		uint64(len(ms)), sys.Ptr(ms),
	)
}

func PromiseBatchActionDeleteKey(idx types.PromiseIndex, key types.PublicKey) {
	sys.PromiseBatchActionDeleteKey(uint64(idx), uint64(len(key)), sys.Ptr(key))
}

func PromiseBatchActionDeleteAccount(idx types.PromiseIndex, beneficiary types.AccountID) {
	b := []byte(beneficiary)
	sys.PromiseBatchActionDeleteAccount(uint64(idx), uint64(len(b)), sys.Ptr(b))
}

// PromiseResultsCount is the number of promises this callback depends on.
func PromiseResultsCount() uint64 {
	return sys.PromiseResultsCount()
}

// PromiseResult returns the outcome of the i-th promise this callback
// depends on.
func PromiseResult(i uint64) (types.PromiseResult, error) {
	switch code := sys.PromiseResult(i, register.AtomicOp); code {
	case promiseNotReady:
		return types.PromiseResult{Status: types.PromiseNotReady}, nil
	case promiseSuccessful:
		data, err := register.Read(register.AtomicOp)
		if err != nil {
			return types.PromiseResult{}, fmt.Errorf("promise result %d: %w", i, err)
		}
		return types.PromiseResult{Status: types.PromiseSuccessful, Data: data}, nil
	case promiseFailed:
		return types.PromiseResult{Status: types.PromiseFailed}, nil
	default:
		abort.Abort(fmt.Sprintf("promise_result: unexpected host return value %d", code))
		return types.PromiseResult{}, nil
	}
}

// PromiseReturn makes this call's result the result of idx.
func PromiseReturn(idx types.PromiseIndex) {
	sys.PromiseReturn(uint64(idx))
}
