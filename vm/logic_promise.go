package vm

import (
	"encoding/binary"
	"math/bits"
	"strings"

	"github.com/austinabell/nesdie/types"
)

func (l *Logic) enterPromise(name string) error {
	if err := l.enter(l.gasCfg.PromiseBase); err != nil {
		return err
	}
	return l.notInView(name)
}

func (l *Logic) newReceipt(receiver types.AccountID, dependsOn []int) uint64 {
	l.receipts = append(l.receipts, Receipt{Receiver: receiver, DependsOn: dependsOn})
	l.promises = append(l.promises, promise{receipt: len(l.receipts) - 1})
	return uint64(len(l.promises) - 1)
}

func (l *Logic) promiseAt(idx uint64) (promise, error) {
	if idx >= uint64(len(l.promises)) {
		return promise{}, hostErr(InvalidPromiseIndex, "promise index %d does not exist", idx)
	}
	return l.promises[idx], nil
}

// appendAction adds a to the receipt behind idx. Joint promises have no
// receipt of their own and cannot take actions.
func (l *Logic) appendAction(idx uint64, a Action) error {
	if err := l.gas.burn(l.gasCfg.ActionBase); err != nil {
		return err
	}
	p, err := l.promiseAt(idx)
	if err != nil {
		return err
	}
	if p.joint != nil {
		return hostErr(CannotAppendActionToJointPromise, "promise %d is a join", idx)
	}
	r := &l.receipts[p.receipt]
	r.Actions = append(r.Actions, a)
	return nil
}

func (l *Logic) functionCall(methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas uint64) (FunctionCall, error) {
	method, err := l.getUTF8(methodLen, methodPtr)
	if err != nil {
		return FunctionCall{}, err
	}
	args, err := l.getBytes(argsLen, argsPtr)
	if err != nil {
		return FunctionCall{}, err
	}
	amount, err := l.getBalance(amountPtr)
	if err != nil {
		return FunctionCall{}, err
	}
	return FunctionCall{Method: method, Args: args, Deposit: amount, Gas: gas}, nil
}

func (l *Logic) PromiseCreate(accountLen, accountPtr, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas uint64) (_ uint64, err error) {
	defer l.record(&err)
	if err := l.enterPromise("promise_create"); err != nil {
		return 0, err
	}
	account, err := l.getAccountID(accountLen, accountPtr)
	if err != nil {
		return 0, err
	}
	call, err := l.functionCall(methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas)
	if err != nil {
		return 0, err
	}
	idx := l.newReceipt(account, nil)
	return idx, l.appendAction(idx, call)
}

func (l *Logic) PromiseThen(promiseIdx, accountLen, accountPtr, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas uint64) (_ uint64, err error) {
	defer l.record(&err)
	if err := l.enterPromise("promise_then"); err != nil {
		return 0, err
	}
	after, err := l.promiseAt(promiseIdx)
	if err != nil {
		return 0, err
	}
	account, err := l.getAccountID(accountLen, accountPtr)
	if err != nil {
		return 0, err
	}
	call, err := l.functionCall(methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas)
	if err != nil {
		return 0, err
	}
	idx := l.newReceipt(account, after.receipts())
	return idx, l.appendAction(idx, call)
}

// PromiseAnd joins count promises whose indices are stored as little-endian
// u64 values at indicesPtr.
func (l *Logic) PromiseAnd(indicesPtr, count uint64) (_ uint64, err error) {
	defer l.record(&err)
	if err := l.enterPromise("promise_and"); err != nil {
		return 0, err
	}
	hi, size := bits.Mul64(count, 8)
	if hi != 0 {
		return 0, hostErr(IntegerOverflow, "promise count %d overflows", count)
	}
	raw, err := l.memRead(indicesPtr, size)
	if err != nil {
		return 0, err
	}
	var joint []int
	for i := uint64(0); i < count; i++ {
		p, err := l.promiseAt(binary.LittleEndian.Uint64(raw[8*i:]))
		if err != nil {
			return 0, err
		}
		joint = append(joint, p.receipts()...)
	}
	if joint == nil {
		joint = []int{}
	}
	l.promises = append(l.promises, promise{joint: joint})
	return uint64(len(l.promises) - 1), nil
}

func (l *Logic) PromiseBatchCreate(accountLen, accountPtr uint64) (_ uint64, err error) {
	defer l.record(&err)
	if err := l.enterPromise("promise_batch_create"); err != nil {
		return 0, err
	}
	account, err := l.getAccountID(accountLen, accountPtr)
	if err != nil {
		return 0, err
	}
	return l.newReceipt(account, nil), nil
}

func (l *Logic) PromiseBatchThen(promiseIdx, accountLen, accountPtr uint64) (_ uint64, err error) {
	defer l.record(&err)
	if err := l.enterPromise("promise_batch_then"); err != nil {
		return 0, err
	}
	after, err := l.promiseAt(promiseIdx)
	if err != nil {
		return 0, err
	}
	account, err := l.getAccountID(accountLen, accountPtr)
	if err != nil {
		return 0, err
	}
	return l.newReceipt(account, after.receipts()), nil
}

func (l *Logic) PromiseBatchActionCreateAccount(promiseIdx uint64) (err error) {
	defer l.record(&err)
	if err := l.enterPromise("promise_batch_action_create_account"); err != nil {
		return err
	}
	return l.appendAction(promiseIdx, CreateAccount{})
}

func (l *Logic) PromiseBatchActionDeployContract(promiseIdx, codeLen, codePtr uint64) (err error) {
	defer l.record(&err)
	if err := l.enterPromise("promise_batch_action_deploy_contract"); err != nil {
		return err
	}
	code, err := l.getBytes(codeLen, codePtr)
	if err != nil {
		return err
	}
	return l.appendAction(promiseIdx, DeployContract{Code: code})
}

func (l *Logic) PromiseBatchActionFunctionCall(promiseIdx, methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas uint64) (err error) {
	defer l.record(&err)
	if err := l.enterPromise("promise_batch_action_function_call"); err != nil {
		return err
	}
	call, err := l.functionCall(methodLen, methodPtr, argsLen, argsPtr, amountPtr, gas)
	if err != nil {
		return err
	}
	return l.appendAction(promiseIdx, call)
}

func (l *Logic) PromiseBatchActionTransfer(promiseIdx, amountPtr uint64) (err error) {
	defer l.record(&err)
	if err := l.enterPromise("promise_batch_action_transfer"); err != nil {
		return err
	}
	amount, err := l.getBalance(amountPtr)
	if err != nil {
		return err
	}
	return l.appendAction(promiseIdx, Transfer{Deposit: amount})
}

func (l *Logic) PromiseBatchActionStake(promiseIdx, amountPtr, keyLen, keyPtr uint64) (err error) {
	defer l.record(&err)
	if err := l.enterPromise("promise_batch_action_stake"); err != nil {
		return err
	}
	amount, err := l.getBalance(amountPtr)
	if err != nil {
		return err
	}
	key, err := l.getBytes(keyLen, keyPtr)
	if err != nil {
		return err
	}
	return l.appendAction(promiseIdx, Stake{Stake: amount, PublicKey: key})
}

func (l *Logic) PromiseBatchActionAddKeyWithFullAccess(promiseIdx, keyLen, keyPtr, nonce uint64) (err error) {
	defer l.record(&err)
	if err := l.enterPromise("promise_batch_action_add_key_with_full_access"); err != nil {
		return err
	}
	key, err := l.getBytes(keyLen, keyPtr)
	if err != nil {
		return err
	}
	return l.appendAction(promiseIdx, AddKey{PublicKey: key, Nonce: nonce})
}

// PromiseBatchActionAddKeyWithFunctionCall reads the allowed methods as one
// comma separated string.
func (l *Logic) PromiseBatchActionAddKeyWithFunctionCall(promiseIdx, keyLen, keyPtr, nonce, allowancePtr, receiverLen, receiverPtr, methodsLen, methodsPtr uint64) (err error) {
	defer l.record(&err)
	if err := l.enterPromise("promise_batch_action_add_key_with_function_call"); err != nil {
		return err
	}
	key, err := l.getBytes(keyLen, keyPtr)
	if err != nil {
		return err
	}
	allowance, err := l.getBalance(allowancePtr)
	if err != nil {
		return err
	}
	receiver, err := l.getAccountID(receiverLen, receiverPtr)
	if err != nil {
		return err
	}
	methods, err := l.getUTF8(methodsLen, methodsPtr)
	if err != nil {
		return err
	}
	perm := &FunctionCallPermission{Allowance: allowance, Receiver: receiver, Methods: []string{}}
	if methods != "" {
		perm.Methods = strings.Split(methods, ",")
	}
	return l.appendAction(promiseIdx, AddKey{PublicKey: key, Nonce: nonce, Permission: perm})
}

func (l *Logic) PromiseBatchActionDeleteKey(promiseIdx, keyLen, keyPtr uint64) (err error) {
	defer l.record(&err)
	if err := l.enterPromise("promise_batch_action_delete_key"); err != nil {
		return err
	}
	key, err := l.getBytes(keyLen, keyPtr)
	if err != nil {
		return err
	}
	return l.appendAction(promiseIdx, DeleteKey{PublicKey: key})
}

func (l *Logic) PromiseBatchActionDeleteAccount(promiseIdx, beneficiaryLen, beneficiaryPtr uint64) (err error) {
	defer l.record(&err)
	if err := l.enterPromise("promise_batch_action_delete_account"); err != nil {
		return err
	}
	beneficiary, err := l.getAccountID(beneficiaryLen, beneficiaryPtr)
	if err != nil {
		return err
	}
	return l.appendAction(promiseIdx, DeleteAccount{Beneficiary: beneficiary})
}

func (l *Logic) PromiseResultsCount() (_ uint64, err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return 0, err
	}
	if err := l.notInView("promise_results_count"); err != nil {
		return 0, err
	}
	return uint64(len(l.ctx.PromiseResults)), nil
}

// PromiseResult returns 0 when the result is not ready, 1 with the data in
// registerID on success, and 2 on failure.
func (l *Logic) PromiseResult(resultIdx, registerID uint64) (_ uint64, err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return 0, err
	}
	if err := l.notInView("promise_result"); err != nil {
		return 0, err
	}
	if resultIdx >= uint64(len(l.ctx.PromiseResults)) {
		return 0, hostErr(InvalidPromiseResultIndex, "promise result %d does not exist", resultIdx)
	}
	switch r := l.ctx.PromiseResults[resultIdx]; r.Status {
	case types.PromiseSuccessful:
		if err := l.setRegister(registerID, r.Data); err != nil {
			return 0, err
		}
		return 1, nil
	case types.PromiseFailed:
		return 2, nil
	default:
		return 0, nil
	}
}

// PromiseReturn makes the call's result the result of promiseIdx.
func (l *Logic) PromiseReturn(promiseIdx uint64) (err error) {
	defer l.record(&err)
	if err := l.enterPromise("promise_return"); err != nil {
		return err
	}
	p, err := l.promiseAt(promiseIdx)
	if err != nil {
		return err
	}
	if p.joint != nil {
		return hostErr(CannotReturnJointPromise, "promise %d is a join", promiseIdx)
	}
	idx := types.PromiseIndex(promiseIdx)
	l.returnPromise = &idx
	l.returnData = nil
	return nil
}
