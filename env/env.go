// Package env wraps the host imports with Go signatures.
//
// Wrappers are thin: each performs the import, converts between Go values
// and the host's integer calling convention, and reads results out of
// registers. A host that answers outside its documented range is a broken
// contract with the runtime and aborts the call.
package env

import (
	"errors"
	"fmt"

	"github.com/austinabell/nesdie/abort"
	"github.com/austinabell/nesdie/register"
	"github.com/austinabell/nesdie/sys"
	"github.com/austinabell/nesdie/types"
)

// maxAccountIDLen bounds the account identifiers the host hands out.
const maxAccountIDLen = 64

// Input returns the arguments the call was invoked with. A call without
// arguments yields an empty slice.
func Input() ([]byte, error) {
	sys.Input(register.AtomicOp)
	b, err := register.Read(register.AtomicOp)
	if errors.Is(err, register.ErrNotSet) {
		return []byte{}, nil
	}
	return b, err
}

// CurrentAccountID is the account that owns the running contract.
func CurrentAccountID() types.AccountID {
	sys.CurrentAccountID(register.AtomicOp)
	return readAccountID()
}

// SignerAccountID is the account that signed the originating transaction.
func SignerAccountID() types.AccountID {
	sys.SignerAccountID(register.AtomicOp)
	return readAccountID()
}

// SignerAccountPK is the public key of the originating transaction's signer.
func SignerAccountPK() types.PublicKey {
	sys.SignerAccountPK(register.AtomicOp)
	return types.PublicKey(mustRead(register.AtomicOp))
}

// PredecessorAccountID is the account that called this contract, which is the
// signer for a direct call and a contract for a cross-contract call.
func PredecessorAccountID() types.AccountID {
	sys.PredecessorAccountID(register.AtomicOp)
	return readAccountID()
}

func BlockIndex() uint64 { return sys.BlockIndex() }

// BlockTimestamp is the block time in nanoseconds since the Unix epoch.
func BlockTimestamp() uint64 { return sys.BlockTimestamp() }

func EpochHeight() uint64 { return sys.EpochHeight() }

// StorageUsage is the number of bytes the account is currently charged for.
func StorageUsage() types.StorageUsage { return sys.StorageUsage() }

func AccountBalance() types.Balance {
	return readBalance(sys.AccountBalance)
}

func AccountLockedBalance() types.Balance {
	return readBalance(sys.AccountLockedBalance)
}

// AttachedDeposit is the balance transferred with this call.
func AttachedDeposit() types.Balance {
	return readBalance(sys.AttachedDeposit)
}

func PrepaidGas() types.Gas { return sys.PrepaidGas() }

func UsedGas() types.Gas { return sys.UsedGas() }

// RandomSeed returns the host's per-block random seed. It is deterministic
// for every execution of the same block.
func RandomSeed() []byte {
	sys.RandomSeed(register.AtomicOp)
	return mustRead(register.AtomicOp)
}

// ValueReturn sets the call's result. A later call overwrites an earlier one.
func ValueReturn(value []byte) {
	sys.ValueReturn(uint64(len(value)), sys.Ptr(value))
}

// LogStr appends a UTF-8 line to the call's logs.
func LogStr(msg string) {
	b := []byte(msg)
	sys.LogUTF8(uint64(len(b)), sys.Ptr(b))
}

// Log appends raw UTF-8 bytes to the call's logs.
func Log(msg []byte) {
	sys.LogUTF8(uint64(len(msg)), sys.Ptr(msg))
}

// ValidatorStake returns the stake of account, or zero for non-validators.
func ValidatorStake(account types.AccountID) types.Balance {
	a := []byte(account)
	buf := make([]byte, types.BalanceSize)
	sys.ValidatorStake(uint64(len(a)), sys.Ptr(a), sys.Ptr(buf))
	return balanceFrom(buf)
}

// ValidatorTotalStake is the total stake of validators in the current epoch.
func ValidatorTotalStake() types.Balance {
	return readBalance(sys.ValidatorTotalStake)
}

func readBalance(imp func(ptr uint64)) types.Balance {
	buf := make([]byte, types.BalanceSize)
	imp(sys.Ptr(buf))
	return balanceFrom(buf)
}

func balanceFrom(buf []byte) types.Balance {
	return types.BalanceFromLE([types.BalanceSize]byte(buf))
}

func balanceBytes(b types.Balance) []byte {
	le := b.LE()
	buf := make([]byte, types.BalanceSize)
	copy(buf, le[:])
	return buf
}

func readAccountID() types.AccountID {
	buf := make([]byte, maxAccountIDLen)
	n, err := register.ReadInto(register.AtomicOp, buf)
	if err != nil {
		abort.Error(fmt.Errorf("account id: %w", err))
	}
	return types.AccountID(buf[:n])
}

// mustRead reads a register the host has just been asked to fill. An unset
// register here means the host broke its contract.
func mustRead(id register.ID) []byte {
	b, err := register.Read(id)
	if err != nil {
		abort.Error(err)
	}
	return b
}

// boolResult checks a 0/1 answer from the host.
func boolResult(name string, v uint64) bool {
	switch v {
	case 0:
		return false
	case 1:
		return true
	default:
		abort.Abort(fmt.Sprintf("%s: unexpected host return value %d", name, v))
		return false
	}
}
