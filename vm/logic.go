// Package vm implements the host side of every import a contract can call.
//
// A Logic serves exactly one call. It owns the call's registers, the staged
// storage writes, logs, return value and scheduled receipts, and turns them
// into an Outcome when the call ends. Each import returns an error to trap;
// the first trap is remembered and becomes the call's failure.
package vm

import (
	"context"
	"crypto/sha256"
	"errors"
	"log/slog"
	"math"
	"unicode/utf8"

	"golang.org/x/crypto/sha3"

	"github.com/austinabell/nesdie/state"
	"github.com/austinabell/nesdie/sys"
	"github.com/austinabell/nesdie/types"
)

// registerFromMemory is the length value that redirects a key or value
// parameter to the register named by the pointer parameter.
const registerFromMemory = math.MaxUint64

var _ sys.Backend = (*Logic)(nil)

// Logic is the host state of one call.
type Logic struct {
	ctx     *Context
	mem     Memory
	pending *state.Overlay
	storage state.Store
	gasCfg  GasConfig
	limits  Limits
	logger  *slog.Logger

	gas           gasCounter
	registers     map[uint64][]byte
	logs          []string
	logBytes      uint64
	returnData    []byte
	returnPromise *types.PromiseIndex
	receipts      []Receipt
	promises      []promise
	storageUsage  uint64
	initialUsage  uint64
	usageRecorded bool
	trap          *HostError
}

// NewLogic prepares a call of ctx against the current account's namespace in
// store. mem may be nil and set later with SetMemory, once the module
// instance exists.
func NewLogic(ctx *Context, mem Memory, store state.Store, opts ...Option) *Logic {
	pending := state.NewOverlay(store)
	l := &Logic{
		ctx:          ctx,
		mem:          mem,
		pending:      pending,
		storage:      state.Prefixed(pending, ctx.CurrentAccountID),
		gasCfg:       DefaultGasConfig,
		limits:       DefaultLimits,
		logger:       slog.Default(),
		registers:    make(map[uint64][]byte),
		storageUsage: ctx.StorageUsage,
		gas:          gasCounter{prepaid: ctx.PrepaidGas},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.loadUsage(store)
	return l
}

// loadUsage replaces the context's storage usage with the value recorded by
// an earlier call, so accounting carries across calls on the same store.
func (l *Logic) loadUsage(store state.Store) {
	n, ok, err := state.LoadUsage(store, l.ctx.CurrentAccountID)
	if err != nil {
		l.record(&err)
		return
	}
	if ok {
		l.storageUsage = n
		l.usageRecorded = true
	}
	l.initialUsage = l.storageUsage
}

// SetMemory attaches the module's linear memory.
func (l *Logic) SetMemory(mem Memory) {
	l.mem = mem
}

// Context returns the call's context.
func (l *Logic) Context() *Context { return l.ctx }

// Trapped returns the first trap raised during the call, or nil.
func (l *Logic) Trapped() *HostError { return l.trap }

// Fail records err as the call's trap unless one is already recorded. Hosts
// use it for failures raised outside an import, such as a wasm trap.
func (l *Logic) Fail(err error) *HostError {
	l.record(&err)
	return l.trap
}

// enter charges the base import price. Once the call has trapped every
// import fails with the same trap.
func (l *Logic) enter(extra types.Gas) error {
	if l.trap != nil {
		return l.trap
	}
	return l.gas.burn(l.gasCfg.Base + extra)
}

// record remembers the first trap. Errors that are not host errors come
// from the storage layer.
func (l *Logic) record(errp *error) {
	if *errp == nil {
		return
	}
	var he *HostError
	if !errors.As(*errp, &he) {
		he = &HostError{Kind: StorageError, Message: (*errp).Error()}
		*errp = he
	}
	if l.trap == nil {
		l.trap = he
		l.logger.DebugContext(context.Background(), "call trapped",
			slog.String("account", string(l.ctx.CurrentAccountID)),
			slog.String("kind", he.Kind.String()),
			slog.String("message", he.Message))
	}
}

func (l *Logic) notInView(name string) error {
	if l.ctx.IsView {
		return hostErr(ProhibitedInView, "%s is not allowed in view calls", name)
	}
	return nil
}

func (l *Logic) burnBytes(price types.Gas, n uint64) error {
	cost, err := perByte(price, n)
	if err != nil {
		return err
	}
	return l.gas.burn(cost)
}

func (l *Logic) memRead(ptr, n uint64) ([]byte, error) {
	if err := l.burnBytes(l.gasCfg.ReadMemoryByte, n); err != nil {
		return nil, err
	}
	if n == 0 {
		return []byte{}, nil
	}
	if l.mem == nil {
		return nil, hostErr(MemoryAccessViolation, "no memory attached")
	}
	return l.mem.Read(ptr, n)
}

func (l *Logic) memWrite(ptr uint64, data []byte) error {
	if err := l.burnBytes(l.gasCfg.WriteMemoryByte, uint64(len(data))); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if l.mem == nil {
		return hostErr(MemoryAccessViolation, "no memory attached")
	}
	return l.mem.Write(ptr, data)
}

// getBytes reads n bytes at ptr, or the content of register ptr when n is
// MaxUint64.
func (l *Logic) getBytes(n, ptr uint64) ([]byte, error) {
	if n != registerFromMemory {
		return l.memRead(ptr, n)
	}
	data, ok := l.registers[ptr]
	if !ok {
		return nil, hostErr(InvalidRegisterID, "register %d is not set", ptr)
	}
	if err := l.burnBytes(l.gasCfg.ReadRegisterByte, uint64(len(data))); err != nil {
		return nil, err
	}
	return append([]byte{}, data...), nil
}

func (l *Logic) getUTF8(n, ptr uint64) (string, error) {
	b, err := l.getBytes(n, ptr)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", hostErr(BadUTF8, "string is not valid UTF-8")
	}
	return string(b), nil
}

func (l *Logic) getAccountID(n, ptr uint64) (types.AccountID, error) {
	s, err := l.getUTF8(n, ptr)
	if err != nil {
		return "", err
	}
	id := types.AccountID(s)
	if !ValidAccountID(id) {
		return "", hostErr(InvalidAccountID, "%q is not a valid account id", s)
	}
	return id, nil
}

func (l *Logic) getBalance(ptr uint64) (types.Balance, error) {
	b, err := l.memRead(ptr, types.BalanceSize)
	if err != nil {
		return types.Balance{}, err
	}
	return types.BalanceFromLE([types.BalanceSize]byte(b)), nil
}

func (l *Logic) setBalance(ptr uint64, b types.Balance) error {
	le := b.LE()
	return l.memWrite(ptr, le[:])
}

func (l *Logic) setRegister(id uint64, data []byte) error {
	if uint64(len(data)) > l.limits.MaxRegisterSize {
		return hostErr(RegisterLimitExceeded, "register %d would hold %d bytes, limit is %d", id, len(data), l.limits.MaxRegisterSize)
	}
	if _, ok := l.registers[id]; !ok && len(l.registers) >= l.limits.MaxRegisters {
		return hostErr(RegisterLimitExceeded, "more than %d registers", l.limits.MaxRegisters)
	}
	if err := l.burnBytes(l.gasCfg.WriteRegisterByte, uint64(len(data))); err != nil {
		return err
	}
	l.registers[id] = append([]byte{}, data...)
	return nil
}

// Registers

func (l *Logic) ReadRegister(registerID, ptr uint64) (err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return err
	}
	data, ok := l.registers[registerID]
	if !ok {
		return hostErr(InvalidRegisterID, "register %d is not set", registerID)
	}
	if err := l.burnBytes(l.gasCfg.ReadRegisterByte, uint64(len(data))); err != nil {
		return err
	}
	return l.memWrite(ptr, data)
}

func (l *Logic) RegisterLen(registerID uint64) (_ uint64, err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return 0, err
	}
	data, ok := l.registers[registerID]
	if !ok {
		return math.MaxUint64, nil
	}
	return uint64(len(data)), nil
}

func (l *Logic) WriteRegister(registerID, dataLen, dataPtr uint64) (err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return err
	}
	data, err := l.memRead(dataPtr, dataLen)
	if err != nil {
		return err
	}
	return l.setRegister(registerID, data)
}

// Context

func (l *Logic) CurrentAccountID(registerID uint64) (err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return err
	}
	return l.setRegister(registerID, []byte(l.ctx.CurrentAccountID))
}

func (l *Logic) SignerAccountID(registerID uint64) (err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return err
	}
	if err := l.notInView("signer_account_id"); err != nil {
		return err
	}
	return l.setRegister(registerID, []byte(l.ctx.SignerAccountID))
}

func (l *Logic) SignerAccountPK(registerID uint64) (err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return err
	}
	if err := l.notInView("signer_account_pk"); err != nil {
		return err
	}
	return l.setRegister(registerID, l.ctx.SignerAccountPK)
}

func (l *Logic) PredecessorAccountID(registerID uint64) (err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return err
	}
	if err := l.notInView("predecessor_account_id"); err != nil {
		return err
	}
	return l.setRegister(registerID, []byte(l.ctx.PredecessorAccountID))
}

// Input always sets the register, to an empty value for a call without
// arguments.
func (l *Logic) Input(registerID uint64) (err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return err
	}
	return l.setRegister(registerID, l.ctx.Input)
}

func (l *Logic) BlockIndex() (_ uint64, err error) {
	defer l.record(&err)
	return l.ctx.BlockIndex, l.enter(0)
}

func (l *Logic) BlockTimestamp() (_ uint64, err error) {
	defer l.record(&err)
	return l.ctx.BlockTimestamp, l.enter(0)
}

func (l *Logic) EpochHeight() (_ uint64, err error) {
	defer l.record(&err)
	return l.ctx.EpochHeight, l.enter(0)
}

func (l *Logic) StorageUsage() (_ uint64, err error) {
	defer l.record(&err)
	return l.storageUsage, l.enter(0)
}

// Economics

func (l *Logic) AccountBalance(balancePtr uint64) (err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return err
	}
	return l.setBalance(balancePtr, l.ctx.AccountBalance)
}

func (l *Logic) AccountLockedBalance(balancePtr uint64) (err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return err
	}
	return l.setBalance(balancePtr, l.ctx.AccountLockedBalance)
}

func (l *Logic) AttachedDeposit(balancePtr uint64) (err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return err
	}
	if err := l.notInView("attached_deposit"); err != nil {
		return err
	}
	return l.setBalance(balancePtr, l.ctx.AttachedDeposit)
}

func (l *Logic) PrepaidGas() (_ uint64, err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return 0, err
	}
	if err := l.notInView("prepaid_gas"); err != nil {
		return 0, err
	}
	return l.ctx.PrepaidGas, nil
}

func (l *Logic) UsedGas() (_ uint64, err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return 0, err
	}
	if err := l.notInView("used_gas"); err != nil {
		return 0, err
	}
	return l.gas.used, nil
}

// Math

func (l *Logic) RandomSeed(registerID uint64) (err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return err
	}
	return l.setRegister(registerID, l.ctx.RandomSeed)
}

func (l *Logic) Sha256(valueLen, valuePtr, registerID uint64) (err error) {
	defer l.record(&err)
	value, err := l.hashInput(valueLen, valuePtr)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(value)
	return l.setRegister(registerID, sum[:])
}

func (l *Logic) Keccak256(valueLen, valuePtr, registerID uint64) (err error) {
	defer l.record(&err)
	value, err := l.hashInput(valueLen, valuePtr)
	if err != nil {
		return err
	}
	h := sha3.NewLegacyKeccak256()
	h.Write(value)
	return l.setRegister(registerID, h.Sum(nil))
}

func (l *Logic) Keccak512(valueLen, valuePtr, registerID uint64) (err error) {
	defer l.record(&err)
	value, err := l.hashInput(valueLen, valuePtr)
	if err != nil {
		return err
	}
	h := sha3.NewLegacyKeccak512()
	h.Write(value)
	return l.setRegister(registerID, h.Sum(nil))
}

func (l *Logic) hashInput(n, ptr uint64) ([]byte, error) {
	if err := l.enter(l.gasCfg.HashBase); err != nil {
		return nil, err
	}
	value, err := l.getBytes(n, ptr)
	if err != nil {
		return nil, err
	}
	return value, l.burnBytes(l.gasCfg.HashByte, uint64(len(value)))
}

// Miscellaneous

// ValueReturn sets the call's result. A later call replaces an earlier one.
func (l *Logic) ValueReturn(valueLen, valuePtr uint64) (err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return err
	}
	value, err := l.getBytes(valueLen, valuePtr)
	if err != nil {
		return err
	}
	l.returnData = value
	l.returnPromise = nil
	return nil
}

func (l *Logic) Panic() (err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return err
	}
	return hostErr(GuestPanic, "explicit guest panic")
}

func (l *Logic) PanicUTF8(msgLen, msgPtr uint64) (err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return err
	}
	msg, err := l.getUTF8(msgLen, msgPtr)
	if err != nil {
		return err
	}
	return &HostError{Kind: GuestPanic, Message: msg}
}

func (l *Logic) LogUTF8(msgLen, msgPtr uint64) (err error) {
	defer l.record(&err)
	if err := l.enter(l.gasCfg.LogBase); err != nil {
		return err
	}
	msg, err := l.getUTF8(msgLen, msgPtr)
	if err != nil {
		return err
	}
	if err := l.burnBytes(l.gasCfg.LogByte, uint64(len(msg))); err != nil {
		return err
	}
	if len(l.logs) >= l.limits.MaxLogs {
		return hostErr(NumberOfLogsExceeded, "more than %d log entries", l.limits.MaxLogs)
	}
	if l.logBytes+uint64(len(msg)) > l.limits.MaxTotalLogLength {
		return hostErr(TotalLogLengthExceeded, "logs exceed %d bytes", l.limits.MaxTotalLogLength)
	}
	l.logBytes += uint64(len(msg))
	l.logs = append(l.logs, msg)
	return nil
}

// Validators

func (l *Logic) ValidatorStake(accountLen, accountPtr, stakePtr uint64) (err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return err
	}
	account, err := l.getUTF8(accountLen, accountPtr)
	if err != nil {
		return err
	}
	return l.setBalance(stakePtr, l.ctx.Validators[types.AccountID(account)])
}

func (l *Logic) ValidatorTotalStake(stakePtr uint64) (err error) {
	defer l.record(&err)
	if err := l.enter(0); err != nil {
		return err
	}
	var total types.Balance
	for _, stake := range l.ctx.Validators {
		if total, err = total.Add(stake); err != nil {
			return hostErr(IntegerOverflow, "total stake overflows")
		}
	}
	return l.setBalance(stakePtr, total)
}
