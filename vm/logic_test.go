package vm

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/austinabell/nesdie/state"
	"github.com/austinabell/nesdie/types"
)

func testContext() *Context {
	return &Context{
		CurrentAccountID:     "alice",
		SignerAccountID:      "bob",
		PredecessorAccountID: "bob",
		SignerAccountPK:      types.PublicKey{0, 1, 2, 3},
		Input:                []byte(`{"k":"v"}`),
		BlockIndex:           7,
		BlockTimestamp:       1_000,
		AccountBalance:       types.NewBalance(500),
		AttachedDeposit:      types.NewBalance(3),
		PrepaidGas:           300_000_000_000_000,
		RandomSeed:           make([]byte, 32),
	}
}

type harness struct {
	logic *Logic
	mem   *LinearMemory
	store *state.Memory
}

func newHarness(t *testing.T, ctx *Context, opts ...Option) *harness {
	t.Helper()
	require.NoError(t, ctx.Validate())
	store := state.NewMemory()
	mem := NewLinearMemory(64 * 1024)
	return &harness{logic: NewLogic(ctx, mem, store, opts...), mem: mem, store: store}
}

// put writes data at ptr and returns its length.
func (h *harness) put(t *testing.T, ptr uint64, data string) uint64 {
	t.Helper()
	require.NoError(t, h.mem.Write(ptr, []byte(data)))
	return uint64(len(data))
}

func (h *harness) get(t *testing.T, ptr, n uint64) []byte {
	t.Helper()
	b, err := h.mem.Read(ptr, n)
	require.NoError(t, err)
	return b
}

func (h *harness) register(t *testing.T, id uint64) []byte {
	t.Helper()
	n, err := h.logic.RegisterLen(id)
	require.NoError(t, err)
	require.NotEqual(t, uint64(math.MaxUint64), n, "register %d not set", id)
	require.NoError(t, h.logic.ReadRegister(id, 4096))
	return h.get(t, 4096, n)
}

func TestRegisters_RoundTrip(t *testing.T) {
	h := newHarness(t, testContext())

	tests := []struct {
		name string
		data string
	}{
		{name: "bytes", data: "hello register"},
		{name: "empty", data: ""},
		{name: "binary", data: "\x00\xff\x10"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := uint64(10 + i)
			n := h.put(t, 100, tt.data)
			require.NoError(t, h.logic.WriteRegister(id, n, 100))

			got, err := h.logic.RegisterLen(id)
			require.NoError(t, err)
			assert.Equal(t, n, got)
			assert.Equal(t, tt.data, string(h.register(t, id)))
		})
	}
}

func TestRegisters_Unset(t *testing.T) {
	h := newHarness(t, testContext())

	n, err := h.logic.RegisterLen(99)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), n)

	err = h.logic.ReadRegister(99, 0)
	var he *HostError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, InvalidRegisterID, he.Kind)
	assert.Same(t, he, h.logic.Trapped())
}

func TestRegisters_MemoryViolation(t *testing.T) {
	h := newHarness(t, testContext())
	err := h.logic.WriteRegister(1, 10, 64*1024-5)
	assert.ErrorIs(t, err, &HostError{Kind: MemoryAccessViolation})
}

func TestContextImports(t *testing.T) {
	h := newHarness(t, testContext())

	require.NoError(t, h.logic.CurrentAccountID(0))
	assert.Equal(t, "alice", string(h.register(t, 0)))

	require.NoError(t, h.logic.PredecessorAccountID(0))
	assert.Equal(t, "bob", string(h.register(t, 0)))

	require.NoError(t, h.logic.Input(0))
	assert.Equal(t, `{"k":"v"}`, string(h.register(t, 0)))

	idx, err := h.logic.BlockIndex()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), idx)

	require.NoError(t, h.logic.AttachedDeposit(200))
	assert.Equal(t, types.NewBalance(3), types.BalanceFromLE([16]byte(h.get(t, 200, 16))))

	used, err := h.logic.UsedGas()
	require.NoError(t, err)
	assert.Positive(t, used)
}

func TestInput_EmptyIsSet(t *testing.T) {
	ctx := testContext()
	ctx.Input = nil
	h := newHarness(t, ctx)

	require.NoError(t, h.logic.Input(0))
	n, err := h.logic.RegisterLen(0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStorage_WriteReadRemove(t *testing.T) {
	h := newHarness(t, testContext())
	kl := h.put(t, 0, "k")
	vl := h.put(t, 10, "v1")

	existed, err := h.logic.StorageWrite(kl, 0, vl, 10, 1)
	require.NoError(t, err)
	assert.Zero(t, existed)

	found, err := h.logic.StorageRead(kl, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), found)
	assert.Equal(t, "v1", string(h.register(t, 0)))

	vl = h.put(t, 10, "v2")
	existed, err = h.logic.StorageWrite(kl, 0, vl, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), existed)
	assert.Equal(t, "v1", string(h.register(t, 1)), "evicted value")

	has, err := h.logic.StorageHasKey(kl, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), has)

	removed, err := h.logic.StorageRemove(kl, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), removed)
	assert.Equal(t, "v2", string(h.register(t, 1)))

	found, err = h.logic.StorageRead(kl, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, found)

	removed, err = h.logic.StorageRemove(kl, 0, 1)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestStorage_KeyFromRegister(t *testing.T) {
	h := newHarness(t, testContext())
	kl := h.put(t, 0, "reg-key")
	require.NoError(t, h.logic.WriteRegister(3, kl, 0))
	vl := h.put(t, 50, "value")

	_, err := h.logic.StorageWrite(math.MaxUint64, 3, vl, 50, 1)
	require.NoError(t, err)

	out := h.logic.Finish(nil)
	require.False(t, out.Aborted())

	v, ok, err := h.store.Get([]byte("alice:reg-key"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "value", string(v))
}

func TestStorage_UsageAccounting(t *testing.T) {
	ctx := testContext()
	ctx.StorageUsage = 100
	h := newHarness(t, ctx)
	kl := h.put(t, 0, "key")
	vl := h.put(t, 10, "12345")

	_, err := h.logic.StorageWrite(kl, 0, vl, 10, 1)
	require.NoError(t, err)
	usage, err := h.logic.StorageUsage()
	require.NoError(t, err)
	assert.Equal(t, uint64(100+3+5+storageRecordOverhead), usage)

	_, err = h.logic.StorageRemove(kl, 0, 1)
	require.NoError(t, err)
	usage, err = h.logic.StorageUsage()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), usage)
}

func TestStorage_UsageCarriesAcrossCalls(t *testing.T) {
	store := state.NewMemory()
	mem := NewLinearMemory(64 * 1024)
	require.NoError(t, mem.Write(0, []byte("k")))
	require.NoError(t, mem.Write(10, []byte("v")))

	first := NewLogic(testContext(), mem, store)
	_, err := first.StorageWrite(1, 0, 1, 10, 1)
	require.NoError(t, err)
	out := first.Finish(nil)
	require.False(t, out.Aborted())
	assert.Equal(t, uint64(1+1+storageRecordOverhead), out.StorageUsage)

	recorded, ok, err := state.LoadUsage(store, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, out.StorageUsage, recorded)

	// The second call's context claims no usage; the recorded value wins.
	second := NewLogic(testContext(), mem, store)
	removed, err := second.StorageRemove(1, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), removed)
	usage, err := second.StorageUsage()
	require.NoError(t, err)
	assert.Zero(t, usage)
	require.False(t, second.Finish(nil).Aborted())

	recorded, _, err = state.LoadUsage(store, "alice")
	require.NoError(t, err)
	assert.Zero(t, recorded)
}

func TestStorage_UsageNeverWraps(t *testing.T) {
	store := state.NewMemory()
	require.NoError(t, state.Prefixed(store, "alice").Set([]byte("k"), []byte("v")))

	h := &harness{mem: NewLinearMemory(64 * 1024), store: store}
	h.logic = NewLogic(testContext(), h.mem, store)
	kl := h.put(t, 0, "k")

	_, err := h.logic.StorageRemove(kl, 0, 1)
	assert.ErrorIs(t, err, &HostError{Kind: IntegerOverflow})
	out := h.logic.Finish(nil)
	require.True(t, out.Aborted())
	assert.Zero(t, out.StorageUsage)

	_, ok, err := state.Prefixed(store, "alice").Get([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStorage_ViewCallRecordsNoUsage(t *testing.T) {
	ctx := testContext()
	ctx.IsView = true
	ctx.AttachedDeposit = types.Balance{}
	h := newHarness(t, ctx)
	require.False(t, h.logic.Finish(nil).Aborted())

	_, ok, err := state.LoadUsage(h.store, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFinish_CommitsOnSuccess(t *testing.T) {
	h := newHarness(t, testContext())
	kl := h.put(t, 0, "k")
	vl := h.put(t, 10, "v")
	_, err := h.logic.StorageWrite(kl, 0, vl, 10, 1)
	require.NoError(t, err)

	has, err := h.store.Has([]byte("alice:k"))
	require.NoError(t, err)
	assert.False(t, has, "writes are staged until the call ends")

	out := h.logic.Finish(nil)
	assert.False(t, out.Aborted())
	assert.Nil(t, out.ReturnData)

	has, err = h.store.Has([]byte("alice:k"))
	require.NoError(t, err)
	assert.True(t, has)
}

func TestFinish_AbortDiscardsEverything(t *testing.T) {
	h := newHarness(t, testContext())
	kl := h.put(t, 0, "k")
	vl := h.put(t, 10, "v")
	_, err := h.logic.StorageWrite(kl, 0, vl, 10, 1)
	require.NoError(t, err)
	require.NoError(t, h.logic.ValueReturn(vl, 10))
	al := h.put(t, 20, "carol")
	_, err = h.logic.PromiseBatchCreate(al, 20)
	require.NoError(t, err)
	ml := h.put(t, 30, "about to fail")
	require.NoError(t, h.logic.LogUTF8(ml, 30))

	msgLen := h.put(t, 40, "boom")
	err = h.logic.PanicUTF8(msgLen, 40)
	require.ErrorIs(t, err, ErrGuestPanic)

	out := h.logic.Finish(nil)
	require.True(t, out.Aborted())
	assert.Equal(t, "boom", out.Err.Message)
	assert.Nil(t, out.ReturnData)
	assert.Empty(t, out.Receipts)
	assert.Equal(t, []string{"about to fail"}, out.Logs)
	assert.Zero(t, h.store.Len())
}

func TestFinish_ExternalError(t *testing.T) {
	h := newHarness(t, testContext())
	out := h.logic.Finish(&HostError{Kind: WasmTrap, Message: "unreachable"})
	require.True(t, out.Aborted())
	assert.Equal(t, WasmTrap, out.Err.Kind)
}

func TestTrapIsSticky(t *testing.T) {
	h := newHarness(t, testContext())
	require.Error(t, h.logic.Panic())

	err := h.logic.Input(0)
	assert.ErrorIs(t, err, ErrGuestPanic)
}

func TestValueReturn_LastWriteWins(t *testing.T) {
	h := newHarness(t, testContext())
	n1 := h.put(t, 0, "first")
	require.NoError(t, h.logic.ValueReturn(n1, 0))
	n2 := h.put(t, 10, "second")
	require.NoError(t, h.logic.ValueReturn(n2, 10))

	out := h.logic.Finish(nil)
	assert.Equal(t, "second", string(out.ReturnData))
}

func TestLogs(t *testing.T) {
	t.Run("invalid utf8", func(t *testing.T) {
		h := newHarness(t, testContext())
		n := h.put(t, 0, "\xff\xfe")
		assert.ErrorIs(t, h.logic.LogUTF8(n, 0), &HostError{Kind: BadUTF8})
	})

	t.Run("count limit", func(t *testing.T) {
		h := newHarness(t, testContext(), WithLimits(Limits{
			MaxLogs: 2, MaxTotalLogLength: 1024, MaxRegisters: 10, MaxRegisterSize: 1024,
			MaxKeyLength: 64, MaxValueLength: 64,
		}))
		n := h.put(t, 0, "line")
		require.NoError(t, h.logic.LogUTF8(n, 0))
		require.NoError(t, h.logic.LogUTF8(n, 0))
		assert.ErrorIs(t, h.logic.LogUTF8(n, 0), &HostError{Kind: NumberOfLogsExceeded})
	})

	t.Run("length limit", func(t *testing.T) {
		h := newHarness(t, testContext())
		n := h.put(t, 0, strings.Repeat("x", 16*1024+1))
		assert.ErrorIs(t, h.logic.LogUTF8(n, 0), &HostError{Kind: TotalLogLengthExceeded})
	})
}

func TestViewCallProhibitsMutation(t *testing.T) {
	ctx := testContext()
	ctx.IsView = true
	h := newHarness(t, ctx)
	kl := h.put(t, 0, "k")

	_, err := h.logic.StorageWrite(kl, 0, kl, 0, 1)
	assert.ErrorIs(t, err, ErrProhibitedInView)
}

func TestViewCallAllowsReads(t *testing.T) {
	ctx := testContext()
	ctx.IsView = true
	h := newHarness(t, ctx)
	kl := h.put(t, 0, "k")

	found, err := h.logic.StorageRead(kl, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, found)
	assert.NoError(t, h.logic.CurrentAccountID(0))
}

func TestGasExceeded(t *testing.T) {
	ctx := testContext()
	ctx.PrepaidGas = DefaultGasConfig.Base * 2
	h := newHarness(t, ctx)

	_, err := h.logic.BlockIndex()
	require.NoError(t, err)
	_, err = h.logic.BlockIndex()
	require.NoError(t, err)
	_, err = h.logic.BlockIndex()
	require.ErrorIs(t, err, ErrGasExceeded)

	out := h.logic.Finish(nil)
	assert.Equal(t, ctx.PrepaidGas, out.GasUsed)
}

func TestFreeGas(t *testing.T) {
	h := newHarness(t, testContext(), WithGasConfig(FreeGasConfig))
	_, err := h.logic.BlockIndex()
	require.NoError(t, err)
	used, err := h.logic.UsedGas()
	require.NoError(t, err)
	assert.Zero(t, used)
}

func TestSha256(t *testing.T) {
	h := newHarness(t, testContext())
	n := h.put(t, 0, "abc")
	require.NoError(t, h.logic.Sha256(n, 0, 0))
	want := sha256.Sum256([]byte("abc"))
	assert.Equal(t, want[:], h.register(t, 0))

	require.NoError(t, h.logic.Keccak512(n, 0, 1))
	assert.Len(t, h.register(t, 1), 64)
}

func TestPromises(t *testing.T) {
	h := newHarness(t, testContext())
	al := h.put(t, 0, "carol")
	ml := h.put(t, 10, "callback")
	le := types.NewBalance(5).LE()
	require.NoError(t, h.mem.Write(100, le[:]))

	first, err := h.logic.PromiseCreate(al, 0, ml, 10, 0, 0, 100, 1_000)
	require.NoError(t, err)
	second, err := h.logic.PromiseBatchCreate(al, 0)
	require.NoError(t, err)
	require.NoError(t, h.logic.PromiseBatchActionTransfer(second, 100))

	indices := make([]byte, 16)
	binary.LittleEndian.PutUint64(indices, first)
	binary.LittleEndian.PutUint64(indices[8:], second)
	require.NoError(t, h.mem.Write(200, indices))
	joint, err := h.logic.PromiseAnd(200, 2)
	require.NoError(t, err)

	then, err := h.logic.PromiseThen(joint, al, 0, ml, 10, 0, 0, 100, 2_000)
	require.NoError(t, err)
	require.NoError(t, h.logic.PromiseReturn(then))

	out := h.logic.Finish(nil)
	require.False(t, out.Aborted())
	require.Len(t, out.Receipts, 3)
	assert.Equal(t, types.AccountID("carol"), out.Receipts[0].Receiver)
	assert.Equal(t, FunctionCall{Method: "callback", Args: []byte{}, Deposit: types.NewBalance(5), Gas: 1_000}, out.Receipts[0].Actions[0])
	assert.Equal(t, Transfer{Deposit: types.NewBalance(5)}, out.Receipts[1].Actions[0])
	assert.Equal(t, []int{0, 1}, out.Receipts[2].DependsOn)
	require.NotNil(t, out.ReturnPromise)
	assert.Equal(t, types.PromiseIndex(then), *out.ReturnPromise)
}

func TestPromises_JointRestrictions(t *testing.T) {
	h := newHarness(t, testContext())
	al := h.put(t, 0, "carol")
	p, err := h.logic.PromiseBatchCreate(al, 0)
	require.NoError(t, err)
	idx := make([]byte, 8)
	binary.LittleEndian.PutUint64(idx, p)
	require.NoError(t, h.mem.Write(100, idx))
	joint, err := h.logic.PromiseAnd(100, 1)
	require.NoError(t, err)

	err = h.logic.PromiseBatchActionCreateAccount(joint)
	assert.ErrorIs(t, err, &HostError{Kind: CannotAppendActionToJointPromise})
}

func TestPromises_InvalidIndexAndAccount(t *testing.T) {
	h := newHarness(t, testContext())
	assert.ErrorIs(t, h.logic.PromiseBatchActionCreateAccount(4), &HostError{Kind: InvalidPromiseIndex})

	h = newHarness(t, testContext())
	al := h.put(t, 0, "Not Valid!")
	_, err := h.logic.PromiseBatchCreate(al, 0)
	assert.ErrorIs(t, err, &HostError{Kind: InvalidAccountID})
}

func TestPromiseResults(t *testing.T) {
	ctx := testContext()
	ctx.PromiseResults = []types.PromiseResult{
		{Status: types.PromiseSuccessful, Data: []byte("ok")},
		{Status: types.PromiseFailed},
	}
	h := newHarness(t, ctx)

	count, err := h.logic.PromiseResultsCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	status, err := h.logic.PromiseResult(0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), status)
	assert.Equal(t, "ok", string(h.register(t, 0)))

	status, err = h.logic.PromiseResult(1, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), status)

	_, err = h.logic.PromiseResult(2, 0)
	assert.ErrorIs(t, err, &HostError{Kind: InvalidPromiseResultIndex})
}

func TestValidators(t *testing.T) {
	ctx := testContext()
	ctx.Validators = map[types.AccountID]types.Balance{
		"v1": types.NewBalance(10),
		"v2": types.NewBalance(32),
	}
	h := newHarness(t, ctx)

	n := h.put(t, 0, "v2")
	require.NoError(t, h.logic.ValidatorStake(n, 0, 100))
	assert.Equal(t, types.NewBalance(32), types.BalanceFromLE([16]byte(h.get(t, 100, 16))))

	require.NoError(t, h.logic.ValidatorTotalStake(100))
	assert.Equal(t, types.NewBalance(42), types.BalanceFromLE([16]byte(h.get(t, 100, 16))))
}

func TestContext_Validate(t *testing.T) {
	ctx := testContext()
	require.NoError(t, ctx.Validate())

	ctx.CurrentAccountID = "A"
	assert.Error(t, ctx.Validate())

	ctx = testContext()
	ctx.PrepaidGas = 0
	assert.Error(t, ctx.Validate())

	ctx = testContext()
	ctx.RandomSeed = []byte{1}
	assert.Error(t, ctx.Validate())
}

func TestValidAccountID(t *testing.T) {
	for _, id := range []types.AccountID{"alice", "a-b_c.near", "10", "app.alice.near"} {
		assert.True(t, ValidAccountID(id), id)
	}
	for _, id := range []types.AccountID{"a", "Alice", "a..b", "-a", "a-", types.AccountID(strings.Repeat("a", 65))} {
		assert.False(t, ValidAccountID(id), id)
	}
}
