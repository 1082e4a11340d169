package env

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/austinabell/nesdie/abort"
	"github.com/austinabell/nesdie/mock"
	"github.com/austinabell/nesdie/sys"
	"github.com/austinabell/nesdie/types"
	"github.com/austinabell/nesdie/vm"
)

func mustCall(t *testing.T, bc *mock.Blockchain, ctx *vm.Context, fn func()) *vm.Outcome {
	t.Helper()
	out, err := bc.Call(ctx, fn)
	require.NoError(t, err)
	require.False(t, out.Aborted(), "call aborted: %v", out.Err)
	return out
}

func TestStorage_WriteReadRemove(t *testing.T) {
	bc := mock.New()
	mustCall(t, bc, mock.NewContext().Build(), func() {
		assert.False(t, StorageWrite([]byte("k"), []byte("v")))

		v, ok, err := StorageRead([]byte("k"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v", string(v))
		assert.True(t, StorageHasKey([]byte("k")))

		assert.True(t, StorageWrite([]byte("k"), []byte("v2")))
		evicted, ok, err := StorageGetEvicted()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v", string(evicted))

		assert.True(t, StorageRemove([]byte("k")))
		_, ok, err = StorageRead([]byte("k"))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.False(t, StorageHasKey([]byte("k")))
		assert.False(t, StorageRemove([]byte("k")))
	})
}

func TestStorage_EvictedNotSet(t *testing.T) {
	mustCall(t, mock.New(), mock.NewContext().Build(), func() {
		_, ok, err := StorageGetEvicted()
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStorage_PersistsAcrossCalls(t *testing.T) {
	bc := mock.New()
	mustCall(t, bc, mock.NewContext().Build(), func() {
		StorageWrite([]byte("counter"), []byte{1})
	})
	mustCall(t, bc, mock.NewContext().Build(), func() {
		v, ok, err := StorageRead([]byte("counter"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte{1}, v)
	})

	v, ok, err := bc.StorageGet("alice", []byte("counter"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{1}, v)
}

func TestStorage_AbortDiscardsWrites(t *testing.T) {
	bc := mock.New()
	out, err := bc.Call(mock.NewContext().Build(), func() {
		StorageWrite([]byte("k"), []byte("v"))
		sys.Panic()
	})
	require.NoError(t, err)
	require.True(t, out.Aborted())

	_, ok, err := bc.StorageGet("alice", []byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestState(t *testing.T) {
	type counter struct {
		Count int    `json:"count"`
		Owner string `json:"owner"`
	}

	bc := mock.New()
	mustCall(t, bc, mock.NewContext().Build(), func() {
		assert.False(t, StateExists())
		var c counter
		ok, err := StateRead(&c)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, StateWrite(counter{Count: 3, Owner: "bob"}))
	})
	mustCall(t, bc, mock.NewContext().Build(), func() {
		assert.True(t, StateExists())
		var c counter
		ok, err := StateRead(&c)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, counter{Count: 3, Owner: "bob"}, c)
	})
}

func TestContextAccessors(t *testing.T) {
	ctx := mock.NewContext().
		CurrentAccountID("contract.near").
		SignerAccountID("signer.near").
		PredecessorAccountID("caller.near").
		SignerAccountPK(types.PublicKey{0, 9, 9}).
		Input([]byte("payload")).
		BlockIndex(11).
		BlockTimestamp(22).
		EpochHeight(33).
		AttachedDeposit(types.NewBalance(44)).
		AccountLockedBalance(types.NewBalance(55)).
		RandomSeed(make([]byte, 32)).
		Build()

	mustCall(t, mock.New(), ctx, func() {
		assert.Equal(t, types.AccountID("contract.near"), CurrentAccountID())
		assert.Equal(t, types.AccountID("signer.near"), SignerAccountID())
		assert.Equal(t, types.AccountID("caller.near"), PredecessorAccountID())
		assert.Equal(t, types.PublicKey{0, 9, 9}, SignerAccountPK())

		in, err := Input()
		require.NoError(t, err)
		assert.Equal(t, "payload", string(in))

		assert.Equal(t, uint64(11), BlockIndex())
		assert.Equal(t, uint64(22), BlockTimestamp())
		assert.Equal(t, uint64(33), EpochHeight())
		assert.Equal(t, types.NewBalance(44), AttachedDeposit())
		assert.Equal(t, types.NewBalance(55), AccountLockedBalance())
		assert.Equal(t, mock.DefaultAccountBalance, AccountBalance())
		assert.Equal(t, mock.DefaultStorageUsage, StorageUsage())
		assert.Equal(t, mock.DefaultPrepaidGas, PrepaidGas())
		assert.Positive(t, UsedGas())
		assert.Len(t, RandomSeed(), 32)
	})
}

func TestInput_Empty(t *testing.T) {
	mustCall(t, mock.New(), mock.NewContext().Build(), func() {
		in, err := Input()
		require.NoError(t, err)
		assert.Empty(t, in)
	})
}

func TestHashes(t *testing.T) {
	mustCall(t, mock.New(), mock.NewContext().Build(), func() {
		data := []byte("nesdie")

		assert.Equal(t, sha256.Sum256(data), Sha256(data))

		k256 := sha3.NewLegacyKeccak256()
		k256.Write(data)
		got256 := Keccak256(data)
		assert.Equal(t, k256.Sum(nil), got256[:])

		k512 := sha3.NewLegacyKeccak512()
		k512.Write(data)
		got512 := Keccak512(data)
		assert.Equal(t, k512.Sum(nil), got512[:])
	})
}

func TestValueReturnAndLogs(t *testing.T) {
	out := mustCall(t, mock.New(), mock.NewContext().Build(), func() {
		LogStr("hello")
		Log([]byte("world"))
		ValueReturn([]byte("first"))
		ValueReturn([]byte("second"))
	})
	assert.Equal(t, "second", string(out.ReturnData))
	assert.Equal(t, []string{"hello", "world"}, out.Logs)
}

func TestValidators(t *testing.T) {
	ctx := mock.NewContext().
		Validator("v1", types.NewBalance(100)).
		Validator("v2", types.NewBalance(50)).
		Build()
	mustCall(t, mock.New(), ctx, func() {
		assert.Equal(t, types.NewBalance(100), ValidatorStake("v1"))
		assert.True(t, ValidatorStake("nobody").IsZero())
		assert.Equal(t, types.NewBalance(150), ValidatorTotalStake())
	})
}

func TestPromises(t *testing.T) {
	out := mustCall(t, mock.New(), mock.NewContext().Build(), func() {
		a := PromiseCreate("carol", "ping", []byte(`{}`), types.NewBalance(1), 5_000)
		b := PromiseBatchCreate("dave")
		PromiseBatchActionCreateAccount(b)
		PromiseBatchActionTransfer(b, types.NewBalance(2))
		PromiseBatchActionAddKeyWithFunctionCall(b, types.PublicKey{0, 1}, 0, types.NewBalance(3), "dave", []string{"a", "b"})
		PromiseBatchActionDeleteKey(b, types.PublicKey{0, 1})

		joint := PromiseAnd(a, b)
		cb := PromiseThen(joint, "alice", "on_done", nil, types.Balance{}, 1_000)
		PromiseReturn(cb)
	})

	require.Len(t, out.Receipts, 3)
	assert.Equal(t, types.AccountID("carol"), out.Receipts[0].Receiver)
	assert.Equal(t, vm.FunctionCall{Method: "ping", Args: []byte(`{}`), Deposit: types.NewBalance(1), Gas: 5_000}, out.Receipts[0].Actions[0])

	batch := out.Receipts[1]
	require.Len(t, batch.Actions, 4)
	assert.Equal(t, vm.CreateAccount{}, batch.Actions[0])
	assert.Equal(t, vm.Transfer{Deposit: types.NewBalance(2)}, batch.Actions[1])
	addKey, ok := batch.Actions[2].(vm.AddKey)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, addKey.Permission.Methods)

	assert.Equal(t, []int{0, 1}, out.Receipts[2].DependsOn)
	require.NotNil(t, out.ReturnPromise)
}

func TestPromiseResults(t *testing.T) {
	ctx := mock.NewContext().PromiseResults(
		types.PromiseResult{Status: types.PromiseSuccessful, Data: []byte("42")},
		types.PromiseResult{Status: types.PromiseFailed},
		types.PromiseResult{Status: types.PromiseNotReady},
	).Build()

	mustCall(t, mock.New(), ctx, func() {
		assert.Equal(t, uint64(3), PromiseResultsCount())

		r, err := PromiseResult(0)
		require.NoError(t, err)
		assert.Equal(t, types.PromiseSuccessful, r.Status)
		assert.Equal(t, "42", string(r.Data))

		r, err = PromiseResult(1)
		require.NoError(t, err)
		assert.Equal(t, types.PromiseFailed, r.Status)

		r, err = PromiseResult(2)
		require.NoError(t, err)
		assert.Equal(t, types.PromiseNotReady, r.Status)
	})
}

func TestStorageByteCost(t *testing.T) {
	assert.Equal(t, "10000000000000000000000", StorageByteCost().String())
}

// lyingHost answers storage_has_key outside the 0/1 range.
type lyingHost struct {
	*vm.Logic
}

func (lyingHost) StorageHasKey(_, _ uint64) (uint64, error) { return 7, nil }

func TestHostContractViolationAborts(t *testing.T) {
	out, err := mock.New().Call(mock.NewContext().Build(), func() {
		sys.SetBackend(lyingHost{sys.CurrentBackend().(*vm.Logic)})
		StorageHasKey([]byte("k"))
	})
	require.NoError(t, err)
	require.True(t, out.Aborted())
	assert.Equal(t, vm.GuestPanic, out.Err.Kind)
	if abort.MessagesEnabled {
		assert.Contains(t, out.Err.Message, "unexpected host return value 7")
	}
}
