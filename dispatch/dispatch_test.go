package dispatch

import (
	"bytes"
	"encoding/binary"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/austinabell/nesdie/abort"
	"github.com/austinabell/nesdie/alloc"
	"github.com/austinabell/nesdie/mock"
	"github.com/austinabell/nesdie/types"
	"github.com/austinabell/nesdie/vm"
)

type pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type transfer struct {
	To     string `json:"to" validate:"required"`
	Amount uint64 `json:"amount" validate:"gt=0"`
}

func echo(p pair) (pair, error) { return p, nil }

func run(t *testing.T, ctx *vm.Context, fn func()) *vm.Outcome {
	t.Helper()
	out, err := mock.New().Call(ctx, fn)
	require.NoError(t, err)
	return out
}

func TestNewTable_Errors(t *testing.T) {
	_, err := NewTable(
		Func("echo", JSON[pair](), JSON[pair](), echo),
		Func("echo", JSON[pair](), JSON[pair](), echo),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate method name: "echo"`)

	_, err = NewTable(Method("", func(*Call) (Result, error) { return Result{}, nil }))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")

	assert.Panics(t, func() { MustNewTable(Method("nil", nil)) })
}

func TestTable_Names(t *testing.T) {
	table := MustNewTable(
		View("version", String(), func() (string, error) { return "1", nil }),
		Func("echo", JSON[pair](), JSON[pair](), echo),
		Action("noop", Unit(), func(struct{}) error { return nil }),
	)
	assert.Equal(t, []string{"echo", "noop", "version"}, table.Names())
	assert.True(t, table.Has("echo"))
	assert.False(t, table.Has("missing"))

	names := table.Names()
	names[0] = "changed"
	assert.Equal(t, "echo", table.Names()[0])
}

func TestExecute_JSONRoundTrip(t *testing.T) {
	table := MustNewTable(Func("echo", JSON[pair](), JSON[pair](), echo))
	ctx := mock.NewContext().Input([]byte(`{"key":"k","value":"v"}`)).Build()

	var got Outcome
	out := run(t, ctx, func() {
		got = table.Execute("echo")
		table.Run("echo")
	})

	assert.Equal(t, Returning, got.State)
	assert.True(t, got.HasValue)
	assert.JSONEq(t, `{"key":"k","value":"v"}`, string(got.Value))
	require.False(t, out.Aborted())
	assert.JSONEq(t, `{"key":"k","value":"v"}`, string(out.ReturnData))
}

func TestExecute_InputErrors(t *testing.T) {
	called := false
	table := MustNewTable(
		Func("echo", JSON[pair](), JSON[pair](), echo),
		Func("double", U64(), U64(), func(v uint64) (uint64, error) { return v * 2, nil }),
		Func("greet", String(), String(), func(name string) (string, error) {
			called = true
			return "hi " + name, nil
		}),
		Action("blob", Raw(), func([]byte) error {
			called = true
			return nil
		}),
		Action("send", JSON[transfer](), func(transfer) error {
			called = true
			return nil
		}),
	)

	tests := []struct {
		name   string
		method string
		input  []byte
		err    error
	}{
		{name: "empty json", method: "echo", input: nil, err: ErrEmptyInput},
		{name: "truncated json", method: "echo", input: []byte(`{"key":`)},
		{name: "null json", method: "echo", input: []byte(` null `), err: ErrNullInput},
		{name: "empty u64", method: "double", input: nil, err: ErrEmptyInput},
		{name: "short u64", method: "double", input: []byte{1, 2, 3}},
		{name: "empty string", method: "greet", input: nil, err: ErrEmptyInput},
		{name: "invalid utf8", method: "greet", input: []byte{0xff, 0xfe}},
		{name: "empty raw", method: "blob", input: []byte{}, err: ErrEmptyInput},
		{name: "missing required field", method: "send", input: []byte(`{"amount":5}`)},
		{name: "zero amount", method: "send", input: []byte(`{"to":"bob","amount":0}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			var got Outcome
			run(t, mock.NewContext().Input(tt.input).Build(), func() {
				got = table.Execute(tt.method)
			})
			assert.Equal(t, Aborting, got.State)
			assert.False(t, got.HasValue)
			assert.False(t, called)
			var inputErr *InputError
			require.ErrorAs(t, got.Err, &inputErr)
			assert.Equal(t, tt.method, inputErr.Method)
			if tt.err != nil {
				assert.ErrorIs(t, got.Err, tt.err)
			}
		})
	}
}

func TestExecute_OutOfMemoryIsNotInputError(t *testing.T) {
	if !alloc.OOMHandlerEnabled {
		t.Skip("allocation failures trap without a handler")
	}
	table := MustNewTable(Func("echo", JSON[pair](), JSON[pair](), echo))
	input := []byte(`{"key":"k","value":"` + strings.Repeat("v", 256) + `"}`)

	var got Outcome
	_, err := mock.New(mock.WithArenaSize(64)).Call(mock.NewContext().Input(input).Build(), func() {
		got = table.Execute("echo")
	})
	require.NoError(t, err)

	assert.Equal(t, Aborting, got.State)
	assert.ErrorIs(t, got.Err, alloc.ErrOutOfMemory)
	var inputErr *InputError
	assert.False(t, errors.As(got.Err, &inputErr))
}

func TestExecute_NullablePointerArgs(t *testing.T) {
	table := MustNewTable(Func("maybe", JSON[*pair](), JSON[bool](), func(p *pair) (bool, error) {
		return p == nil, nil
	}))

	out := run(t, mock.NewContext().Input([]byte("null")).Build(), func() { table.Run("maybe") })
	require.False(t, out.Aborted())
	assert.Equal(t, "true", string(out.ReturnData))
}

func TestExecute_ValidArgsPassValidation(t *testing.T) {
	var got transfer
	table := MustNewTable(Action("send", JSON[transfer](), func(tr transfer) error {
		got = tr
		return nil
	}))

	out := run(t, mock.NewContext().Input([]byte(`{"to":"bob","amount":3}`)).Build(), func() { table.Run("send") })
	require.False(t, out.Aborted())
	assert.Equal(t, transfer{To: "bob", Amount: 3}, got)
}

func TestExecute_U64(t *testing.T) {
	table := MustNewTable(Func("double", U64(), U64(), func(v uint64) (uint64, error) { return v * 2, nil }))
	in := binary.LittleEndian.AppendUint64(nil, 21)

	out := run(t, mock.NewContext().Input(in).Build(), func() { table.Run("double") })
	require.False(t, out.Aborted())
	assert.Equal(t, uint64(42), binary.LittleEndian.Uint64(out.ReturnData))
}

func TestExecute_UnitSkipsInput(t *testing.T) {
	var seen *Call
	table := MustNewTable(
		Action("noop", Unit(), func(struct{}) error { return nil }),
		Method("raw", func(c *Call) (Result, error) {
			seen = c
			return Result{}, nil
		}),
	)

	var got Outcome
	out := run(t, mock.NewContext().Input([]byte("ignored")).Build(), func() {
		got = table.Execute("noop")
		table.Run("raw")
	})
	require.False(t, out.Aborted())
	assert.Equal(t, Returning, got.State)
	assert.False(t, got.HasValue)
	assert.Nil(t, out.ReturnData)

	require.NotNil(t, seen)
	assert.Equal(t, "ignored", string(seen.Input))
}

func TestRun_HandlerError(t *testing.T) {
	errRejected := errors.New("value rejected")
	table := MustNewTable(Action("set", String(), func(string) error { return errRejected }))

	var got Outcome
	out := run(t, mock.NewContext().Input([]byte("x")).Build(), func() {
		got = table.Execute("set")
		table.Run("set")
	})

	var handlerErr *HandlerError
	require.ErrorAs(t, got.Err, &handlerErr)
	assert.ErrorIs(t, got.Err, errRejected)

	require.True(t, out.Aborted())
	assert.Equal(t, vm.GuestPanic, out.Err.Kind)
	if abort.MessagesEnabled {
		assert.Equal(t, "value rejected", out.Err.Message)
	}
}

func TestRun_PanicBecomesAbort(t *testing.T) {
	table := MustNewTable(View("boom", String(), func() (string, error) {
		var m map[string]int
		m["x"] = 1
		return "", nil
	}))

	var got Outcome
	out := run(t, mock.NewContext().Build(), func() {
		got = table.Execute("boom")
		table.Run("boom")
	})

	var panicErr *PanicError
	require.ErrorAs(t, got.Err, &panicErr)
	require.True(t, out.Aborted())
	if abort.MessagesEnabled {
		assert.True(t, strings.HasPrefix(out.Err.Message, "panicked at dispatch_test.go:"), out.Err.Message)
		assert.Contains(t, out.Err.Message, "nil map")
	}
}

func TestRun_UnknownMethodTraps(t *testing.T) {
	table := MustNewTable()

	var got Outcome
	out := run(t, mock.NewContext().Build(), func() {
		got = table.Execute("missing")
		table.Run("missing")
	})
	assert.ErrorIs(t, got.Err, ErrUnknownMethod)
	require.True(t, out.Aborted())
	assert.Equal(t, "explicit guest panic", out.Err.Message)
}

func TestGuards(t *testing.T) {
	noop := func(struct{}) error { return nil }
	table := MustNewTable(
		Action("plain", Unit(), noop),
		Action("paid", Unit(), noop, Payable()),
		Action("callback", Unit(), noop, Private()),
	)
	deposit := types.NewBalance(5)

	tests := []struct {
		name    string
		method  string
		ctx     *vm.Context
		wantErr error
	}{
		{name: "deposit rejected", method: "plain", ctx: mock.NewContext().AttachedDeposit(deposit).Build(), wantErr: ErrNotPayable},
		{name: "payable accepts deposit", method: "paid", ctx: mock.NewContext().AttachedDeposit(deposit).Build()},
		{name: "private from other account", method: "callback", ctx: mock.NewContext().Build(), wantErr: ErrPrivate},
		{name: "private from self", method: "callback", ctx: mock.NewContext().PredecessorAccountID("alice").Build()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Outcome
			run(t, tt.ctx, func() { got = table.Execute(tt.method) })
			if tt.wantErr == nil {
				assert.Equal(t, Returning, got.State)
				assert.NoError(t, got.Err)
				return
			}
			assert.Equal(t, Aborting, got.State)
			assert.ErrorIs(t, got.Err, tt.wantErr)
		})
	}
}

func TestView_AllowedInViewCall(t *testing.T) {
	table := MustNewTable(
		View("version", String(), func() (string, error) { return "1.0", nil }),
		Func("lookup", String(), String(), func(k string) (string, error) { return k, nil }, ReadOnly()),
	)

	out := run(t, mock.NewContext().IsView(true).Build(), func() { table.Run("version") })
	require.False(t, out.Aborted(), "%v", out.Err)
	assert.Equal(t, "1.0", string(out.ReturnData))

	out = run(t, mock.NewContext().IsView(true).Input([]byte("k")).Build(), func() { table.Run("lookup") })
	require.False(t, out.Aborted(), "%v", out.Err)
	assert.Equal(t, "k", string(out.ReturnData))
}

func TestMiddleware_Order(t *testing.T) {
	var trace []string
	tag := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(c *Call) (Result, error) {
				trace = append(trace, name)
				return next(c)
			}
		}
	}
	table := MustNewTable(
		WithMiddleware(tag("outer"), tag("inner")),
		View("v", Unit(), func() (struct{}, error) {
			trace = append(trace, "handler")
			return struct{}{}, nil
		}),
	)

	run(t, mock.NewContext().Build(), func() { table.Execute("v") })
	assert.Equal(t, []string{"outer", "inner", "handler"}, trace)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	table := MustNewTable(
		WithMiddleware(Logging(logger)),
		Action("fail", Unit(), func(struct{}) error { return errors.New("nope") }),
	)

	run(t, mock.NewContext().Build(), func() { table.Execute("fail") })
	assert.Contains(t, buf.String(), "calling method")
	assert.Contains(t, buf.String(), "method=fail")
	assert.Contains(t, buf.String(), "error=nope")
}

func TestManifest(t *testing.T) {
	table := MustNewTable(
		Action("set", JSON[pair](), func(pair) error { return nil }, Payable(), Description("stores a pair")),
		View("version", String(), func() (string, error) { return "1", nil }),
		Method("raw", func(*Call) (Result, error) { return Result{}, nil }, ArgsSchema(pair{})),
	)

	m := table.Manifest()
	require.Len(t, m.Methods, 3)

	raw, set, version := m.Methods[0], m.Methods[1], m.Methods[2]
	assert.Equal(t, "raw", raw.Name)
	assert.Equal(t, KindRaw, raw.Kind)
	require.NotNil(t, raw.Args)

	assert.Equal(t, "set", set.Name)
	assert.Equal(t, KindAction, set.Kind)
	assert.True(t, set.Payable)
	assert.Equal(t, "stores a pair", set.Description)
	require.NotNil(t, set.Args)
	_, ok := set.Args.Properties.Get("key")
	assert.True(t, ok)

	assert.Equal(t, KindView, version.Kind)
	assert.True(t, version.ReadOnly)
	assert.Nil(t, version.Args)
}

func TestManifest_NonObjectArgs(t *testing.T) {
	table := MustNewTable(
		Func("greet", String(), String(), func(s string) (string, error) { return "hi " + s, nil }),
		Func("twice", JSON[uint64](), JSON[uint64](), func(v uint64) (uint64, error) { return 2 * v, nil }),
		Action("tags", JSON[[]string](), func([]string) error { return nil }),
		Func("lookup", JSON[*pair](), JSON[bool](), func(*pair) (bool, error) { return true, nil }),
	)

	var m Manifest
	require.NotPanics(t, func() { m = table.Manifest() })
	require.Len(t, m.Methods, 4)

	byName := make(map[string]MethodInfo, len(m.Methods))
	for _, info := range m.Methods {
		byName[info.Name] = info
	}
	require.NotNil(t, byName["greet"].Args)
	assert.Equal(t, "string", byName["greet"].Args.Type)
	require.NotNil(t, byName["twice"].Args)
	assert.Equal(t, "integer", byName["twice"].Args.Type)
	require.NotNil(t, byName["tags"].Args)
	assert.Equal(t, "array", byName["tags"].Args.Type)
	require.NotNil(t, byName["lookup"].Args)
	_, ok := byName["lookup"].Args.Properties.Get("key")
	assert.True(t, ok)
}

func TestManifest_InContract(t *testing.T) {
	var table *Table
	table = MustNewTable(
		Func("greet", String(), String(), func(s string) (string, error) { return s, nil }),
		View("manifest", JSON[Manifest](), func() (Manifest, error) { return table.Manifest(), nil }),
	)

	out := run(t, mock.NewContext().IsView(true).Build(), func() { table.Run("manifest") })
	require.False(t, out.Aborted())
	assert.Contains(t, string(out.ReturnData), `"name":"greet"`)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "reading_input", ReadingInput.String())
	assert.Equal(t, "aborting", Aborting.String())
	assert.Equal(t, "State(9)", State(9).String())
}
