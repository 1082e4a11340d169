package dispatch

import (
	"fmt"

	"github.com/austinabell/nesdie/env"
)

// Call is what a handler receives. Input holds the raw call arguments, or
// nil when the method declares none.
type Call struct {
	Method string
	Input  []byte
}

// Result is a handler's return value. The zero Result returns nothing.
type Result struct {
	Value    []byte
	HasValue bool
}

// Value returns a Result carrying b.
func Value(b []byte) Result {
	return Result{Value: b, HasValue: true}
}

// Handler serves one method.
type Handler func(*Call) (Result, error)

// Kind classifies a method by its constructor.
type Kind string

const (
	KindFunc   Kind = "func"
	KindAction Kind = "action"
	KindView   Kind = "view"
	KindRaw    Kind = "raw"
)

// MethodOption configures a single method.
type MethodOption func(*method)

// Payable lets the method accept an attached deposit.
func Payable() MethodOption {
	return func(m *method) {
		m.payable = true
	}
}

// Private restricts the method to calls the contract makes to itself.
func Private() MethodOption {
	return func(m *method) {
		m.private = true
	}
}

// ReadOnly marks a method meant for view calls. Deposit checks are skipped,
// since a view call has no deposit to inspect.
func ReadOnly() MethodOption {
	return func(m *method) {
		m.readOnly = true
	}
}

// Description documents the method in the manifest.
func Description(s string) MethodOption {
	return func(m *method) {
		m.description = s
	}
}

// ArgsSchema publishes the JSON schema of v as the method's arguments,
// replacing the one derived from its codec.
func ArgsSchema(v any) MethodOption {
	return func(m *method) {
		m.args = v
	}
}

type method struct {
	name        string
	kind        Kind
	readsInput  bool
	handler     Handler
	payable     bool
	private     bool
	readOnly    bool
	description string
	args        any
}

func (m *method) option(opts []MethodOption) Option {
	for _, opt := range opts {
		opt(m)
	}
	return func(b *tableBuilder) {
		if err := b.addMethod(m); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// guard enforces the deposit and caller restrictions before the handler runs.
func (m *method) guard() error {
	if !m.payable && !m.readOnly && !env.AttachedDeposit().IsZero() {
		return ErrNotPayable
	}
	if m.private && env.PredecessorAccountID() != env.CurrentAccountID() {
		return ErrPrivate
	}
	return nil
}

// Func registers a method that decodes its arguments with args, calls fn and
// returns the result encoded with result.
func Func[A, R any](name string, args Codec[A], result Codec[R], fn func(A) (R, error), opts ...MethodOption) Option {
	m := &method{
		name:       name,
		kind:       KindFunc,
		readsInput: readsInput(args),
		args:       schemaOf(args),
	}
	m.handler = func(c *Call) (Result, error) {
		a, err := decodeArgs(c, args)
		if err != nil {
			return Result{}, err
		}
		r, err := fn(a)
		if err != nil {
			return Result{}, err
		}
		return encodeResult(result, r)
	}
	return m.option(opts)
}

// Action registers a method with arguments and no return value.
func Action[A any](name string, args Codec[A], fn func(A) error, opts ...MethodOption) Option {
	m := &method{
		name:       name,
		kind:       KindAction,
		readsInput: readsInput(args),
		args:       schemaOf(args),
	}
	m.handler = func(c *Call) (Result, error) {
		a, err := decodeArgs(c, args)
		if err != nil {
			return Result{}, err
		}
		return Result{}, fn(a)
	}
	return m.option(opts)
}

// View registers a method without arguments. It is ReadOnly.
func View[R any](name string, result Codec[R], fn func() (R, error), opts ...MethodOption) Option {
	m := &method{
		name:     name,
		kind:     KindView,
		readOnly: true,
	}
	m.handler = func(*Call) (Result, error) {
		r, err := fn()
		if err != nil {
			return Result{}, err
		}
		return encodeResult(result, r)
	}
	return m.option(opts)
}

// Method registers a raw handler. The input is always read.
func Method(name string, h Handler, opts ...MethodOption) Option {
	m := &method{
		name:       name,
		kind:       KindRaw,
		readsInput: true,
		handler:    h,
	}
	return m.option(opts)
}

// decodeArgs decodes a method's arguments. A method that declares arguments
// never runs on an empty buffer.
func decodeArgs[A any](c *Call, args Codec[A]) (A, error) {
	var a A
	if readsInput(args) && len(c.Input) == 0 {
		return a, &InputError{Method: c.Method, Err: ErrEmptyInput}
	}
	a, err := args.Decode(c.Input)
	if err != nil {
		return a, &InputError{Method: c.Method, Err: err}
	}
	return a, nil
}

func encodeResult[R any](c Codec[R], r R) (Result, error) {
	b, err := c.Encode(r)
	if err != nil {
		return Result{}, fmt.Errorf("encode result: %w", err)
	}
	if b == nil {
		return Result{}, nil
	}
	return Value(b), nil
}
