package dispatch

import (
	"errors"
	"fmt"

	"github.com/austinabell/nesdie/abort"
	"github.com/austinabell/nesdie/alloc"
	"github.com/austinabell/nesdie/env"
	"github.com/austinabell/nesdie/sys"
)

// State is a step of one dispatched call.
type State int

const (
	Idle State = iota
	ReadingInput
	Executing
	Returning
	Aborting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ReadingInput:
		return "reading_input"
	case Executing:
		return "executing"
	case Returning:
		return "returning"
	case Aborting:
		return "aborting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome is the result of Execute. State is Returning or Aborting; Err is
// set exactly when it is Aborting.
type Outcome struct {
	Method   string
	State    State
	Value    []byte
	HasValue bool
	Err      error
}

func (o Outcome) abort(err error) Outcome {
	o.State = Aborting
	o.Value, o.HasValue = nil, false
	o.Err = err
	return o
}

// Execute dispatches one call to name without touching value_return or the
// abort path. Go panics raised by the handler become a *PanicError; host
// traps propagate.
func (t *Table) Execute(name string) (out Outcome) {
	out = Outcome{Method: name, State: Idle}
	e, ok := t.methods[name]
	if !ok {
		return out.abort(fmt.Errorf("%w: %q", ErrUnknownMethod, name))
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if sys.IsTrap(r) {
			panic(r)
		}
		out = out.abort(&PanicError{Method: name, Message: abort.PanicMessage(r)})
	}()

	call := &Call{Method: name}
	if e.readsInput {
		out.State = ReadingInput
		in, err := env.Input()
		if errors.Is(err, alloc.ErrOutOfMemory) {
			return out.abort(err)
		}
		if err != nil {
			return out.abort(&InputError{Method: name, Err: err})
		}
		call.Input = in
	}

	out.State = Executing
	if err := e.guard(); err != nil {
		return out.abort(err)
	}
	res, err := e.wrapped(call)
	if err != nil {
		var inputErr *InputError
		if !errors.As(err, &inputErr) {
			err = &HandlerError{Method: name, Err: err}
		}
		return out.abort(err)
	}

	out.State = Returning
	out.Value, out.HasValue = res.Value, res.HasValue
	return out
}

// Run executes name and applies the outcome: the value goes to value_return,
// a failure aborts the call with its message. An unknown name traps without
// a message.
func (t *Table) Run(name string) {
	out := t.Execute(name)
	switch {
	case out.State == Returning:
		if out.HasValue {
			env.ValueReturn(out.Value)
		}
	case errors.Is(out.Err, ErrUnknownMethod):
		abort.Trap()
	default:
		abort.Error(out.Err)
	}
}
