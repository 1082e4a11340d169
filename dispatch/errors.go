package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMethod is returned by Execute for a name the table does not
	// hold.
	ErrUnknownMethod = errors.New("dispatch: unknown method")

	// ErrEmptyInput is returned by codecs that require arguments when the
	// call carries none.
	ErrEmptyInput = errors.New("empty input")

	// ErrNotPayable rejects a deposit attached to a method without Payable.
	ErrNotPayable = errors.New("method doesn't accept deposit")

	// ErrPrivate rejects a call to a Private method from another account.
	ErrPrivate = errors.New("method is private")
)

// InputError reports input that could not be read or decoded.
type InputError struct {
	Method string
	Err    error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("failed to deserialize input of %s: %v", e.Method, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// HandlerError wraps an error returned by a handler. Its message is the
// handler's own.
type HandlerError struct {
	Method string
	Err    error
}

func (e *HandlerError) Error() string { return e.Err.Error() }

func (e *HandlerError) Unwrap() error { return e.Err }

// PanicError reports a Go panic recovered while a handler ran.
type PanicError struct {
	Method  string
	Message string
}

func (e *PanicError) Error() string { return e.Message }
