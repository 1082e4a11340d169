package vm

import "fmt"

// ErrorKind classifies a host trap.
type ErrorKind int

const (
	// GuestPanic is an abort requested by the contract through panic or
	// panic_utf8.
	GuestPanic ErrorKind = iota + 1
	GasExceeded
	ProhibitedInView
	MemoryAccessViolation
	InvalidRegisterID
	RegisterLimitExceeded
	BadUTF8
	NumberOfLogsExceeded
	TotalLogLengthExceeded
	KeyLengthExceeded
	ValueLengthExceeded
	InvalidAccountID
	InvalidPromiseIndex
	InvalidPromiseResultIndex
	CannotAppendActionToJointPromise
	CannotReturnJointPromise
	IntegerOverflow
	StorageError
	MethodNotFound
	WasmTrap
)

var kindNames = map[ErrorKind]string{
	GuestPanic:                       "GuestPanic",
	GasExceeded:                      "GasExceeded",
	ProhibitedInView:                 "ProhibitedInView",
	MemoryAccessViolation:            "MemoryAccessViolation",
	InvalidRegisterID:                "InvalidRegisterId",
	RegisterLimitExceeded:            "RegisterLimitExceeded",
	BadUTF8:                          "BadUTF8",
	NumberOfLogsExceeded:             "NumberOfLogsExceeded",
	TotalLogLengthExceeded:           "TotalLogLengthExceeded",
	KeyLengthExceeded:                "KeyLengthExceeded",
	ValueLengthExceeded:              "ValueLengthExceeded",
	InvalidAccountID:                 "InvalidAccountId",
	InvalidPromiseIndex:              "InvalidPromiseIndex",
	InvalidPromiseResultIndex:        "InvalidPromiseResultIndex",
	CannotAppendActionToJointPromise: "CannotAppendActionToJointPromise",
	CannotReturnJointPromise:         "CannotReturnJointPromise",
	IntegerOverflow:                  "IntegerOverflow",
	StorageError:                     "StorageError",
	MethodNotFound:                   "MethodNotFound",
	WasmTrap:                         "WasmTrap",
}

func (k ErrorKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// HostError is the reason a call trapped.
type HostError struct {
	Kind    ErrorKind
	Message string
}

func (e *HostError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any *HostError of the same kind, so the sentinels below work
// with errors.Is regardless of message.
func (e *HostError) Is(target error) bool {
	t, ok := target.(*HostError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrGuestPanic       = &HostError{Kind: GuestPanic}
	ErrGasExceeded      = &HostError{Kind: GasExceeded}
	ErrProhibitedInView = &HostError{Kind: ProhibitedInView}
	ErrMethodNotFound   = &HostError{Kind: MethodNotFound}
)

func hostErr(kind ErrorKind, format string, args ...any) *HostError {
	return &HostError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
