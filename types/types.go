// Package types defines the values that cross the contract/host boundary.
package types

// AccountID names a party in the host's namespace. The runtime treats it as an
// opaque byte sequence and never validates it; the host owns those rules.
type AccountID string

// Gas units used for computation and storage within the runtime.
type Gas = uint64

// PromiseIndex identifies a scheduled cross-contract call or action batch.
// It is only meaningful within the call that created it.
type PromiseIndex uint64

// PublicKey is a curve-prefixed public key as understood by the host.
type PublicKey []byte

// StorageUsage is the number of bytes an account pays storage for.
type StorageUsage = uint64

// PromiseStatus is the state of a promise result seen from a callback.
type PromiseStatus uint8

const (
	PromiseNotReady PromiseStatus = iota
	PromiseSuccessful
	PromiseFailed
)

func (s PromiseStatus) String() string {
	switch s {
	case PromiseNotReady:
		return "not_ready"
	case PromiseSuccessful:
		return "successful"
	case PromiseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PromiseResult is the outcome of a promise a callback depends on.
// Data is only set when Status is PromiseSuccessful.
type PromiseResult struct {
	Data   []byte
	Status PromiseStatus
}
