package env

import (
	"github.com/austinabell/nesdie/abort"
	"github.com/austinabell/nesdie/register"
	"github.com/austinabell/nesdie/sys"
)

// Sha256 hashes value on the host.
func Sha256(value []byte) [32]byte {
	var out [32]byte
	sys.Sha256(uint64(len(value)), sys.Ptr(value), register.AtomicOp)
	readFixed(out[:])
	return out
}

// Keccak256 hashes value on the host.
func Keccak256(value []byte) [32]byte {
	var out [32]byte
	sys.Keccak256(uint64(len(value)), sys.Ptr(value), register.AtomicOp)
	readFixed(out[:])
	return out
}

// Keccak512 hashes value on the host.
func Keccak512(value []byte) [64]byte {
	var out [64]byte
	sys.Keccak512(uint64(len(value)), sys.Ptr(value), register.AtomicOp)
	readFixed(out[:])
	return out
}

func readFixed(out []byte) {
	buf := make([]byte, len(out))
	n, err := register.ReadInto(register.AtomicOp, buf)
	if err != nil {
		abort.Error(err)
	}
	if n != len(out) {
		abort.Abort("hash: unexpected digest length")
	}
	copy(out, buf)
}
