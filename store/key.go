package store

import "github.com/austinabell/nesdie/env"

// Hasher derives the storage key of an encoded collection key.
type Hasher func(prefix, key []byte) []byte

// Identity appends the key to the prefix unchanged.
func Identity(prefix, key []byte) []byte {
	out := make([]byte, 0, len(prefix)+len(key))
	out = append(out, prefix...)
	return append(out, key...)
}

// Sha256 appends the sha256 digest of the key, keeping storage keys a fixed
// length regardless of the key type.
func Sha256(prefix, key []byte) []byte {
	sum := env.Sha256(key)
	return append(append(make([]byte, 0, len(prefix)+len(sum)), prefix...), sum[:]...)
}

// Keccak256 is Sha256 with the keccak256 digest.
func Keccak256(prefix, key []byte) []byte {
	sum := env.Keccak256(key)
	return append(append(make([]byte, 0, len(prefix)+len(sum)), prefix...), sum[:]...)
}
