// Package xhash provides the fixed 32-byte content hash H used across the
// blob storage pipeline: chunk addressing, blob addressing, and the
// key-derivation seeds in internal/xcrypto all use the same function so
// addresses stay bit-exact across clients, per spec.md §6.
//
// The primitive is BLAKE2b-256, grounded in the dolthub-dolt example
// repo's go/store/hash package, which hashes with blake2b (alongside
// blake3/xxh3 for other purposes not relevant to content addressing).
package xhash

import (
	"golang.org/x/crypto/blake2b"
)

// Size is the fixed width, in bytes, of every hash produced by Sum and
// KeyedSum. It matches spec.md §6 ("Hash H: 32-byte output").
const Size = 32

// Sum returns H(data), the unkeyed content hash.
func Sum(data []byte) [Size]byte {
	return blake2b.Sum256(data)
}

// KeyedSum returns a BLAKE2b-256 hash of data under the given key, used by
// internal/xcrypto to expand neighbouring pre-hashes into chunk key
// material without a second, independent KDF primitive.
func KeyedSum(key, data []byte) ([Size]byte, error) {
	var out [Size]byte

	h, err := blake2b.New256(key)
	if err != nil {
		return out, err
	}

	h.Write(data)
	copy(out[:], h.Sum(nil))
	return out, nil
}
