// Package xcrypto implements the per-chunk key derivation, authenticated
// encryption, and keystream obfuscation described in spec.md §4.1 steps
// 2-4. The primitives are fixed so that every client of the network
// produces bit-exact ciphertext for the same plaintext:
//
//   - key/nonce derivation: BLAKE2b-256 keyed hash (internal/xhash),
//     domain-separated by a label so the cipher key and nonce never reuse
//     the same digest.
//   - encryption: NaCl secretbox (XSalsa20-Poly1305), an authenticated,
//     deterministic-given-key-and-nonce construction.
//   - obfuscation: an XChaCha20 keystream XORed over the secretbox output,
//     seeded from the chunk's own pre-hash plus its two neighbours.
package xcrypto

import (
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/bbengfort/fluidblob/internal/xhash"
)

const (
	keyLabel   = "fluidblob-chunk-key-v1"
	nonceLabel = "fluidblob-chunk-nonce-v1"
	obfLabel   = "fluidblob-chunk-obfuscation-v1"

	keySize   = 32
	nonceSize = 24 // secretbox and XChaCha20 both take a 24-byte nonce
)

// ErrAuthenticationFailed is returned by Decrypt when the secretbox
// authentication tag does not verify: either the ciphertext was corrupted
// in transit/storage, or the derived key/nonce do not match the data that
// produced it. This is the CipherFailure failure mode of spec.md §4.1:
// always fatal for the affected chunk, never retried at this layer.
var ErrAuthenticationFailed = errAuthFailed{}

type errAuthFailed struct{}

func (errAuthFailed) Error() string { return "xcrypto: secretbox authentication failed" }

// deriveKeyNonce expands the pre-hashes of the previous two chunks
// (in neighbour order, per spec.md §4.1 step 2) into a cipher key and
// nonce via domain-separated BLAKE2b keyed hashes.
func deriveKeyNonce(prev1, prev2 [xhash.Size]byte) (key [keySize]byte, nonce [nonceSize]byte, err error) {
	seed := make([]byte, 0, 2*xhash.Size)
	seed = append(seed, prev1[:]...)
	seed = append(seed, prev2[:]...)

	k, err := xhash.KeyedSum(seed, []byte(keyLabel))
	if err != nil {
		return key, nonce, err
	}
	copy(key[:], k[:])

	n, err := xhash.KeyedSum(seed, []byte(nonceLabel))
	if err != nil {
		return key, nonce, err
	}
	copy(nonce[:], n[:nonceSize])

	return key, nonce, nil
}

// deriveObfuscationStream builds the XChaCha20 keystream generator seeded
// from a chunk's own pre-hash and its two neighbours (spec.md §4.1 step 4).
func deriveObfuscationStream(self, prev1, prev2 [xhash.Size]byte) (*chacha20.Cipher, error) {
	seed := make([]byte, 0, 3*xhash.Size)
	seed = append(seed, self[:]...)
	seed = append(seed, prev1[:]...)
	seed = append(seed, prev2[:]...)

	// blake2b rejects keys over 64 bytes, so the 96-byte three-hash seed
	// is collapsed through xhash.Sum first, the same way deriveKeyNonce's
	// 64-byte prev1∥prev2 seed stays within the bound directly.
	digest := xhash.Sum(seed)

	key, err := xhash.KeyedSum(digest[:], []byte(obfLabel))
	if err != nil {
		return nil, err
	}

	// Derive the nonce by keying the same label with the key material
	// itself, so a single seed fully determines the stream.
	nonce, err := xhash.KeyedSum(key[:], []byte(obfLabel))
	if err != nil {
		return nil, err
	}

	return chacha20.NewUnauthenticatedCipher(key[:], nonce[:nonceSize])
}

// obfuscate XORs data in place against the deterministic keystream for the
// given chunk position. It is its own inverse.
func obfuscate(data []byte, self, prev1, prev2 [xhash.Size]byte) error {
	stream, err := deriveObfuscationStream(self, prev1, prev2)
	if err != nil {
		return err
	}
	stream.XORKeyStream(data, data)
	return nil
}

// Encrypt turns a plaintext chunk into its final on-wire chunk bytes:
// authenticated encryption keyed on the neighbouring pre-hashes, then
// obfuscated with a keystream seeded from this chunk's own pre-hash and
// those same neighbours.
//
// selfPreHash is H(plaintext); prev1/prev2 are the pre-hashes of the
// chunks at index (i-1) mod n and (i-2) mod n.
func Encrypt(plaintext []byte, selfPreHash, prev1PreHash, prev2PreHash [xhash.Size]byte) ([]byte, error) {
	key, nonce, err := deriveKeyNonce(prev1PreHash, prev2PreHash)
	if err != nil {
		return nil, err
	}

	sealed := secretbox.Seal(nil, plaintext, (*[nonceSize]byte)(&nonce), (*[keySize]byte)(&key))

	if err := obfuscate(sealed, selfPreHash, prev1PreHash, prev2PreHash); err != nil {
		return nil, err
	}

	return sealed, nil
}

// Decrypt reverses Encrypt: undo the obfuscation keystream, then open the
// secretbox. It needs no plaintext neighbour data, only the pre-hashes
// recorded in the DataMap, per spec.md §4.1.
func Decrypt(chunkBytes []byte, selfPreHash, prev1PreHash, prev2PreHash [xhash.Size]byte) ([]byte, error) {
	sealed := make([]byte, len(chunkBytes))
	copy(sealed, chunkBytes)

	if err := obfuscate(sealed, selfPreHash, prev1PreHash, prev2PreHash); err != nil {
		return nil, err
	}

	key, nonce, err := deriveKeyNonce(prev1PreHash, prev2PreHash)
	if err != nil {
		return nil, err
	}

	plaintext, ok := secretbox.Open(nil, sealed, (*[nonceSize]byte)(&nonce), (*[keySize]byte)(&key))
	if !ok {
		return nil, ErrAuthenticationFailed
	}

	return plaintext, nil
}
