package blob

import (
	"github.com/bbengfort/fluidblob/datamap"
	"github.com/bbengfort/fluidblob/internal/wire"
)

// MaxBlobBytes is the hard network wire size limit (spec.md §6): a blob's
// serialised form must never exceed this many bytes.
const MaxBlobBytes = 1048576

// Blob is the unit stored on the network (spec.md §3): a Public blob
// wraps an opaque payload addressed by content hash; a Private blob
// additionally binds an owner's PublicKey into its address so the
// content is opaque to anyone but the owner.
type Blob struct {
	Kind    Kind
	Payload []byte
	Owner   PublicKey // only meaningful when Kind == Private
}

// NewPublic constructs a Public blob around payload.
func NewPublic(payload []byte) Blob {
	return Blob{Kind: Public, Payload: payload}
}

// NewPrivate constructs a Private blob around payload, bound to owner.
func NewPrivate(payload []byte, owner PublicKey) Blob {
	return Blob{Kind: Private, Payload: payload, Owner: owner}
}

// Address computes the blob's stable BlobAddress (spec.md Invariant I1):
// Public(H(payload)) for Public blobs, Private(H(payload ∥ owner_bytes))
// for Private blobs bound to a non-zero owner.
//
// A zero-value Owner is treated as "no owner to bind" and falls back to
// the content-hash-only formula even for a Private blob. This is the
// case a constituent chunk's wire Blob always presents (package
// chunkstore never sets Owner when storing a chunk): chunk post_hash
// values must stay content-addressed across every owner for convergent
// deduplication to work, while a chunk's Kind still carries the owning
// blob's deletability (Private chunks deletable, Public chunks
// permanent). Binding owner into the hash would break that
// content-addressing property for exactly the objects it's load-bearing
// for.
func (b Blob) Address() Address {
	if b.Kind == Private && b.Owner != (PublicKey{}) {
		seed := make([]byte, 0, len(b.Payload)+len(b.Owner))
		seed = append(seed, b.Payload...)
		seed = append(seed, b.Owner.Bytes()...)
		return Address{Kind: Private, Hash: datamap.Sum(seed)}
	}
	return Address{Kind: b.Kind, Hash: datamap.Sum(b.Payload)}
}

// Valid reports whether the blob's serialised form fits within
// MaxBlobBytes (spec.md §3, Invariant I2).
func (b Blob) Valid() bool {
	encoded, err := b.MarshalBinary()
	if err != nil {
		return false
	}
	return len(encoded) <= MaxBlobBytes
}

// MarshalBinary implements the deterministic encoding of spec.md §6: a
// kind tag, the 32 owner bytes when private, then the length-prefixed
// payload.
func (b Blob) MarshalBinary() ([]byte, error) {
	w := wire.NewWriter(1 + len(b.Owner) + len(b.Payload) + 4)
	w.Uint8(uint8(b.Kind))
	if b.Kind == Private {
		w.FixedBytes(b.Owner[:])
	}
	w.Bytes(b.Payload)
	return w.Out(), nil
}

// UnmarshalBinary decodes a buffer produced by MarshalBinary.
func (b *Blob) UnmarshalBinary(data []byte) error {
	r := wire.NewReader(data)

	tag, err := r.Uint8()
	if err != nil {
		return err
	}

	kind := Kind(tag)
	var owner PublicKey
	if kind == Private {
		raw, err := r.FixedBytes(32)
		if err != nil {
			return err
		}
		copy(owner[:], raw)
	}

	payload, err := r.Bytes()
	if err != nil {
		return err
	}

	b.Kind = kind
	b.Owner = owner
	b.Payload = payload
	return nil
}
