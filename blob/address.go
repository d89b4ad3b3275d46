// Package blob implements Blob Kind & Addressing (spec.md §4.4): the
// Public/Private Blob variants and the BlobAddress that names them on the
// network. The pure blob_data_map preview entry point lives in package
// pack (pack.BlobDataMap), since it needs Pack's levelling logic.
//
// Addressing is deliberately pure — it never calls a chunk store. The
// kind tag and the content hash are kept as two distinct fields on
// Address rather than fused into one value, per the design note in
// spec.md §9: fusing them would let a Public and a Private blob alias
// the same address whenever their content hashes happened to collide
// in a single concatenated encoding.
package blob

import (
	"encoding/hex"

	"github.com/bbengfort/fluidblob/datamap"
	"github.com/bbengfort/fluidblob/internal/wire"
)

// Kind distinguishes a world-readable Public blob from an owner-bound
// Private blob. The wire tag values are fixed by spec.md §6.
type Kind uint8

// The two blob kinds. Wire tags match spec.md §6 exactly.
const (
	Public  Kind = 0x00
	Private Kind = 0x01
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Public:
		return "Public"
	case Private:
		return "Private"
	default:
		return "Unknown"
	}
}

// PublicKey identifies the owner a Private blob's address is bound to.
// Provisioning and signing of keys is the account subsystem's concern
// (spec.md §1 Non-goals); this package only ever consumes the key's raw
// bytes to bind an address.
type PublicKey [32]byte

// Bytes returns the owner's raw key bytes.
func (k PublicKey) Bytes() []byte {
	return k[:]
}

// Address is the tagged pair (kind, content_hash) of spec.md §3. Two
// addresses of different kinds never alias even if their content_hash
// fields coincide, because lookups always compare both fields.
type Address struct {
	Kind Kind
	Hash datamap.Hash
}

// String renders the address as "<kind>:<hex hash>".
func (a Address) String() string {
	return a.Kind.String() + ":" + a.Hash.String()
}

// Equal reports whether two addresses name the same blob.
func (a Address) Equal(other Address) bool {
	return a.Kind == other.Kind && a.Hash == other.Hash
}

// MarshalBinary encodes the address per spec.md §6: a 1-byte kind tag
// followed by the 32-byte hash.
func (a Address) MarshalBinary() ([]byte, error) {
	w := wire.NewWriter(1 + len(a.Hash))
	w.Uint8(uint8(a.Kind))
	w.FixedBytes(a.Hash[:])
	return w.Out(), nil
}

// UnmarshalBinary decodes a buffer produced by MarshalBinary.
func (a *Address) UnmarshalBinary(data []byte) error {
	r := wire.NewReader(data)

	tag, err := r.Uint8()
	if err != nil {
		return err
	}

	raw, err := r.FixedBytes(32)
	if err != nil {
		return err
	}

	var h datamap.Hash
	copy(h[:], raw)

	a.Kind = Kind(tag)
	a.Hash = h
	return nil
}

// ParseAddressHex is a debugging convenience that decodes the
// hex-encoded form produced by Address.String()'s hash component,
// primarily used by tests and command-line tooling layered above the
// core.
func ParseAddressHex(kind Kind, hexHash string) (Address, error) {
	raw, err := hex.DecodeString(hexHash)
	if err != nil {
		return Address{}, err
	}
	var h datamap.Hash
	copy(h[:], raw)
	return Address{Kind: kind, Hash: h}, nil
}
