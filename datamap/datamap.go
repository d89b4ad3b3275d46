// Package datamap holds the data model shared by every component of the
// blob storage pipeline: the content Hash type, ChunkDescriptor, DataMap,
// and DataMapLevel from spec.md §3. Its only behavior is the deterministic
// wire encoding each type needs for spec.md §6 — everything that actually
// produces or consumes chunk bytes lives in package selfencrypt.
package datamap

import (
	"encoding/hex"

	"github.com/bbengfort/fluidblob/internal/wire"
	"github.com/bbengfort/fluidblob/internal/xhash"
)

// Hash is the fixed-width content hash used for both chunk addressing
// (post-hash) and key derivation seeding (pre-hash), per spec.md §6.
type Hash [xhash.Size]byte

// Sum computes H(data) as a Hash.
func Sum(data []byte) Hash {
	return Hash(xhash.Sum(data))
}

// String renders the hash as lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero hash (never a valid content hash,
// used as a sentinel for an unset slot, e.g. by selfencrypt.Delete's list
// of chunks that failed to delete).
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ChunkDescriptor is the triple {pre_hash, post_hash, size} of spec.md §3.
// pre_hash seeds key derivation for neighbouring chunks; post_hash is the
// chunk's network address; size is the plaintext length.
type ChunkDescriptor struct {
	PreHash  Hash
	PostHash Hash
	Size     uint64
}

// Kind tags which variant a DataMap holds.
type Kind uint8

// The three DataMap variants of spec.md §3.
const (
	KindEmpty Kind = iota
	KindContent
	KindChunks
)

// DataMap is the tagged value of spec.md §3: exactly one of Empty,
// Content(bytes), or Chunks(ordered ChunkDescriptor sequence). Order is
// significant — see ChunkDescriptor and package selfencrypt's key
// derivation.
type DataMap struct {
	Kind    Kind
	Content []byte
	Chunks  []ChunkDescriptor
}

// Empty returns the Empty DataMap variant.
func Empty() DataMap {
	return DataMap{Kind: KindEmpty}
}

// FromContent returns the Content(data) variant. The caller's slice is
// copied so the DataMap owns its bytes.
func FromContent(data []byte) DataMap {
	cp := make([]byte, len(data))
	copy(cp, data)
	return DataMap{Kind: KindContent, Content: cp}
}

// FromChunks returns the Chunks(descriptors) variant.
func FromChunks(descriptors []ChunkDescriptor) DataMap {
	cp := make([]ChunkDescriptor, len(descriptors))
	copy(cp, descriptors)
	return DataMap{Kind: KindChunks, Chunks: cp}
}

// TotalSize returns the cumulative plaintext length described by the map:
// zero for Empty, len(Content) for Content, and the sum of chunk sizes for
// Chunks. Used by selfencrypt.Read to clip out-of-range requests, and by
// pack.Unpack/pack.Delete and client.ReadBlob to read a map in full.
func (m DataMap) TotalSize() uint64 {
	switch m.Kind {
	case KindContent:
		return uint64(len(m.Content))
	case KindChunks:
		var total uint64
		for _, c := range m.Chunks {
			total += c.Size
		}
		return total
	default:
		return 0
	}
}

// MarshalBinary implements the deterministic encoding of spec.md §6.
func (m DataMap) MarshalBinary() ([]byte, error) {
	w := wire.NewWriter(32)
	w.Uint8(uint8(m.Kind))

	switch m.Kind {
	case KindEmpty:
		// no payload
	case KindContent:
		w.Bytes(m.Content)
	case KindChunks:
		w.Uint32(uint32(len(m.Chunks)))
		for _, c := range m.Chunks {
			w.FixedBytes(c.PreHash[:])
			w.FixedBytes(c.PostHash[:])
			w.Uint64(c.Size)
		}
	}

	return w.Out(), nil
}

// UnmarshalBinary decodes a buffer produced by MarshalBinary.
func (m *DataMap) UnmarshalBinary(data []byte) error {
	r := wire.NewReader(data)

	tag, err := r.Uint8()
	if err != nil {
		return err
	}

	switch Kind(tag) {
	case KindEmpty:
		*m = DataMap{Kind: KindEmpty}

	case KindContent:
		content, err := r.Bytes()
		if err != nil {
			return err
		}
		*m = DataMap{Kind: KindContent, Content: content}

	case KindChunks:
		n, err := r.Uint32()
		if err != nil {
			return err
		}
		chunks := make([]ChunkDescriptor, 0, n)
		for i := uint32(0); i < n; i++ {
			pre, err := r.FixedBytes(xhash.Size)
			if err != nil {
				return err
			}
			post, err := r.FixedBytes(xhash.Size)
			if err != nil {
				return err
			}
			size, err := r.Uint64()
			if err != nil {
				return err
			}
			var desc ChunkDescriptor
			copy(desc.PreHash[:], pre)
			copy(desc.PostHash[:], post)
			desc.Size = size
			chunks = append(chunks, desc)
		}
		*m = DataMap{Kind: KindChunks, Chunks: chunks}

	default:
		return errUnknownTag(tag)
	}

	return nil
}

type errUnknownTag uint8

func (e errUnknownTag) Error() string {
	return "datamap: unknown DataMap tag " + hex.EncodeToString([]byte{byte(e)})
}

// Level tags which DataMapLevel variant a value holds: Root marks the
// original user data's data map; Child marks an intermediate map
// introduced by recursive packing (spec.md §3, §4.3). The tag ordering
// (0 = Root, 1 = Child) is fixed by spec.md §6.
type Level uint8

// The two DataMapLevel variants.
const (
	LevelRoot Level = iota
	LevelChild
)

// DataMapLevel is the tagged wrapper of spec.md §3 distinguishing the
// user's root map from intermediate maps produced while packing.
type DataMapLevel struct {
	Level Level
	Map   DataMap
}

// Root wraps m as the terminal Root level.
func Root(m DataMap) DataMapLevel {
	return DataMapLevel{Level: LevelRoot, Map: m}
}

// Child wraps m as an intermediate Child level.
func Child(m DataMap) DataMapLevel {
	return DataMapLevel{Level: LevelChild, Map: m}
}

// IsRoot reports whether this is the terminal Root level.
func (l DataMapLevel) IsRoot() bool {
	return l.Level == LevelRoot
}

// MarshalBinary implements the deterministic encoding of spec.md §6.
func (l DataMapLevel) MarshalBinary() ([]byte, error) {
	mapBytes, err := l.Map.MarshalBinary()
	if err != nil {
		return nil, err
	}

	w := wire.NewWriter(1 + len(mapBytes))
	w.Uint8(uint8(l.Level))
	w.FixedBytes(mapBytes)
	return w.Out(), nil
}

// UnmarshalBinary decodes a buffer produced by MarshalBinary.
func (l *DataMapLevel) UnmarshalBinary(data []byte) error {
	if len(data) < 1 {
		return wire.ErrTruncated
	}

	tag := Level(data[0])
	if tag != LevelRoot && tag != LevelChild {
		return errUnknownTag(tag)
	}

	var m DataMap
	if err := m.UnmarshalBinary(data[1:]); err != nil {
		return err
	}

	l.Level = tag
	l.Map = m
	return nil
}
