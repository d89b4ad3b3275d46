// Package wire implements the deterministic little-endian binary encoding
// primitives shared by the datamap and blob packages (spec.md §6: "a fixed
// deterministic binary encoding with explicit little-endian integer
// widths"). It does not know about DataMap, DataMapLevel, or Blob
// themselves — those packages compose Writer/Reader to build their own
// MarshalBinary/UnmarshalBinary methods, keeping the wire format in one
// place without a dependency cycle between them.
package wire

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrTruncated is returned by Reader methods when fewer bytes remain than
// the value being decoded requires.
var ErrTruncated = errors.New("wire: truncated input")

// Writer accumulates a deterministic little-endian encoding of a value.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer, optionally pre-sizing its buffer.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Uint8 appends a single byte.
func (w *Writer) Uint8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

// Uint32 appends a little-endian uint32.
func (w *Writer) Uint32(v uint32) *Writer {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
	return w
}

// Uint64 appends a little-endian uint64.
func (w *Writer) Uint64(v uint64) *Writer {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
	return w
}

// FixedBytes appends raw bytes with no length prefix; use only where the
// length is implied by the schema (e.g. a 32-byte hash).
func (w *Writer) FixedBytes(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}

// Bytes appends a uint32 length prefix followed by the bytes themselves.
func (w *Writer) Bytes(b []byte) *Writer {
	w.Uint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
	return w
}

// Out returns the accumulated encoding.
func (w *Writer) Out() []byte {
	return w.buf
}

// Reader decodes a buffer written by Writer, tracking its own cursor.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential decoding.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining reports how many bytes have not yet been consumed.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() (uint8, error) {
	if r.Remaining() < 1 {
		return 0, ErrTruncated
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

// Uint64 reads a little-endian uint64.
func (r *Reader) Uint64() (uint64, error) {
	if r.Remaining() < 8 {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

// FixedBytes reads exactly n raw bytes.
func (r *Reader) FixedBytes(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, ErrTruncated
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// Bytes reads a uint32-length-prefixed byte slice.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	return r.FixedBytes(int(n))
}
