package binary

import (
	"encoding/binary"

	"github.com/javelin-rt/javelin/errors"
)

// Reader is a positioned cursor over a byte slice with big-endian read
// methods for the class-file format. Sub-readers created by Sub carry the
// absolute offset of their region so errors always report positions
// relative to the start of the whole input.
type Reader struct {
	data []byte
	pos  int
	base int
}

// NewReader creates a Reader over the given byte slice.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the current byte position relative to the whole input.
func (r *Reader) Position() int {
	return r.base + r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// ReadU8 reads a single unsigned byte.
func (r *Reader) ReadU8() (uint8, error) {
	if r.pos >= len(r.data) {
		return 0, errors.UnexpectedEOS(r.Position(), 1)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// PeekU8 returns the next byte without advancing the cursor.
func (r *Reader) PeekU8() (uint8, error) {
	if r.pos >= len(r.data) {
		return 0, errors.UnexpectedEOS(r.Position(), 1)
	}
	return r.data[r.pos], nil
}

// ReadU16 reads a big-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, errors.UnexpectedEOS(r.Position(), r.pos+2-len(r.data))
	}
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadU32 reads a big-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, errors.UnexpectedEOS(r.Position(), r.pos+4-len(r.data))
	}
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadU64 reads a big-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, errors.UnexpectedEOS(r.Position(), r.pos+8-len(r.data))
	}
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadS32 reads a big-endian int32.
func (r *Reader) ReadS32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadBytes reads exactly n bytes. The returned slice aliases the input.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		need := n
		if n >= 0 {
			need = r.pos + n - len(r.data)
		}
		return nil, errors.UnexpectedEOS(r.Position(), need)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 || r.pos+n > len(r.data) {
		return errors.UnexpectedEOS(r.Position(), n)
	}
	r.pos += n
	return nil
}

// Sub consumes n bytes and returns a Reader bounded to exactly that region.
// Decoders for length-prefixed records use the sub-reader and then call
// ExpectConsumed to enforce the exact-length invariant.
func (r *Reader) Sub(n int) (*Reader, error) {
	start := r.Position()
	data, err := r.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return &Reader{data: data, base: start}, nil
}

// ExpectConsumed fails unless the reader has consumed its entire region.
func (r *Reader) ExpectConsumed(what string) error {
	if r.pos != len(r.data) {
		return errors.LengthMismatch(what, len(r.data), r.pos)
	}
	return nil
}
