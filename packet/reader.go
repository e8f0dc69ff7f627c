package packet

import (
	"encoding/binary"
	"math"

	"github.com/shopspring/decimal"
)

// Reader decodes fields sequentially from a fixed byte buffer.
//
// Every Read method advances the cursor by the width of the field it decodes.
// A read that would run past the end of the buffer panics with a *RangeError
// and leaves the cursor where it was.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at the start of buf. The buffer is
// neither copied nor modified.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Decode runs fn over a Reader for buf and reports a read past the end of
// buf as an error instead of a panic. Panics that are not codec range faults
// are propagated unchanged.
func Decode(buf []byte, fn func(r *Reader)) (err error) {
	r := NewReader(buf)
	defer func() {
		if v := recover(); v != nil {
			re, ok := v.(*RangeError)
			if !ok {
				panic(v)
			}
			err = re
		}
	}()
	fn(r)
	return nil
}

// Position returns the cursor offset.
func (r *Reader) Position() int {
	return r.pos
}

// Seek moves the cursor to pos, which must lie in [0, Len()].
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.buf) {
		return &RangeError{Op: "Seek", Pos: r.pos, Need: pos - r.pos, Len: len(r.buf), Err: ErrSeekOutOfRange}
	}
	r.pos = pos
	return nil
}

// Len returns the total buffer length.
func (r *Reader) Len() int {
	return len(r.buf)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// next returns the n bytes at the cursor and advances past them.
func (r *Reader) next(op string, n int) []byte {
	r.require(op, n)
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *Reader) require(op string, n int) {
	if n > len(r.buf)-r.pos {
		panic(&RangeError{Op: op, Pos: r.pos, Need: n, Len: len(r.buf), Err: ErrOutOfRange})
	}
}

// ReadInt16 decodes a little-endian int16.
func (r *Reader) ReadInt16() int16 {
	return int16(binary.LittleEndian.Uint16(r.next("ReadInt16", 2)))
}

// ReadInt32 decodes a little-endian int32.
func (r *Reader) ReadInt32() int32 {
	return int32(binary.LittleEndian.Uint32(r.next("ReadInt32", 4)))
}

// ReadInt64 decodes a little-endian int64.
func (r *Reader) ReadInt64() int64 {
	return int64(binary.LittleEndian.Uint64(r.next("ReadInt64", 8)))
}

// ReadBoolean decodes one byte; only 1 is true.
func (r *Reader) ReadBoolean() bool {
	return r.next("ReadBoolean", 1)[0] == 1
}

// ReadByte decodes one byte. Unlike the other Read methods it reports a
// read past the end as a *RangeError instead of panicking, which lets Reader
// satisfy io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, &RangeError{Op: "ReadByte", Pos: r.pos, Need: 1, Len: len(r.buf), Err: ErrOutOfRange}
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadChar decodes one byte as a Latin-1 code point.
func (r *Reader) ReadChar() rune {
	return rune(r.next("ReadChar", 1)[0])
}

// ReadFloat32 decodes a little-endian IEEE-754 single.
func (r *Reader) ReadFloat32() float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(r.next("ReadFloat32", 4)))
}

// ReadFloat64 decodes a little-endian IEEE-754 double.
func (r *Reader) ReadFloat64() float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(r.next("ReadFloat64", 8)))
}

// ReadFloat128 decodes the 16-byte decimal layout written by WriteFloat128.
func (r *Reader) ReadFloat128() decimal.Decimal {
	return decodeDecimal(r.next("ReadFloat128", decimalSize))
}

// ReadString decodes a uint16 byte length followed by that many bytes of
// UTF-8 text. The cursor is untouched if either part is truncated.
func (r *Reader) ReadString() string {
	r.require("ReadString", 2)
	n := int(binary.LittleEndian.Uint16(r.buf[r.pos:]))
	r.require("ReadString", 2+n)
	s := string(r.buf[r.pos+2 : r.pos+2+n])
	r.pos += 2 + n
	return s
}

// ReadBytes returns a copy of the next n bytes.
func (r *Reader) ReadBytes(n int) []byte {
	if n < 0 {
		panic(&RangeError{Op: "ReadBytes", Pos: r.pos, Need: n, Len: len(r.buf), Err: ErrOutOfRange})
	}
	out := make([]byte, n)
	copy(out, r.next("ReadBytes", n))
	return out
}
