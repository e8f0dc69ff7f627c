package packet

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Writer builds a packet by appending fields to a growable buffer.
//
// Write methods append at the end of the buffer and leave the cursor at the
// new end. OverWrite methods replace bytes at the cursor without growing the
// buffer; they fail with ErrOverwriteOutOfRange when the field does not fit
// inside what has already been written, and leave the writer unchanged.
type Writer struct {
	buf []byte
	pos int
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// NewWriterSize returns an empty Writer with room for capacity bytes.
func NewWriterSize(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Position returns the cursor offset.
func (w *Writer) Position() int {
	return w.pos
}

// Seek moves the cursor to pos, which must lie in [0, Len()].
func (w *Writer) Seek(pos int) error {
	if pos < 0 || pos > len(w.buf) {
		return &RangeError{Op: "Seek", Pos: w.pos, Need: pos - w.pos, Len: len(w.buf), Err: ErrSeekOutOfRange}
	}
	w.pos = pos
	return nil
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the written bytes without copying. The slice is only valid
// until the next write.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// ToArray returns a copy of the written bytes.
func (w *Writer) ToArray() []byte {
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	return out
}

// Reset empties the writer, keeping its capacity.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
	w.pos = 0
}

func (w *Writer) append(p ...byte) {
	w.buf = append(w.buf, p...)
	w.pos = len(w.buf)
}

func (w *Writer) overwrite(op string, p []byte) error {
	if len(p) > len(w.buf)-w.pos {
		return &RangeError{Op: op, Pos: w.pos, Need: len(p), Len: len(w.buf), Err: ErrOverwriteOutOfRange}
	}
	copy(w.buf[w.pos:], p)
	w.pos += len(p)
	return nil
}

// WriteInt16 appends a little-endian int16.
func (w *Writer) WriteInt16(v int16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(v))
	w.pos = len(w.buf)
}

// OverWriteInt16 replaces two bytes at the cursor.
func (w *Writer) OverWriteInt16(v int16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(v))
	return w.overwrite("OverWriteInt16", b[:])
}

// WriteInt32 appends a little-endian int32.
func (w *Writer) WriteInt32(v int32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
	w.pos = len(w.buf)
}

// OverWriteInt32 replaces four bytes at the cursor.
func (w *Writer) OverWriteInt32(v int32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	return w.overwrite("OverWriteInt32", b[:])
}

// WriteInt64 appends a little-endian int64.
func (w *Writer) WriteInt64(v int64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v))
	w.pos = len(w.buf)
}

// OverWriteInt64 replaces eight bytes at the cursor.
func (w *Writer) OverWriteInt64(v int64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	return w.overwrite("OverWriteInt64", b[:])
}

// WriteBoolean appends 1 for true and 0 for false.
func (w *Writer) WriteBoolean(v bool) {
	w.append(boolByte(v))
}

// OverWriteBoolean replaces one byte at the cursor.
func (w *Writer) OverWriteBoolean(v bool) error {
	return w.overwrite("OverWriteBoolean", []byte{boolByte(v)})
}

// WriteByte appends one byte. It always returns nil, which lets Writer
// satisfy io.ByteWriter.
func (w *Writer) WriteByte(v byte) error {
	w.append(v)
	return nil
}

// OverWriteByte replaces one byte at the cursor.
func (w *Writer) OverWriteByte(v byte) error {
	return w.overwrite("OverWriteByte", []byte{v})
}

// WriteChar appends a Latin-1 code point as one byte.
func (w *Writer) WriteChar(c rune) error {
	b, err := charByte(c)
	if err != nil {
		return err
	}
	w.append(b)
	return nil
}

// OverWriteChar replaces one byte at the cursor with a Latin-1 code point.
func (w *Writer) OverWriteChar(c rune) error {
	b, err := charByte(c)
	if err != nil {
		return err
	}
	return w.overwrite("OverWriteChar", []byte{b})
}

// WriteFloat32 appends a little-endian IEEE-754 single.
func (w *Writer) WriteFloat32(v float32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
	w.pos = len(w.buf)
}

// OverWriteFloat32 replaces four bytes at the cursor.
func (w *Writer) OverWriteFloat32(v float32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return w.overwrite("OverWriteFloat32", b[:])
}

// WriteFloat64 appends a little-endian IEEE-754 double.
func (w *Writer) WriteFloat64(v float64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
	w.pos = len(w.buf)
}

// OverWriteFloat64 replaces eight bytes at the cursor.
func (w *Writer) OverWriteFloat64(v float64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	return w.overwrite("OverWriteFloat64", b[:])
}

// WriteFloat128 appends d in the 16-byte decimal layout. Values with more
// than 28 fractional digits are rounded; ErrDecimalOverflow is returned when
// the coefficient still does not fit in 96 bits.
func (w *Writer) WriteFloat128(d decimal.Decimal) error {
	b, err := encodeDecimal(d)
	if err != nil {
		return err
	}
	w.append(b[:]...)
	return nil
}

// OverWriteFloat128 replaces sixteen bytes at the cursor.
func (w *Writer) OverWriteFloat128(d decimal.Decimal) error {
	b, err := encodeDecimal(d)
	if err != nil {
		return err
	}
	return w.overwrite("OverWriteFloat128", b[:])
}

// WriteString appends the UTF-8 byte length of s as a uint16 followed by
// the bytes of s.
func (w *Writer) WriteString(s string) error {
	if err := checkString(s); err != nil {
		return err
	}
	w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(len(s)))
	w.buf = append(w.buf, s...)
	w.pos = len(w.buf)
	return nil
}

// OverWriteString replaces 2+len(s) bytes at the cursor with the encoding
// of s.
func (w *Writer) OverWriteString(s string) error {
	if err := checkString(s); err != nil {
		return err
	}
	b := make([]byte, 2, 2+len(s))
	binary.LittleEndian.PutUint16(b, uint16(len(s)))
	return w.overwrite("OverWriteString", append(b, s...))
}

// WriteBytes appends p verbatim, without a length prefix.
func (w *Writer) WriteBytes(p []byte) {
	w.append(p...)
}

// OverWriteBytes replaces len(p) bytes at the cursor.
func (w *Writer) OverWriteBytes(p []byte) error {
	return w.overwrite("OverWriteBytes", p)
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func charByte(c rune) (byte, error) {
	if c < 0 || c > 0xFF {
		return 0, fmt.Errorf("%w: %U", ErrCharOutOfRange, c)
	}
	return byte(c), nil
}

func checkString(s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(s))
	}
	return nil
}
