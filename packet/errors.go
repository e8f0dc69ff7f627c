package packet

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange indicates a read past the end of the buffer.
	ErrOutOfRange = errors.New("read out of range")

	// ErrOverwriteOutOfRange indicates an overwrite that does not fit inside
	// the bytes already written.
	ErrOverwriteOutOfRange = errors.New("overwrite out of range")

	// ErrSeekOutOfRange indicates a cursor position outside [0, Len()].
	ErrSeekOutOfRange = errors.New("seek out of range")

	// ErrStringTooLong indicates a string whose UTF-8 form exceeds 65535 bytes.
	ErrStringTooLong = errors.New("string too long")

	// ErrCharOutOfRange indicates a rune that cannot be narrowed to one byte.
	ErrCharOutOfRange = errors.New("char out of range")

	// ErrDecimalOverflow indicates a decimal whose coefficient does not fit
	// in 96 bits.
	ErrDecimalOverflow = errors.New("decimal overflow")
)

// RangeError describes a codec access outside the buffer.
type RangeError struct {
	Op   string // codec operation, e.g. "ReadInt32"
	Pos  int    // cursor position at the time of the access
	Need int    // bytes the operation required
	Len  int    // buffer length
	Err  error  // ErrOutOfRange or ErrOverwriteOutOfRange
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("packet %s at %d: need %d bytes, have %d: %v",
		e.Op, e.Pos, e.Need, e.Len-e.Pos, e.Err)
}

func (e *RangeError) Unwrap() error {
	return e.Err
}
