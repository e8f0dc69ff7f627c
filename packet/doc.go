// Package packet implements the binary codec used for every structured
// payload exchanged through the transport package.
//
// A Writer appends fixed-width little-endian fields to a growable buffer and
// can patch fields it has already written. A Reader walks a received buffer
// with a cursor, decoding the same fields in the same order.
//
// # Wire Format
//
//   - Int16/Int32/Int64: fixed width, little-endian two's complement
//   - Boolean: one byte, 1 for true and 0 for false
//   - Byte, Char: one byte (Char is a Latin-1 code point)
//   - Float32/Float64: IEEE-754, little-endian
//   - Float128: 16-byte decimal (96-bit coefficient, scale, sign)
//   - String: uint16 byte length followed by UTF-8 bytes
//
// Strings are length-prefixed by their UTF-8 byte count, so ASCII text is
// encoded one byte per character:
//
//	w := packet.NewWriter()
//	w.WriteInt16(300)
//	w.WriteBoolean(true)
//	_ = w.WriteString("hi")
//	w.ToArray() // 2C 01 01 02 00 68 69
//
// # Length Placeholders
//
// OverWrite methods mutate bytes already present at the cursor, which lets a
// caller reserve a length field and fill it in once the body is known:
//
//	w.WriteInt32(0) // placeholder
//	start := w.Len()
//	w.WriteBytes(body)
//	_ = w.Seek(start - 4)
//	_ = w.OverWriteInt32(int32(w.Len() - start))
//
// # Errors
//
// Reading past the end of a buffer is a protocol violation and panics with a
// *RangeError. Use Decode to turn that panic into an error when the input
// comes from an untrusted peer.
package packet
