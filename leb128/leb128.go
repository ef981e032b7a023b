// Package leb128 implements the variable-width integer codec used
// throughout DEX: unsigned LEB128, signed LEB128, and the uleb128p1
// "subtract one" convention for optional indices (spec.md §4.2).
//
// The byte-level accumulation loop mirrors the corpus's own varint
// handling (the teacher's internal delta-timestamp encoder reads/writes
// varints with encoding/binary's Uvarint family); DEX's LEB128 uses the
// same 7-bits-per-byte, continuation-bit-in-the-MSB layout, but allows up
// to 10 bytes (to cover a full 64-bit value) where encoding/binary's
// 32-bit helpers would stop at 5.
package leb128

import (
	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/errs"
)

// maxBytes bounds the accumulation loop: 10 bytes of 7 data bits each
// covers a full 64-bit value, with the 10th byte contributing only its
// lowest 1 bit before overflow.
const maxBytes = 10

// ReadUleb128 reads an unsigned LEB128-encoded value.
//
// DEX producers intended for a 32-bit value never emit more than 5 bytes,
// but this reader accepts up to 10 to cover the full 64-bit range some
// encoded_value payloads need; a continuation bit still set on the tenth
// byte is ErrLebOverflow.
func ReadUleb128(c *cursor.Cursor) (uint64, error) {
	var result uint64

	start := c.Position()

	for i := 0; i < maxBytes; i++ {
		b, err := c.ReadU8()
		if err != nil {
			return 0, errs.At("leb128", int64(start), err)
		}

		shift := uint(i * 7)
		if i == maxBytes-1 {
			if b&0x80 != 0 {
				return 0, errs.At("leb128", int64(start), errs.ErrLebOverflow)
			}

			result |= uint64(b&0x7F) << shift

			return result, nil
		}

		result |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, nil
		}
	}

	return 0, errs.At("leb128", int64(start), errs.ErrLebOverflow)
}

// ReadSleb128 reads a signed LEB128-encoded value, sign-extending from bit
// 6 of the final byte.
func ReadSleb128(c *cursor.Cursor) (int64, error) {
	var result int64

	var shift uint

	start := c.Position()

	for i := 0; i < maxBytes; i++ {
		b, err := c.ReadU8()
		if err != nil {
			return 0, errs.At("leb128", int64(start), err)
		}

		result |= int64(b&0x7F) << shift
		shift += 7

		if b&0x80 == 0 {
			// Sign-extend if the sign bit (bit 6 of this byte) is set and
			// there are unfilled high bits remaining.
			if shift < 64 && b&0x40 != 0 {
				result |= -1 << shift
			}

			return result, nil
		}
	}

	return 0, errs.At("leb128", int64(start), errs.ErrLebOverflow)
}

// ReadUleb128P1 reads a uleb128p1 value: an unsigned LEB128 followed by an
// implicit "subtract one", so the encoded value 0 decodes to -1 ("none").
func ReadUleb128P1(c *cursor.Cursor) (int64, error) {
	v, err := ReadUleb128(c)
	if err != nil {
		return 0, err
	}

	return int64(v) - 1, nil
}

// AppendUleb128 appends the minimal-length unsigned LEB128 encoding of v to buf.
//
// Used by round-trip tests (spec.md §8 property 6); the parser itself never
// needs to encode.
func AppendUleb128(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7

		if v != 0 {
			buf = append(buf, b|0x80)

			continue
		}

		return append(buf, b)
	}
}

// AppendSleb128 appends the minimal-length signed LEB128 encoding of v to buf.
func AppendSleb128(buf []byte, v int64) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7

		signBitSet := b&0x40 != 0
		done := (v == 0 && !signBitSet) || (v == -1 && signBitSet)

		if done {
			return append(buf, b)
		}

		buf = append(buf, b|0x80)
	}
}
