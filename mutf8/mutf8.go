// Package mutf8 decodes DEX's modified-UTF-8 string encoding (spec.md
// §4.3, §9): a uleb128-prefixed UTF-16 code-unit count followed by a
// zero-terminated byte stream where U+0000 is encoded as the two bytes
// C0 80 so the terminator is unambiguous.
//
// The byte-group decode loop is grounded directly in the original
// implementation's Mutf8 routine (one byte read at a time, dispatched on
// the lead byte's high bits), translated from a hand-rolled reader loop
// into idiomatic Go over a cursor.Cursor, with the code-unit scratch slice
// sourced from internal/pool instead of a fresh allocation per string.
package mutf8

import (
	"unicode/utf16"

	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/errs"
	"github.com/jaqxues/dex-tool/internal/pool"
)

// Result is the outcome of decoding one MUTF-8 string.
type Result struct {
	// Text is the lossily UTF-8 encoded code-point sequence: surrogate
	// pairs are reassembled, lone surrogates become U+FFFD.
	Text string
	// Units is the raw UTF-16 code-unit sequence before surrogate-pair
	// reassembly, preserved per spec.md §9 open question (c) so a caller
	// needing strict fidelity can inspect lone surrogates directly.
	Units []uint16
	// LengthMismatch is true when the number of code units actually
	// decoded differs from the uleb128-declared count (spec.md §4.3: a
	// soft assertion, not a hard failure).
	LengthMismatch bool
}

// Decode reads a zero-terminated modified-UTF-8 byte stream from cur,
// starting at the cursor's current position, and decodes it into a Result.
//
// declared is the UTF-16 code-unit count read from the string_data_item's
// uleb128 size prefix; it is used only as a capacity hint and for the
// length-mismatch warning, never to bound the read — decoding always runs
// to the next 0x00 terminator, per spec.md §4.3.
func Decode(cur *cursor.Cursor, declared int) (Result, error) {
	if declared < 0 {
		declared = 0
	}

	hint := declared
	if hint > 1<<16 {
		hint = 1 << 16 // guard against a hostile declared count inflating the pool request
	}

	scratch, cleanup := pool.GetUint16Slice(hint)
	defer cleanup()

	units := scratch[:0]
	start := cur.Position()

	for {
		a, err := cur.ReadU8()
		if err != nil {
			return Result{}, errs.At("mutf8", int64(start), err)
		}

		if a == 0 {
			break
		}

		switch {
		case a < 0x80:
			units = append(units, uint16(a))

		case a&0xE0 == 0xC0:
			b, err := cur.ReadU8()
			if err != nil {
				return Result{}, errs.At("mutf8", int64(start), err)
			}

			if b&0xC0 != 0x80 {
				return Result{}, errs.At("mutf8", int64(start), errs.NewMutf8Error(errs.Mutf8SecondByte))
			}

			units = append(units, (uint16(a&0x1F)<<6)|uint16(b&0x3F))

		case a&0xF0 == 0xE0:
			b, err := cur.ReadU8()
			if err != nil {
				return Result{}, errs.At("mutf8", int64(start), err)
			}

			c2, err := cur.ReadU8()
			if err != nil {
				return Result{}, errs.At("mutf8", int64(start), err)
			}

			if b&0xC0 != 0x80 || c2&0xC0 != 0x80 {
				return Result{}, errs.At("mutf8", int64(start), errs.NewMutf8Error(errs.Mutf8ThirdByte))
			}

			units = append(units, (uint16(a&0x0F)<<12)|(uint16(b&0x3F)<<6)|uint16(c2&0x3F))

		default:
			return Result{}, errs.At("mutf8", int64(start), errs.NewMutf8Error(errs.Mutf8LeadByte))
		}
	}

	out := Result{
		Text:           string(utf16.Decode(units)),
		Units:          append([]uint16(nil), units...),
		LengthMismatch: len(units) != declared,
	}

	return out, nil
}
