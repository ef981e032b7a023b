// Package cursor provides a positioned view over a DEX byte image: the C1
// component of the decoder (spec.md §4.1).
//
// A Cursor is a value-oriented analogue of the teacher corpus's
// pool.ByteBuffer, but for reading instead of writing: it tracks a read
// position over a shared, immutable buffer and exposes fixed-width
// little-endian primitives, borrowed-slice reads, seeking, and alignment.
// Because the buffer is immutable and the cursor's state is just an
// integer offset, a Cursor is cheap to copy by value, so clones of the same
// cursor can read independent offsets without sharing state (spec.md §5).
package cursor

import (
	"github.com/jaqxues/dex-tool/endian"
	"github.com/jaqxues/dex-tool/errs"
)

// AlignMode controls how Cursor.Align handles non-zero padding bytes.
type AlignMode int

const (
	// Lenient skips padding bytes without inspecting their value.
	Lenient AlignMode = iota
	// Strict requires padding bytes to be zero, failing with
	// ErrAlignmentViolation otherwise.
	Strict
)

// Cursor is a positioned, read-only view over data.
type Cursor struct {
	data   []byte
	pos    int
	engine endian.EndianEngine
	align  AlignMode
}

// New creates a Cursor over data starting at position 0.
func New(data []byte, engine endian.EndianEngine, align AlignMode) *Cursor {
	return &Cursor{data: data, engine: engine, align: align}
}

// Clone returns an independent copy of the cursor positioned at the same
// offset, sharing the underlying buffer, so reads at independent offsets can
// proceed on separate cursors without synchronization (spec.md §5). The
// image package reads the fixed tables sequentially on a single cursor.
func (c *Cursor) Clone() *Cursor {
	clone := *c

	return &clone
}

// Position returns the current absolute byte offset.
func (c *Cursor) Position() int { return c.pos }

// Len returns the total length of the underlying buffer.
func (c *Cursor) Len() int { return len(c.data) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.data) - c.pos }

// Engine returns the endian engine the cursor was constructed with.
func (c *Cursor) Engine() endian.EndianEngine { return c.engine }

// Seek repositions the cursor to an absolute offset.
func (c *Cursor) Seek(offset int) error {
	if offset < 0 || offset > len(c.data) {
		return errs.At("", int64(offset), errs.ErrOffsetOutOfRange)
	}

	c.pos = offset

	return nil
}

func (c *Cursor) need(n int) error {
	if n < 0 || c.pos+n > len(c.data) {
		return errs.At("", int64(c.pos), errs.ErrTruncated)
	}

	return nil
}

// ReadU8 reads a single byte and advances the cursor.
func (c *Cursor) ReadU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}

	v := c.data[c.pos]
	c.pos++

	return v, nil
}

// ReadU16 reads a little-endian uint16 and advances the cursor.
func (c *Cursor) ReadU16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}

	v := c.engine.Uint16(c.data[c.pos : c.pos+2])
	c.pos += 2

	return v, nil
}

// ReadU32 reads a little-endian uint32 and advances the cursor.
func (c *Cursor) ReadU32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}

	v := c.engine.Uint32(c.data[c.pos : c.pos+4])
	c.pos += 4

	return v, nil
}

// ReadU64 reads a little-endian uint64 and advances the cursor.
func (c *Cursor) ReadU64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}

	v := c.engine.Uint64(c.data[c.pos : c.pos+8])
	c.pos += 8

	return v, nil
}

// ReadBytes returns a slice of the next n bytes, borrowed from the
// underlying buffer, and advances the cursor. The caller must not retain
// the slice past the buffer's lifetime or mutate it.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}

	b := c.data[c.pos : c.pos+n]
	c.pos += n

	return b, nil
}

// PeekByte returns the next byte without advancing the cursor.
func (c *Cursor) PeekByte() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}

	return c.data[c.pos], nil
}

// Align advances the cursor so Position() % boundary == 0.
//
// In Strict mode every padding byte it skips must be zero; a non-zero
// padding byte fails with ErrAlignmentViolation. In Lenient mode padding
// bytes are skipped unconditionally. spec.md §4.1 leaves the choice to the
// implementer; the dex package exposes Strict as dex.WithStrictAlignment.
func (c *Cursor) Align(boundary int) error {
	rem := c.pos % boundary
	if rem == 0 {
		return nil
	}

	pad := boundary - rem
	if err := c.need(pad); err != nil {
		return err
	}

	if c.align == Strict {
		for i := 0; i < pad; i++ {
			if c.data[c.pos+i] != 0 {
				return errs.At("", int64(c.pos+i), errs.ErrAlignmentViolation)
			}
		}
	}

	c.pos += pad

	return nil
}

// Bytes returns the entire underlying buffer. Callers must treat it as
// read-only.
func (c *Cursor) Bytes() []byte { return c.data }
