// Package endian provides byte order utilities for binary encoding and
// decoding of a DEX image.
//
// DEX files declare their byte order once, in the header's endian_tag field
// (spec.md §4.4), rather than letting it vary per primitive. This package
// extends Go's standard encoding/binary by combining ByteOrder and
// AppendByteOrder into a single EndianEngine interface, and by resolving
// the header's endian_tag to a concrete engine once at header-parse time.
//
// # Basic usage
//
//	engine, err := endian.ResolveTag(tag)
//	if err != nil {
//	    return err
//	}
//	v := engine.Uint32(data[off : off+4])
//
// # Thread safety
//
// All functions in this package are safe for concurrent use. The returned
// EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"unsafe"

	"github.com/jaqxues/dex-tool/errs"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian from
// the standard library.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// ENDIAN_CONSTANT and REVERSE_ENDIAN_CONSTANT are the two values the
// endian_tag header field may legally take (spec.md §6).
const (
	EndianConstant        uint32 = 0x12345678
	ReverseEndianConstant uint32 = 0x78563412
)

// ResolveTag maps a header endian_tag value to a concrete EndianEngine.
//
// Per spec.md §4.4 item 3, reverse-endian (big-endian) images are a
// REDESIGN FLAG candidate: implementations MAY reject them outright. This
// module rejects them with ErrBadEndianTag rather than guessing at a
// re-read strategy, since a silently-flipped header is indistinguishable
// from a corrupted one without re-validating every subsequent field.
func ResolveTag(tag uint32) (EndianEngine, error) {
	switch tag {
	case EndianConstant:
		return binary.LittleEndian, nil
	case ReverseEndianConstant:
		return nil, errs.ErrBadEndianTag
	default:
		return nil, errs.ErrBadEndianTag
	}
}

// CheckEndianness reports the host's native byte order.
func CheckEndianness() binary.ByteOrder {
	// 0x0100 is 256. For a little-endian system, the LSB (0x00) is first.
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))

	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// SameAsHost reports whether engine matches the host's native byte order,
// i.e. whether a bulk reinterpretation of a []byte as []uint16 would agree
// with decoding element by element through engine. The section readers
// decode the code_item instruction stream element by element and do not
// call it.
func SameAsHost(engine EndianEngine) bool {
	return engine == CheckEndianness()
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}
