// Package errs defines the error taxonomy shared by every dex-tool package.
//
// Every fault path in the parser returns one of the sentinel errors defined
// here, wrapped in a DexError that records where in the byte stream and in
// which section the fault was detected. Callers use errors.Is against the
// sentinels and errors.As against DexError to recover the location.
package errs

import (
	"errors"
	"fmt"
)

// Structural errors: the container's fixed framing does not hold together.
var (
	ErrBadMagic          = errors.New("dex: bad magic")
	ErrUnsupportedVersion = errors.New("dex: unsupported version")
	ErrBadEndianTag      = errors.New("dex: bad endian tag")
	ErrHeaderSizeMismatch = errors.New("dex: header_size field does not match expected header size")
	ErrMapHeaderMismatch = errors.New("dex: header table size disagrees with map entry size")
)

// Bounds errors: an offset or length reaches outside the buffer.
var (
	ErrTruncated           = errors.New("dex: truncated input")
	ErrOffsetOutOfRange    = errors.New("dex: offset out of range")
	ErrSectionOverflow     = errors.New("dex: section overflows buffer")
	ErrAlignmentViolation  = errors.New("dex: alignment padding was non-zero")
)

// Encoding errors: a variable-width primitive could not be decoded.
var (
	ErrLebOverflow   = errors.New("dex: leb128 value exceeds 64 bits")
	ErrBadMutf8       = errors.New("dex: invalid modified-UTF-8 byte sequence")
	ErrUtf16Invalid  = errors.New("dex: invalid UTF-16 code unit sequence")
)

// Semantic errors: the bytes were well-formed but violate a DEX-level rule.
var (
	ErrUnknownMapType       = errors.New("dex: unknown map item type code")
	ErrUnknownEncodedValueTag = errors.New("dex: unknown encoded_value tag")
	ErrValueArgOutOfRange   = errors.New("dex: value_arg out of range for tag")
	ErrEncodedValueDepth    = errors.New("dex: encoded_value recursion depth exceeded")
	ErrCallSitePrefix       = errors.New("dex: call_site_item prefix must be MethodHandle, String, MethodType")

	// ErrInternal marks a recovered panic inside the parser: a bug, not bad input.
	ErrInternal = errors.New("dex: internal parser error")
)

// Mutf8Kind distinguishes the three ways a modified-UTF-8 byte group can be malformed.
type Mutf8Kind int

const (
	Mutf8LeadByte Mutf8Kind = iota
	Mutf8SecondByte
	Mutf8ThirdByte
)

func (k Mutf8Kind) String() string {
	switch k {
	case Mutf8LeadByte:
		return "LeadByte"
	case Mutf8SecondByte:
		return "SecondByte"
	case Mutf8ThirdByte:
		return "ThirdByte"
	default:
		return "Unknown"
	}
}

// Mutf8Error refines ErrBadMutf8 with which byte in the 1-3 byte group was malformed.
type Mutf8Error struct {
	Kind Mutf8Kind
}

func (e *Mutf8Error) Error() string {
	return fmt.Sprintf("%s: %s", ErrBadMutf8, e.Kind)
}

func (e *Mutf8Error) Unwrap() error { return ErrBadMutf8 }

// NewMutf8Error constructs a Mutf8Error of the given kind.
func NewMutf8Error(kind Mutf8Kind) error { return &Mutf8Error{Kind: kind} }

// DexError wraps a sentinel with the byte offset and section name where it
// was detected, producing a message useful for locating the offending bytes
// in a hex dump.
type DexError struct {
	Err     error
	Offset  int64
	Section string
}

func (e *DexError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("%s (at offset 0x%x)", e.Err, e.Offset)
	}

	return fmt.Sprintf("%s: %s (at offset 0x%x)", e.Section, e.Err, e.Offset)
}

func (e *DexError) Unwrap() error { return e.Err }

// At wraps err with the offset and section it was detected in. Returns nil if err is nil.
func At(section string, offset int64, err error) error {
	if err == nil {
		return nil
	}

	var de *DexError
	if errors.As(err, &de) {
		// Preserve the innermost (earliest-detected) location; only add
		// a section label if the error hasn't been attributed to one yet.
		if de.Section == "" {
			de.Section = section
		}

		return de
	}

	return &DexError{Err: err, Offset: offset, Section: section}
}
