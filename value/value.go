// Package value implements the recursive decoder for DEX's self-describing
// encoded_value / encoded_array / encoded_annotation sub-language (spec.md
// §4.7): the C7 component. Every constant pool entry, annotation payload,
// and call-site argument list bottoms out in this decoder.
//
// The tag-dispatch shape mirrors the teacher corpus's columnar value
// decoders (internal/encoding's per-type decode functions keyed by a type
// byte), generalized from a fixed type enum to encoded_value's 18-entry
// table and made recursive to express Array/Annotation nesting.
package value

import (
	"math"

	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/errs"
	"github.com/jaqxues/dex-tool/format"
	"github.com/jaqxues/dex-tool/leb128"
)

// Value is the decoded form of one encoded_value. Exactly one field beyond
// Tag is meaningful, selected by Tag; Array and Annotation hold recursively
// decoded children.
type Value struct {
	Tag Tag

	Byte          int8
	Short         int16
	Char          uint16
	Int           int32 // spec.md §9 open question (b): always i32, never i16.
	Long          int64
	Float         float32
	Double        float64
	MethodTypeIdx uint32
	MethodHandleIdx uint32
	StringIdx     uint32
	TypeIdx       uint32
	FieldIdx      uint32
	MethodIdx     uint32
	EnumIdx       uint32
	Array         []Value
	Annotation    Annotation
	Bool          bool
}

// Tag re-exports format.ValueTag under the package the decoder lives in, so
// callers working with decoded Values don't need to also import format.
type Tag = format.ValueTag

// AnnotationElement is one {name_idx, value} pair of an encoded_annotation.
type AnnotationElement struct {
	NameIdx uint64
	Value   Value
}

// Annotation is a decoded encoded_annotation: a type index plus its
// name/value element list (spec.md §4.7).
type Annotation struct {
	TypeIdx  uint64
	Elements []AnnotationElement
}

// Decoder decodes encoded_value trees with a bounded recursion depth.
//
// spec.md §4.7 leaves the decoder itself unbounded and pushes the depth cap
// to the caller; this type is that caller-supplied bound, threaded through
// every recursive call instead of carried as package-level state so
// multiple decodes (possibly with different caps) can run concurrently over
// clones of the same cursor (spec.md §5).
type Decoder struct {
	MaxDepth int
}

// NewDecoder constructs a Decoder with the given maximum recursion depth.
// A non-positive maxDepth disables the cap (spec.md does not recommend
// this; SPEC_FULL.md's dex.Options always supplies a positive default).
func NewDecoder(maxDepth int) Decoder {
	return Decoder{MaxDepth: maxDepth}
}

// DecodeValue reads one encoded_value at the cursor's current position.
func (d Decoder) DecodeValue(cur *cursor.Cursor) (Value, error) {
	return d.decodeValue(cur, 0)
}

func (d Decoder) decodeValue(cur *cursor.Cursor, depth int) (Value, error) {
	if d.MaxDepth > 0 && depth > d.MaxDepth {
		return Value{}, errs.At("encoded_value", int64(cur.Position()), errs.ErrEncodedValueDepth)
	}

	start := cur.Position()

	prefix, err := cur.ReadU8()
	if err != nil {
		return Value{}, errs.At("encoded_value", int64(start), err)
	}

	tag := format.ValueTag(prefix & 0x1F)
	arg := int(prefix >> 5)

	maxArg := format.MaxArgForTag(tag)
	if maxArg < 0 {
		return Value{}, errs.At("encoded_value", int64(start), errs.ErrUnknownEncodedValueTag)
	}

	if arg > maxArg {
		return Value{}, errs.At("encoded_value", int64(start), errs.ErrValueArgOutOfRange)
	}

	switch tag {
	case format.ValueByte:
		b, err := cur.ReadU8()
		if err != nil {
			return Value{}, errs.At("encoded_value", int64(start), err)
		}

		return Value{Tag: tag, Byte: int8(b)}, nil

	case format.ValueShort:
		v, err := readSigned(cur, arg+1)
		if err != nil {
			return Value{}, errs.At("encoded_value", int64(start), err)
		}

		return Value{Tag: tag, Short: int16(v)}, nil

	case format.ValueChar:
		v, err := readUnsigned(cur, arg+1)
		if err != nil {
			return Value{}, errs.At("encoded_value", int64(start), err)
		}

		return Value{Tag: tag, Char: uint16(v)}, nil

	case format.ValueInt:
		v, err := readSigned(cur, arg+1)
		if err != nil {
			return Value{}, errs.At("encoded_value", int64(start), err)
		}

		return Value{Tag: tag, Int: int32(v)}, nil

	case format.ValueLong:
		v, err := readSigned(cur, arg+1)
		if err != nil {
			return Value{}, errs.At("encoded_value", int64(start), err)
		}

		return Value{Tag: tag, Long: v}, nil

	case format.ValueFloat:
		v, err := readRightExtended(cur, arg+1, 4)
		if err != nil {
			return Value{}, errs.At("encoded_value", int64(start), err)
		}

		return Value{Tag: tag, Float: math.Float32frombits(uint32(v))}, nil

	case format.ValueDouble:
		v, err := readRightExtended(cur, arg+1, 8)
		if err != nil {
			return Value{}, errs.At("encoded_value", int64(start), err)
		}

		return Value{Tag: tag, Double: math.Float64frombits(v)}, nil

	case format.ValueMethodType:
		v, err := readUnsigned(cur, arg+1)
		if err != nil {
			return Value{}, errs.At("encoded_value", int64(start), err)
		}

		return Value{Tag: tag, MethodTypeIdx: uint32(v)}, nil

	case format.ValueMethodHandle:
		v, err := readUnsigned(cur, arg+1)
		if err != nil {
			return Value{}, errs.At("encoded_value", int64(start), err)
		}

		return Value{Tag: tag, MethodHandleIdx: uint32(v)}, nil

	case format.ValueString:
		v, err := readUnsigned(cur, arg+1)
		if err != nil {
			return Value{}, errs.At("encoded_value", int64(start), err)
		}

		return Value{Tag: tag, StringIdx: uint32(v)}, nil

	case format.ValueType:
		v, err := readUnsigned(cur, arg+1)
		if err != nil {
			return Value{}, errs.At("encoded_value", int64(start), err)
		}

		return Value{Tag: tag, TypeIdx: uint32(v)}, nil

	case format.ValueField:
		v, err := readUnsigned(cur, arg+1)
		if err != nil {
			return Value{}, errs.At("encoded_value", int64(start), err)
		}

		return Value{Tag: tag, FieldIdx: uint32(v)}, nil

	case format.ValueMethod:
		v, err := readUnsigned(cur, arg+1)
		if err != nil {
			return Value{}, errs.At("encoded_value", int64(start), err)
		}

		return Value{Tag: tag, MethodIdx: uint32(v)}, nil

	case format.ValueEnum:
		v, err := readUnsigned(cur, arg+1)
		if err != nil {
			return Value{}, errs.At("encoded_value", int64(start), err)
		}

		return Value{Tag: tag, EnumIdx: uint32(v)}, nil

	case format.ValueArray:
		arr, err := d.decodeArray(cur, depth+1)
		if err != nil {
			return Value{}, err
		}

		return Value{Tag: tag, Array: arr}, nil

	case format.ValueAnnotation:
		ann, err := d.decodeAnnotation(cur, depth+1)
		if err != nil {
			return Value{}, err
		}

		return Value{Tag: tag, Annotation: ann}, nil

	case format.ValueNull:
		return Value{Tag: tag}, nil

	case format.ValueBoolean:
		return Value{Tag: tag, Bool: arg != 0}, nil

	default:
		return Value{}, errs.At("encoded_value", int64(start), errs.ErrUnknownEncodedValueTag)
	}
}

// DecodeArray reads an encoded_array (uleb128 size + that many encoded
// values) at the cursor's current position.
func (d Decoder) DecodeArray(cur *cursor.Cursor) ([]Value, error) {
	return d.decodeArray(cur, 0)
}

func (d Decoder) decodeArray(cur *cursor.Cursor, depth int) ([]Value, error) {
	if d.MaxDepth > 0 && depth > d.MaxDepth {
		return nil, errs.At("encoded_array", int64(cur.Position()), errs.ErrEncodedValueDepth)
	}

	start := cur.Position()

	size, err := leb128.ReadUleb128(cur)
	if err != nil {
		return nil, errs.At("encoded_array", int64(start), err)
	}

	out := make([]Value, size)

	for i := range out {
		v, err := d.decodeValue(cur, depth+1)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

// DecodeAnnotation reads an encoded_annotation at the cursor's current
// position.
func (d Decoder) DecodeAnnotation(cur *cursor.Cursor) (Annotation, error) {
	return d.decodeAnnotation(cur, 0)
}

func (d Decoder) decodeAnnotation(cur *cursor.Cursor, depth int) (Annotation, error) {
	if d.MaxDepth > 0 && depth > d.MaxDepth {
		return Annotation{}, errs.At("encoded_annotation", int64(cur.Position()), errs.ErrEncodedValueDepth)
	}

	start := cur.Position()

	typeIdx, err := leb128.ReadUleb128(cur)
	if err != nil {
		return Annotation{}, errs.At("encoded_annotation", int64(start), err)
	}

	size, err := leb128.ReadUleb128(cur)
	if err != nil {
		return Annotation{}, errs.At("encoded_annotation", int64(start), err)
	}

	ann := Annotation{TypeIdx: typeIdx, Elements: make([]AnnotationElement, size)}

	for i := range ann.Elements {
		nameIdx, err := leb128.ReadUleb128(cur)
		if err != nil {
			return Annotation{}, errs.At("encoded_annotation", int64(start), err)
		}

		v, err := d.decodeValue(cur, depth+1)
		if err != nil {
			return Annotation{}, err
		}

		ann.Elements[i] = AnnotationElement{NameIdx: nameIdx, Value: v}
	}

	return ann, nil
}

// ValidateCallSitePrefix checks the spec.md §9 redesign requirement for
// call_site_item: the first three elements of its encoded_array must be
// MethodHandle, String, MethodType, in that order, with at least that many
// elements present.
func ValidateCallSitePrefix(arr []Value) error {
	if len(arr) < 3 {
		return errs.ErrCallSitePrefix
	}

	want := [3]format.ValueTag{format.ValueMethodHandle, format.ValueString, format.ValueMethodType}
	for i, tag := range want {
		if arr[i].Tag != tag {
			return errs.ErrCallSitePrefix
		}
	}

	return nil
}

// readUnsigned reads n bytes and zero-extends them to a uint64, little-endian.
func readUnsigned(cur *cursor.Cursor, n int) (uint64, error) {
	b, err := cur.ReadBytes(n)
	if err != nil {
		return 0, err
	}

	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}

	return v, nil
}

// readSigned reads n bytes, little-endian, sign-extending from bit 7 of the
// most significant byte (spec.md §4.7 "Sign extension for integers").
func readSigned(cur *cursor.Cursor, n int) (int64, error) {
	b, err := cur.ReadBytes(n)
	if err != nil {
		return 0, err
	}

	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}

	if n < 8 && b[n-1]&0x80 != 0 {
		v |= ^uint64(0) << (uint(n) * 8)
	}

	return int64(v), nil
}

// readRightExtended reads n bytes and places them as the most significant
// bytes of a totalBytes-byte little-endian word, zero-filling the low bytes
// (spec.md §4.7 "Float right-extension").
func readRightExtended(cur *cursor.Cursor, n, totalBytes int) (uint64, error) {
	b, err := cur.ReadBytes(n)
	if err != nil {
		return 0, err
	}

	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}

	return v << (uint(totalBytes-n) * 8), nil
}
