package value

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/endian"
	"github.com/jaqxues/dex-tool/errs"
	"github.com/jaqxues/dex-tool/format"
)

func newCursor(data []byte) *cursor.Cursor {
	return cursor.New(data, endian.GetLittleEndianEngine(), cursor.Lenient)
}

// TestDecodeValue_Int_S5 exercises spec.md §8 scenario S5.
func TestDecodeValue_Int_S5(t *testing.T) {
	d := NewDecoder(32)

	v, err := d.DecodeValue(newCursor([]byte{0x24, 0x39, 0x30}))
	require.NoError(t, err)
	require.Equal(t, format.ValueInt, v.Tag)
	require.Equal(t, int32(12345), v.Int)

	v, err = d.DecodeValue(newCursor([]byte{0x64, 0x00, 0x00, 0x80}))
	require.NoError(t, err)
	require.Equal(t, int32(-2147483648), v.Int)
}

// TestDecodeValue_Float_S6 exercises spec.md §8 scenario S6: tag Float
// (0x10) with value_arg 0 so the single payload byte 0x40 is right-extended
// to 00 00 00 40, the IEEE-754 bit pattern for 2.0.
func TestDecodeValue_Float_S6(t *testing.T) {
	d := NewDecoder(32)

	v, err := d.DecodeValue(newCursor([]byte{0x10, 0x40}))
	require.NoError(t, err)
	require.Equal(t, format.ValueFloat, v.Tag)
	require.InDelta(t, 2.0, float64(v.Float), 0)
}

func TestDecodeValue_Double(t *testing.T) {
	d := NewDecoder(32)

	// 4.0 as a double is 0x4010000000000000; its two non-zero bytes (0x10,
	// 0x40, in little-endian order) survive right-extension. tag Double
	// (0x11) with value_arg=1 selects a 2-byte payload.
	v, err := d.DecodeValue(newCursor([]byte{0x31, 0x10, 0x40}))
	require.NoError(t, err)
	require.InDelta(t, 4.0, v.Double, 0)
}

// TestDecodeArray_S7 exercises spec.md §8 scenario S7: an encoded_array of
// two values, Null and Boolean(true).
func TestDecodeArray_S7(t *testing.T) {
	d := NewDecoder(32)

	// Outer encoded_value: tag Array (0x1c, value_arg 0). Array payload:
	// uleb128 size=2, then Null (0x1e) and Boolean(true) (value_type 0x1f,
	// value_arg 1 -> prefix byte 0x3f).
	v, err := d.DecodeValue(newCursor([]byte{0x1C, 0x02, 0x1E, 0x3F}))
	require.NoError(t, err)
	require.Equal(t, format.ValueArray, v.Tag)
	require.Len(t, v.Array, 2)
	require.Equal(t, format.ValueNull, v.Array[0].Tag)
	require.Equal(t, format.ValueBoolean, v.Array[1].Tag)
	require.True(t, v.Array[1].Bool)
}

func TestDecodeValue_BooleanFalse(t *testing.T) {
	d := NewDecoder(32)

	v, err := d.DecodeValue(newCursor([]byte{0x1F}))
	require.NoError(t, err)
	require.False(t, v.Bool)
}

func TestDecodeValue_Short_SignExtension(t *testing.T) {
	d := NewDecoder(32)

	// tag Short (0x02), value_arg=0: single payload byte 0xFF sign-extends to -1.
	v, err := d.DecodeValue(newCursor([]byte{0x02, 0xFF}))
	require.NoError(t, err)
	require.Equal(t, int16(-1), v.Short)
}

func TestDecodeValue_Char_ZeroExtension(t *testing.T) {
	d := NewDecoder(32)

	v, err := d.DecodeValue(newCursor([]byte{0x03, 0xFF}))
	require.NoError(t, err)
	require.Equal(t, uint16(0xFF), v.Char)
}

func TestDecodeValue_StringIndex(t *testing.T) {
	d := NewDecoder(32)

	// tag String (0x17), value_arg=1: 2-byte zero-extended index.
	v, err := d.DecodeValue(newCursor([]byte{0x37, 0x05, 0x00}))
	require.NoError(t, err)
	require.Equal(t, format.ValueString, v.Tag)
	require.Equal(t, uint32(5), v.StringIdx)
}

func TestDecodeValue_UnknownTag(t *testing.T) {
	d := NewDecoder(32)

	_, err := d.DecodeValue(newCursor([]byte{0x05})) // 0x05 is not in the dispatch table
	require.ErrorIs(t, err, errs.ErrUnknownEncodedValueTag)
}

func TestDecodeValue_ValueArgOutOfRange(t *testing.T) {
	d := NewDecoder(32)

	// tag Byte (0x00) requires value_arg == 0; 0x20 sets value_arg=1.
	_, err := d.DecodeValue(newCursor([]byte{0x20, 0x00}))
	require.ErrorIs(t, err, errs.ErrValueArgOutOfRange)
}

func TestDecodeAnnotation(t *testing.T) {
	d := NewDecoder(32)

	// type_idx=1, size=1, element: name_idx=2, value=Boolean(true) (0x3F).
	data := []byte{0x01, 0x01, 0x02, 0x3F}

	ann, err := d.DecodeAnnotation(newCursor(data))
	require.NoError(t, err)
	require.Equal(t, uint64(1), ann.TypeIdx)
	require.Len(t, ann.Elements, 1)
	require.Equal(t, uint64(2), ann.Elements[0].NameIdx)
	require.True(t, ann.Elements[0].Value.Bool)
}

func TestDecodeValue_AnnotationTag(t *testing.T) {
	d := NewDecoder(32)

	// tag Annotation (0x1d), value_arg 0, payload: type_idx=1, size=0.
	v, err := d.DecodeValue(newCursor([]byte{0x1D, 0x01, 0x00}))
	require.NoError(t, err)
	require.Equal(t, format.ValueAnnotation, v.Tag)
	require.Equal(t, uint64(1), v.Annotation.TypeIdx)
	require.Empty(t, v.Annotation.Elements)
}

func TestDecodeValue_DepthExceeded(t *testing.T) {
	d := NewDecoder(1)

	// Array containing an Array: depth 0 -> 1 -> 2, exceeds MaxDepth=1.
	data := []byte{0x1C, 0x01, 0x1C, 0x00}

	_, err := d.DecodeValue(newCursor(data))
	require.ErrorIs(t, err, errs.ErrEncodedValueDepth)
}

func TestDecodeValue_CallSitePrefixValidation(t *testing.T) {
	d := NewDecoder(32)

	arr, err := d.DecodeArray(newCursor([]byte{
		0x03,       // size = 3
		0x16, 0x01, // MethodHandle(1): tag 0x16, value_arg 0, 1-byte idx
		0x17, 0x02, // String(2): tag 0x17, value_arg 0
		0x15, 0x03, // MethodType(3): tag 0x15, value_arg 0
	}))
	require.NoError(t, err)
	require.NoError(t, ValidateCallSitePrefix(arr))
}

func TestValidateCallSitePrefix_WrongOrder(t *testing.T) {
	arr := []Value{{Tag: format.ValueString}, {Tag: format.ValueMethodHandle}, {Tag: format.ValueMethodType}}

	err := ValidateCallSitePrefix(arr)
	require.ErrorIs(t, err, errs.ErrCallSitePrefix)
}

func TestValidateCallSitePrefix_TooShort(t *testing.T) {
	arr := []Value{{Tag: format.ValueMethodHandle}}

	err := ValidateCallSitePrefix(arr)
	require.ErrorIs(t, err, errs.ErrCallSitePrefix)
}
