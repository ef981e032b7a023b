package section

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaqxues/dex-tool/errs"
)

func TestParseStringIDs(t *testing.T) {
	data := []byte{
		0x10, 0x00, 0x00, 0x00,
		0x20, 0x00, 0x00, 0x00,
	}

	ids, err := ParseStringIDs(newHeaderCursor(data), 0, 2)
	require.NoError(t, err)
	require.Equal(t, []uint32{0x10, 0x20}, ids)
}

func TestParseStringIDs_Empty(t *testing.T) {
	ids, err := ParseStringIDs(newHeaderCursor(nil), 0, 0)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestParseStringIDs_Overflow(t *testing.T) {
	data := make([]byte, 4)

	_, err := ParseStringIDs(newHeaderCursor(data), 0, 2)
	require.ErrorIs(t, err, errs.ErrSectionOverflow)
}

func TestParseProtoIDs(t *testing.T) {
	data := []byte{
		0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}

	items, err := ParseProtoIDs(newHeaderCursor(data), 0, 1)
	require.NoError(t, err)
	require.Equal(t, ProtoIDItem{ShortyIdx: 1, ReturnTypeIdx: 2, ParametersOff: 0}, items[0])
}

func TestParseFieldIDs(t *testing.T) {
	data := []byte{
		0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x00, 0x00,
	}

	items, err := ParseFieldIDs(newHeaderCursor(data), 0, 1)
	require.NoError(t, err)
	require.Equal(t, FieldIDItem{ClassIdx: 1, TypeIdx: 2, NameIdx: 3}, items[0])
}

func TestParseMethodIDs(t *testing.T) {
	data := []byte{
		0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x00, 0x00,
	}

	items, err := ParseMethodIDs(newHeaderCursor(data), 0, 1)
	require.NoError(t, err)
	require.Equal(t, MethodIDItem{ClassIdx: 1, ProtoIdx: 2, NameIdx: 3}, items[0])
}

func TestParseClassDefs(t *testing.T) {
	data := make([]byte, 32)
	putU32(data, 0, 1)          // class_idx
	putU32(data, 4, 0x10001)    // access_flags
	putU32(data, 8, 0xFFFFFFFF) // superclass_idx: NO_INDEX
	putU32(data, 12, 0)         // interfaces_off
	putU32(data, 16, 0xFFFFFFFF)
	putU32(data, 20, 0)
	putU32(data, 24, 0)
	putU32(data, 28, 0)

	items, err := ParseClassDefs(newHeaderCursor(data), 0, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(1), items[0].ClassIdx)
	require.Equal(t, uint32(0xFFFFFFFF), items[0].SuperclassIdx)
}
