package image

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/format"
)

// fixtureBuilder assembles a complete, self-consistent DEX byte image by
// appending sections in dependency order (code_item before class_data_item
// so the latter's code_off can be emitted as a uleb128 without a two-pass
// patch) and back-patching forward references once every offset is known.
type fixtureBuilder struct {
	buf []byte
}

func (b *fixtureBuilder) pos() uint32 { return uint32(len(b.buf)) }

func (b *fixtureBuilder) reserve(n int) int {
	start := len(b.buf)
	b.buf = append(b.buf, make([]byte, n)...)

	return start
}

func (b *fixtureBuilder) u16(v uint16) { b.buf = append(b.buf, byte(v), byte(v>>8)) }

func (b *fixtureBuilder) u32(v uint32) {
	b.buf = append(b.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (b *fixtureBuilder) u8(v uint8) { b.buf = append(b.buf, v) }

func (b *fixtureBuilder) bytes(bs []byte) { b.buf = append(b.buf, bs...) }

func (b *fixtureBuilder) uleb128(v uint64) {
	for {
		c := byte(v & 0x7f)
		v >>= 7

		if v != 0 {
			c |= 0x80
		}

		b.buf = append(b.buf, c)

		if v == 0 {
			return
		}
	}
}

func (b *fixtureBuilder) align(n int) {
	for len(b.buf)%n != 0 {
		b.buf = append(b.buf, 0)
	}
}

func (b *fixtureBuilder) patchU32(at int, v uint32) {
	b.buf[at] = byte(v)
	b.buf[at+1] = byte(v >> 8)
	b.buf[at+2] = byte(v >> 16)
	b.buf[at+3] = byte(v >> 24)
}

type mapEntry struct {
	typ    format.MapType
	offset uint32
	size   uint32
}

// buildFixture assembles one class with a direct method, a code_item, a
// method_handle_item, and a call_site referencing it, exercising every
// resolver in parser.run beyond the header/map/fixed-table plumbing
// dex_test.go's emptyImage already covers.
func buildFixture(t *testing.T) []byte {
	t.Helper()

	b := &fixtureBuilder{}

	headerStart := b.reserve(int(format.HeaderSize))
	require.Zero(t, headerStart)

	stringIDsAt := b.reserve(4)
	typeIDsAt := b.reserve(4)
	classDefsAt := b.reserve(32)

	methodHandleOff := b.pos()
	b.u16(1) // type: arbitrary non-zero handle kind
	b.u16(0) // reserved
	b.u16(0) // field_or_method_id
	b.u16(0) // reserved

	callSiteIDsAt := b.reserve(4)

	b.align(4)

	codeItemOff := b.pos()
	b.u16(1) // registers_size
	b.u16(0) // ins_size
	b.u16(1) // outs_size
	b.u16(0) // tries_size
	b.u32(0) // debug_info_off
	b.u32(1) // insns_size
	b.u16(0) // insns[0]: 0x0000 (nop), unmodeled beyond the raw unit

	classDataOff := b.pos()
	b.uleb128(0) // static_fields_size
	b.uleb128(0) // instance_fields_size
	b.uleb128(1) // direct_methods_size
	b.uleb128(0) // virtual_methods_size
	b.uleb128(0) // method_idx_diff
	b.uleb128(0x9) // access_flags: public|static
	b.uleb128(uint64(codeItemOff))

	callSiteItemOff := b.pos()
	b.uleb128(3) // encoded_array size
	b.u8(0x16)   // MethodHandle, value_arg 0
	b.u8(0)
	b.u8(0x17) // String, value_arg 0
	b.u8(0)
	b.u8(0x15) // MethodType, value_arg 0
	b.u8(0)

	stringDataOff := b.pos()
	name := []byte("Lcom/example/Foo;")
	b.uleb128(uint64(len(name)))
	b.bytes(name)
	b.u8(0)

	b.patchU32(stringIDsAt, stringDataOff)
	b.patchU32(typeIDsAt, 0)
	b.patchU32(callSiteIDsAt, callSiteItemOff)

	classIdx := uint32(0)
	accessFlags := uint32(0x1)
	superclassIdx := format.NoIndex
	interfacesOff := uint32(0)
	sourceFileIdx := format.NoIndex
	annotationsOff := uint32(0)
	staticValuesOff := uint32(0)

	for i, v := range []uint32{
		classIdx, accessFlags, superclassIdx, interfacesOff,
		sourceFileIdx, annotationsOff, classDataOff, staticValuesOff,
	} {
		b.patchU32(classDefsAt+i*4, v)
	}

	entries := []mapEntry{
		{format.TypeStringIDItem, uint32(stringIDsAt), 1},
		{format.TypeTypeIDItem, uint32(typeIDsAt), 1},
		{format.TypeClassDefItem, uint32(classDefsAt), 1},
		{format.TypeMethodHandleItem, methodHandleOff, 1},
		{format.TypeCallSiteIDItem, uint32(callSiteIDsAt), 1},
		{format.TypeCodeItem, codeItemOff, 1},
		{format.TypeClassDataItem, classDataOff, 1},
		{format.TypeStringDataItem, stringDataOff, 1},
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].offset < entries[j].offset })

	mapOff := b.pos()
	b.u32(uint32(len(entries)))

	for _, e := range entries {
		b.u16(uint16(e.typ))
		b.u16(0)
		b.u32(e.size)
		b.u32(e.offset)
	}

	fileSize := b.pos()

	copy(b.buf[0:4], []byte{0x64, 0x65, 0x78, 0x0a})
	copy(b.buf[4:7], "035")
	b.buf[7] = 0x00

	b.patchU32(0x20, fileSize)
	b.patchU32(0x24, format.HeaderSize)
	b.patchU32(0x28, 0x12345678)
	b.patchU32(0x34, mapOff)
	b.patchU32(0x38, 1) // string_ids_size
	b.patchU32(0x3C, uint32(stringIDsAt))
	b.patchU32(0x40, 1) // type_ids_size
	b.patchU32(0x44, uint32(typeIDsAt))
	b.patchU32(0x60, 1) // class_defs_size
	b.patchU32(0x64, uint32(classDefsAt))

	return b.buf
}

func TestParse_FullFixture(t *testing.T) {
	data := buildFixture(t)

	img, err := Parse(context.Background(), data, Config{
		Align:         cursor.Lenient,
		MaxValueDepth: 32,
	})
	require.NoError(t, err)

	require.Len(t, img.ClassDefs, 1)
	require.Equal(t, "Lcom/example/Foo;", img.TypeNameAt(img.ClassDefs[0].ClassIdx))

	cd, ok := img.ClassData[img.ClassDefs[0].ClassDataOff]
	require.True(t, ok)
	require.Len(t, cd.DirectMethods, 1)

	codeOff := uint32(cd.DirectMethods[0].CodeOff)
	code, ok := img.CodeItems[codeOff]
	require.True(t, ok)
	require.Equal(t, uint16(1), code.RegistersSize)

	require.Len(t, img.MethodHandles, 1)
	require.Equal(t, uint16(1), img.MethodHandles[0].Type)

	require.Len(t, img.CallSiteIDs, 1)
	arr, ok := img.CallSites[img.CallSiteIDs[0]]
	require.True(t, ok)
	require.Len(t, arr, 3)
	require.Equal(t, format.ValueMethodHandle, arr[0].Tag)
	require.Equal(t, format.ValueString, arr[1].Tag)
	require.Equal(t, format.ValueMethodType, arr[2].Tag)

	require.Equal(t, 1, img.Stats.ItemCounts[format.TypeStringIDItem])
	require.NotEmpty(t, img.Stats.ItemCounts)
	require.Greater(t, img.Stats.BytesConsumed, int64(0))
	require.LessOrEqual(t, img.Stats.BytesConsumed, int64(len(data)))
}

func TestParse_ContextCancelledMidWalk(t *testing.T) {
	data := buildFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Parse(ctx, data, Config{MaxValueDepth: 32})
	require.Error(t, err)
}
