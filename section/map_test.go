package section

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaqxues/dex-tool/format"
)

func TestParseMapList(t *testing.T) {
	data := make([]byte, 0, 64)
	data = append(data, 0x02, 0x00, 0x00, 0x00) // count = 2

	// entry 0: header_item at offset 0, size 1
	data = append(data, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)
	// entry 1: map_list at offset 0, size 1 (field values don't need to be realistic for this test)
	data = append(data, 0x00, 0x10, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)

	items, err := ParseMapList(newHeaderCursor(data), 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, format.TypeHeaderItem, items[0].Type)
	require.Equal(t, format.TypeMapList, items[1].Type)
}

func TestFindMapItem(t *testing.T) {
	items := []MapItem{
		{Type: format.TypeStringIDItem, Size: 3, Offset: 16},
	}

	item, ok := FindMapItem(items, format.TypeStringIDItem)
	require.True(t, ok)
	require.Equal(t, uint32(3), item.Size)

	_, ok = FindMapItem(items, format.TypeTypeIDItem)
	require.False(t, ok)
}

func TestValidateMapOrder(t *testing.T) {
	sorted := []MapItem{{Offset: 0}, {Offset: 16}, {Offset: 32}}
	require.NoError(t, ValidateMapOrder(sorted))

	unsorted := []MapItem{{Offset: 32}, {Offset: 0}}
	require.Error(t, ValidateMapOrder(unsorted))
}

func TestCheckAgainstHeader(t *testing.T) {
	items := []MapItem{{Type: format.TypeStringIDItem, Size: 3, Offset: 16}}

	require.NoError(t, CheckAgainstHeader(items, format.TypeStringIDItem, 3, 16))
	require.Error(t, CheckAgainstHeader(items, format.TypeStringIDItem, 4, 16))
	require.Error(t, CheckAgainstHeader(items, format.TypeStringIDItem, 3, 20))

	// Absent from the map with a header size of 0 is consistent (empty table).
	require.NoError(t, CheckAgainstHeader(items, format.TypeTypeIDItem, 0, 0))
	require.Error(t, CheckAgainstHeader(items, format.TypeTypeIDItem, 2, 0))
}
