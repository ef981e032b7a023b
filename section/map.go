package section

import (
	"sort"

	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/errs"
	"github.com/jaqxues/dex-tool/format"
)

// MapItem is one entry of the map_list section (spec.md §3): the kind,
// count, and starting offset of every item kind present in the image.
type MapItem struct {
	Type   format.MapType
	Size   uint32
	Offset uint32
}

// ParseMapList seeks cur to mapOff, reads the u32 entry count, then that
// many MapItem records (spec.md §4.4 step 4).
//
// The returned slice is in on-disk order; spec.md §3 requires entries be
// sorted by Offset, which ValidateMapOrder checks separately so a caller
// can choose whether a violation is fatal.
func ParseMapList(cur *cursor.Cursor, mapOff uint32) ([]MapItem, error) {
	if err := cur.Seek(int(mapOff)); err != nil {
		return nil, errs.At("map_list", int64(mapOff), err)
	}

	start := cur.Position()

	count, err := cur.ReadU32()
	if err != nil {
		return nil, errs.At("map_list", int64(start), err)
	}

	items := make([]MapItem, count)

	for i := range items {
		itemStart := cur.Position()

		typ, err := cur.ReadU16()
		if err != nil {
			return nil, errs.At("map_list", int64(itemStart), err)
		}

		if _, err := cur.ReadU16(); err != nil { // unused
			return nil, errs.At("map_list", int64(itemStart), err)
		}

		size, err := cur.ReadU32()
		if err != nil {
			return nil, errs.At("map_list", int64(itemStart), err)
		}

		offset, err := cur.ReadU32()
		if err != nil {
			return nil, errs.At("map_list", int64(itemStart), err)
		}

		items[i] = MapItem{Type: format.MapType(typ), Size: size, Offset: offset}
	}

	return items, nil
}

// FindMapItem returns the first MapItem of the given type, and whether one
// was present. Map type codes other than TypeHeaderItem occur at most once
// per spec.md §3, so "first" is equivalent to "the".
func FindMapItem(items []MapItem, typ format.MapType) (MapItem, bool) {
	for _, it := range items {
		if it.Type == typ {
			return it, true
		}
	}

	return MapItem{}, false
}

// ValidateMapOrder checks the spec.md §3 invariant that map entries are
// sorted by, and have monotonically increasing, Offset.
func ValidateMapOrder(items []MapItem) error {
	if !sort.SliceIsSorted(items, func(i, j int) bool { return items[i].Offset < items[j].Offset }) {
		return errs.ErrMapHeaderMismatch
	}

	return nil
}

// CheckAgainstHeader validates that a fixed-table map entry's size agrees
// with the header's mirrored size field, per spec.md §4.8: "disagreement is
// MapHeaderMismatch".
func CheckAgainstHeader(items []MapItem, typ format.MapType, headerSize uint32, headerOff uint32) error {
	item, ok := FindMapItem(items, typ)
	if !ok {
		if headerSize == 0 {
			return nil
		}

		return errs.ErrMapHeaderMismatch
	}

	if item.Size != headerSize || item.Offset != headerOff {
		return errs.At(typ.String(), int64(item.Offset), errs.ErrMapHeaderMismatch)
	}

	return nil
}
