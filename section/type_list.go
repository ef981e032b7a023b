package section

import (
	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/errs"
)

// ParseTypeList reads a type_list item at the cursor's current position: a
// u32 size followed by that many u16 type indices, 4-byte aligned overall
// with two trailing padding bytes if size is odd (spec.md §4.6.1).
//
// Callers must Align(4) the cursor to the item's start themselves; the
// type_list's own trailing padding is consumed here since it is this item's
// internal layout, not inter-item spacing.
func ParseTypeList(cur *cursor.Cursor) ([]uint16, error) {
	start := cur.Position()

	size, err := cur.ReadU32()
	if err != nil {
		return nil, errs.At("type_list", int64(start), err)
	}

	out := make([]uint16, size)

	for i := range out {
		v, err := cur.ReadU16()
		if err != nil {
			return nil, errs.At("type_list", int64(start), err)
		}

		out[i] = v
	}

	if size%2 == 1 {
		if _, err := cur.ReadBytes(2); err != nil {
			return nil, errs.At("type_list", int64(start), err)
		}
	}

	return out, nil
}
