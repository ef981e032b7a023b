package section

import (
	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/errs"
)

// MethodHandleItem is a method_handle_item (spec.md §4.6.9).
type MethodHandleItem struct {
	Type             uint16
	FieldOrMethodID  uint16
}

// ParseMethodHandle reads a method_handle_item at the cursor's current
// position, discarding both reserved u16 fields.
func ParseMethodHandle(cur *cursor.Cursor) (MethodHandleItem, error) {
	start := cur.Position()

	typ, err := cur.ReadU16()
	if err != nil {
		return MethodHandleItem{}, errs.At("method_handle_item", int64(start), err)
	}

	if _, err := cur.ReadU16(); err != nil { // reserved
		return MethodHandleItem{}, errs.At("method_handle_item", int64(start), err)
	}

	fieldOrMethodID, err := cur.ReadU16()
	if err != nil {
		return MethodHandleItem{}, errs.At("method_handle_item", int64(start), err)
	}

	if _, err := cur.ReadU16(); err != nil { // reserved
		return MethodHandleItem{}, errs.At("method_handle_item", int64(start), err)
	}

	return MethodHandleItem{Type: typ, FieldOrMethodID: fieldOrMethodID}, nil
}
