package section

import (
	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/errs"
)

// ProtoIDItem is one entry of proto_ids (spec.md §3).
type ProtoIDItem struct {
	ShortyIdx      uint32
	ReturnTypeIdx  uint32
	ParametersOff  uint32
}

// FieldIDItem is one entry of field_ids.
type FieldIDItem struct {
	ClassIdx uint16
	TypeIdx  uint16
	NameIdx  uint32
}

// MethodIDItem is one entry of method_ids.
type MethodIDItem struct {
	ClassIdx uint16
	ProtoIdx uint16
	NameIdx  uint32
}

// ClassDefItem is one entry of class_defs.
type ClassDefItem struct {
	ClassIdx        uint32
	AccessFlags     uint32
	SuperclassIdx   uint32 // format.NoIndex if absent
	InterfacesOff   uint32
	SourceFileIdx   uint32 // format.NoIndex if absent
	AnnotationsOff  uint32
	ClassDataOff    uint32
	StaticValuesOff uint32
}

// seekTable positions cur at off and validates that size*stride bytes fit
// within the buffer before the caller reads them, per spec.md §4.5: "(b)
// offset + size * record_stride <= file_length".
func seekTable(cur *cursor.Cursor, off, size uint32, stride int, name string) error {
	if size == 0 {
		return nil
	}

	if int(off) > cur.Len() || int64(off)+int64(size)*int64(stride) > int64(cur.Len()) {
		return errs.At(name, int64(off), errs.ErrSectionOverflow)
	}

	return cur.Seek(int(off))
}

// ParseStringIDs reads string_ids: size entries, each a single u32 offset
// into the data region pointing at a string_data_item.
func ParseStringIDs(cur *cursor.Cursor, off, size uint32) ([]uint32, error) {
	if err := seekTable(cur, off, size, 4, "string_ids"); err != nil {
		return nil, err
	}

	out := make([]uint32, size)

	for i := range out {
		v, err := cur.ReadU32()
		if err != nil {
			return nil, errs.At("string_ids", int64(cur.Position()), err)
		}

		out[i] = v
	}

	return out, nil
}

// ParseTypeIDs reads type_ids: size entries, each a u32 index into
// string_ids.
func ParseTypeIDs(cur *cursor.Cursor, off, size uint32) ([]uint32, error) {
	if err := seekTable(cur, off, size, 4, "type_ids"); err != nil {
		return nil, err
	}

	out := make([]uint32, size)

	for i := range out {
		v, err := cur.ReadU32()
		if err != nil {
			return nil, errs.At("type_ids", int64(cur.Position()), err)
		}

		out[i] = v
	}

	return out, nil
}

// ParseProtoIDs reads proto_ids.
func ParseProtoIDs(cur *cursor.Cursor, off, size uint32) ([]ProtoIDItem, error) {
	if err := seekTable(cur, off, size, 12, "proto_ids"); err != nil {
		return nil, err
	}

	out := make([]ProtoIDItem, size)

	for i := range out {
		start := cur.Position()

		shorty, err := cur.ReadU32()
		if err != nil {
			return nil, errs.At("proto_ids", int64(start), err)
		}

		retType, err := cur.ReadU32()
		if err != nil {
			return nil, errs.At("proto_ids", int64(start), err)
		}

		paramsOff, err := cur.ReadU32()
		if err != nil {
			return nil, errs.At("proto_ids", int64(start), err)
		}

		out[i] = ProtoIDItem{ShortyIdx: shorty, ReturnTypeIdx: retType, ParametersOff: paramsOff}
	}

	return out, nil
}

// ParseFieldIDs reads field_ids.
func ParseFieldIDs(cur *cursor.Cursor, off, size uint32) ([]FieldIDItem, error) {
	if err := seekTable(cur, off, size, 8, "field_ids"); err != nil {
		return nil, err
	}

	out := make([]FieldIDItem, size)

	for i := range out {
		start := cur.Position()

		classIdx, err := cur.ReadU16()
		if err != nil {
			return nil, errs.At("field_ids", int64(start), err)
		}

		typeIdx, err := cur.ReadU16()
		if err != nil {
			return nil, errs.At("field_ids", int64(start), err)
		}

		nameIdx, err := cur.ReadU32()
		if err != nil {
			return nil, errs.At("field_ids", int64(start), err)
		}

		out[i] = FieldIDItem{ClassIdx: classIdx, TypeIdx: typeIdx, NameIdx: nameIdx}
	}

	return out, nil
}

// ParseMethodIDs reads method_ids.
func ParseMethodIDs(cur *cursor.Cursor, off, size uint32) ([]MethodIDItem, error) {
	if err := seekTable(cur, off, size, 8, "method_ids"); err != nil {
		return nil, err
	}

	out := make([]MethodIDItem, size)

	for i := range out {
		start := cur.Position()

		classIdx, err := cur.ReadU16()
		if err != nil {
			return nil, errs.At("method_ids", int64(start), err)
		}

		protoIdx, err := cur.ReadU16()
		if err != nil {
			return nil, errs.At("method_ids", int64(start), err)
		}

		nameIdx, err := cur.ReadU32()
		if err != nil {
			return nil, errs.At("method_ids", int64(start), err)
		}

		out[i] = MethodIDItem{ClassIdx: classIdx, ProtoIdx: protoIdx, NameIdx: nameIdx}
	}

	return out, nil
}

// ParseClassDefs reads class_defs.
func ParseClassDefs(cur *cursor.Cursor, off, size uint32) ([]ClassDefItem, error) {
	if err := seekTable(cur, off, size, 32, "class_defs"); err != nil {
		return nil, err
	}

	out := make([]ClassDefItem, size)

	fieldsOf := func(c *ClassDefItem) []*uint32 {
		return []*uint32{
			&c.ClassIdx, &c.AccessFlags, &c.SuperclassIdx, &c.InterfacesOff,
			&c.SourceFileIdx, &c.AnnotationsOff, &c.ClassDataOff, &c.StaticValuesOff,
		}
	}

	for i := range out {
		start := cur.Position()

		for _, f := range fieldsOf(&out[i]) {
			v, err := cur.ReadU32()
			if err != nil {
				return nil, errs.At("class_defs", int64(start), err)
			}

			*f = v
		}
	}

	return out, nil
}
