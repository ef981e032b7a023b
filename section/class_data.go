package section

import (
	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/errs"
	"github.com/jaqxues/dex-tool/leb128"
)

// EncodedField is a class_data_item field entry with both the raw
// uleb128-encoded delta and the resolved absolute field_ids index (spec.md
// §4.6.2: "the resolved form is REQUIRED for the downstream to be
// index-addressable").
type EncodedField struct {
	FieldIdxDiff uint64
	FieldIdx     uint64
	AccessFlags  uint64
}

// EncodedMethod is a class_data_item method entry, analogous to EncodedField.
type EncodedMethod struct {
	MethodIdxDiff uint64
	MethodIdx     uint64
	AccessFlags   uint64
	CodeOff       uint64
}

// ClassData is one parsed class_data_item (spec.md §4.6.2).
type ClassData struct {
	StaticFields    []EncodedField
	InstanceFields  []EncodedField
	DirectMethods   []EncodedMethod
	VirtualMethods  []EncodedMethod
}

// ParseClassData reads a class_data_item at the cursor's current position.
func ParseClassData(cur *cursor.Cursor) (ClassData, error) {
	start := cur.Position()

	staticCount, err := leb128.ReadUleb128(cur)
	if err != nil {
		return ClassData{}, errs.At("class_data_item", int64(start), err)
	}

	instanceCount, err := leb128.ReadUleb128(cur)
	if err != nil {
		return ClassData{}, errs.At("class_data_item", int64(start), err)
	}

	directCount, err := leb128.ReadUleb128(cur)
	if err != nil {
		return ClassData{}, errs.At("class_data_item", int64(start), err)
	}

	virtualCount, err := leb128.ReadUleb128(cur)
	if err != nil {
		return ClassData{}, errs.At("class_data_item", int64(start), err)
	}

	var cd ClassData

	cd.StaticFields, err = readEncodedFields(cur, staticCount)
	if err != nil {
		return ClassData{}, err
	}

	cd.InstanceFields, err = readEncodedFields(cur, instanceCount)
	if err != nil {
		return ClassData{}, err
	}

	cd.DirectMethods, err = readEncodedMethods(cur, directCount)
	if err != nil {
		return ClassData{}, err
	}

	cd.VirtualMethods, err = readEncodedMethods(cur, virtualCount)
	if err != nil {
		return ClassData{}, err
	}

	return cd, nil
}

// readEncodedFields decodes count encoded_field entries, resolving each
// entry's absolute index as the running sum of the preceding diffs (spec.md
// §4.6.2 delta semantics).
func readEncodedFields(cur *cursor.Cursor, count uint64) ([]EncodedField, error) {
	out := make([]EncodedField, count)

	var running uint64

	for i := range out {
		start := cur.Position()

		diff, err := leb128.ReadUleb128(cur)
		if err != nil {
			return nil, errs.At("encoded_field", int64(start), err)
		}

		access, err := leb128.ReadUleb128(cur)
		if err != nil {
			return nil, errs.At("encoded_field", int64(start), err)
		}

		running += diff
		out[i] = EncodedField{FieldIdxDiff: diff, FieldIdx: running, AccessFlags: access}
	}

	return out, nil
}

// readEncodedMethods decodes count encoded_method entries analogously to
// readEncodedFields.
func readEncodedMethods(cur *cursor.Cursor, count uint64) ([]EncodedMethod, error) {
	out := make([]EncodedMethod, count)

	var running uint64

	for i := range out {
		start := cur.Position()

		diff, err := leb128.ReadUleb128(cur)
		if err != nil {
			return nil, errs.At("encoded_method", int64(start), err)
		}

		access, err := leb128.ReadUleb128(cur)
		if err != nil {
			return nil, errs.At("encoded_method", int64(start), err)
		}

		codeOff, err := leb128.ReadUleb128(cur)
		if err != nil {
			return nil, errs.At("encoded_method", int64(start), err)
		}

		running += diff
		out[i] = EncodedMethod{MethodIdxDiff: diff, MethodIdx: running, AccessFlags: access, CodeOff: codeOff}
	}

	return out, nil
}
