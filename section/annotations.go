package section

import (
	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/errs"
	"github.com/jaqxues/dex-tool/format"
)

// FieldAnnotation pairs a field_ids index with its annotation_set_item offset.
type FieldAnnotation struct {
	FieldIdx       uint32
	AnnotationsOff uint32
}

// MethodAnnotation pairs a method_ids index with its annotation_set_item offset.
type MethodAnnotation struct {
	MethodIdx      uint32
	AnnotationsOff uint32
}

// ParameterAnnotation pairs a method_ids index with an
// annotation_set_ref_list offset.
type ParameterAnnotation struct {
	MethodIdx      uint32
	AnnotationsOff uint32
}

// AnnotationsDirectory is a parsed annotations_directory_item (spec.md §4.6.5).
type AnnotationsDirectory struct {
	ClassAnnotationsOff uint32
	Fields              []FieldAnnotation
	Methods             []MethodAnnotation
	Parameters          []ParameterAnnotation
}

// ParseAnnotationsDirectory reads an annotations_directory_item at the
// cursor's current position.
func ParseAnnotationsDirectory(cur *cursor.Cursor) (AnnotationsDirectory, error) {
	start := cur.Position()

	classOff, err := cur.ReadU32()
	if err != nil {
		return AnnotationsDirectory{}, errs.At("annotations_directory_item", int64(start), err)
	}

	fieldsSize, err := cur.ReadU32()
	if err != nil {
		return AnnotationsDirectory{}, errs.At("annotations_directory_item", int64(start), err)
	}

	methodsSize, err := cur.ReadU32()
	if err != nil {
		return AnnotationsDirectory{}, errs.At("annotations_directory_item", int64(start), err)
	}

	paramsSize, err := cur.ReadU32()
	if err != nil {
		return AnnotationsDirectory{}, errs.At("annotations_directory_item", int64(start), err)
	}

	ad := AnnotationsDirectory{
		ClassAnnotationsOff: classOff,
		Fields:              make([]FieldAnnotation, fieldsSize),
		Methods:             make([]MethodAnnotation, methodsSize),
		Parameters:          make([]ParameterAnnotation, paramsSize),
	}

	for i := range ad.Fields {
		idx, off, err := readU32Pair(cur, "annotations_directory_item.fields")
		if err != nil {
			return AnnotationsDirectory{}, err
		}

		ad.Fields[i] = FieldAnnotation{FieldIdx: idx, AnnotationsOff: off}
	}

	for i := range ad.Methods {
		idx, off, err := readU32Pair(cur, "annotations_directory_item.methods")
		if err != nil {
			return AnnotationsDirectory{}, err
		}

		ad.Methods[i] = MethodAnnotation{MethodIdx: idx, AnnotationsOff: off}
	}

	for i := range ad.Parameters {
		idx, off, err := readU32Pair(cur, "annotations_directory_item.parameters")
		if err != nil {
			return AnnotationsDirectory{}, err
		}

		ad.Parameters[i] = ParameterAnnotation{MethodIdx: idx, AnnotationsOff: off}
	}

	return ad, nil
}

func readU32Pair(cur *cursor.Cursor, name string) (uint32, uint32, error) {
	start := cur.Position()

	a, err := cur.ReadU32()
	if err != nil {
		return 0, 0, errs.At(name, int64(start), err)
	}

	b, err := cur.ReadU32()
	if err != nil {
		return 0, 0, errs.At(name, int64(start), err)
	}

	return a, b, nil
}

// ParseAnnotationSet reads an annotation_set_item: a u32 size followed by
// that many u32 annotation_item offsets (spec.md §4.6.6).
func ParseAnnotationSet(cur *cursor.Cursor) ([]uint32, error) {
	return readU32Array(cur, "annotation_set_item")
}

// ParseAnnotationSetRefList reads an annotation_set_ref_list: a u32 size
// followed by that many u32 annotation_set_item offsets (spec.md §4.6.7).
func ParseAnnotationSetRefList(cur *cursor.Cursor) ([]uint32, error) {
	return readU32Array(cur, "annotation_set_ref_list")
}

func readU32Array(cur *cursor.Cursor, name string) ([]uint32, error) {
	start := cur.Position()

	size, err := cur.ReadU32()
	if err != nil {
		return nil, errs.At(name, int64(start), err)
	}

	out := make([]uint32, size)

	for i := range out {
		v, err := cur.ReadU32()
		if err != nil {
			return nil, errs.At(name, int64(start), err)
		}

		out[i] = v
	}

	return out, nil
}

// AnnotationHeader is the visibility byte prefixing an annotation_item; the
// encoded_annotation payload itself is decoded by the value package
// (value.Decoder.DecodeAnnotation), and neither package imports the other
// (spec.md §4.6.8).
type AnnotationHeader struct {
	Visibility format.AnnotationVisibility
}

// ParseAnnotationVisibility reads the single visibility byte at the start
// of an annotation_item, leaving the cursor positioned at the start of the
// following encoded_annotation.
func ParseAnnotationVisibility(cur *cursor.Cursor) (AnnotationHeader, error) {
	start := cur.Position()

	v, err := cur.ReadU8()
	if err != nil {
		return AnnotationHeader{}, errs.At("annotation_item", int64(start), err)
	}

	return AnnotationHeader{Visibility: format.AnnotationVisibility(v)}, nil
}
