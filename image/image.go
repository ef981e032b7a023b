// Package image assembles the per-primitive and per-section readers in
// cursor, leb128, mutf8, section, and value into the single DexImage
// aggregate: the C8 façade component of spec.md §4.8, generalized with the
// ambient warnings/stats surface SPEC_FULL.md §3 adds.
package image

import (
	"github.com/jaqxues/dex-tool/format"
	"github.com/jaqxues/dex-tool/internal/pool"
	"github.com/jaqxues/dex-tool/mutf8"
	"github.com/jaqxues/dex-tool/section"
	"github.com/jaqxues/dex-tool/value"
)

// Warning is a non-fatal condition raised during parsing. The parser raises
// one kind, "mutf8_length_mismatch", for a MUTF-8 declared/actual length
// mismatch; skipped alignment padding is not reported as a Warning.
type Warning struct {
	Kind    string
	Message string
	Offset  int64
}

// ParseStats summarizes a completed parse for observability: how many
// items of each map type were resolved and how many bytes the parse
// touched in total (SPEC_FULL.md §3).
type ParseStats struct {
	ItemCounts map[format.MapType]int
	// BytesConsumed is the highest end offset of any variable-section item
	// decoded during the parse, a proxy for how much of the image was
	// reachable from the map graph. The header, map list and fixed index
	// tables are not counted.
	BytesConsumed int64
}

// Annotation pairs an annotation_item's visibility byte with its decoded
// encoded_annotation payload (spec.md §4.6.8).
type Annotation struct {
	Visibility format.AnnotationVisibility
	Value      value.Annotation
}

// DexImage is the immutable, fully-resolved result of one parse (spec.md
// §3). Every field populated from an offset-addressed section is keyed by
// that section's byte offset, since DEX items are referenced by offset
// rather than by a dense, parse-order index.
type DexImage struct {
	Header section.Header
	Map    []section.MapItem

	StringIDs []uint32 // string_data_item offsets, in string_ids order
	TypeIDs   []uint32 // indices into StringIDs, in type_ids order

	ProtoIDs  []section.ProtoIDItem
	FieldIDs  []section.FieldIDItem
	MethodIDs []section.MethodIDItem
	ClassDefs []section.ClassDefItem

	Strings   map[uint32]mutf8.Result       // keyed by string_data_item offset
	TypeLists map[uint32][]uint16           // keyed by type_list offset
	ClassData map[uint32]section.ClassData  // keyed by class_data_item offset
	CodeItems map[uint32]section.CodeItem   // keyed by code_item offset
	DebugInfo map[uint32]section.DebugInfo  // keyed by debug_info_item offset

	AnnotationsDirectories map[uint32]section.AnnotationsDirectory // keyed by annotations_directory_item offset
	AnnotationSets         map[uint32][]uint32                     // keyed by annotation_set_item offset
	AnnotationSetRefLists  map[uint32][]uint32                     // keyed by annotation_set_ref_list offset
	Annotations            map[uint32]Annotation                   // keyed by annotation_item offset

	MethodHandles []section.MethodHandleItem

	CallSiteIDs []uint32             // call_site_item offsets, in call_site_ids order
	CallSites   map[uint32][]value.Value // keyed by call_site_item offset

	HiddenapiClassData section.HiddenapiClassData

	Warnings []Warning
	Stats    ParseStats
}

// StringAt resolves a string_ids index to its decoded text, the common
// case downstream consumers need. It panics on an out-of-range index,
// matching Go slice-indexing semantics for a data structure that is
// already fully validated at construction time.
func (img *DexImage) StringAt(idx uint32) string {
	off := img.StringIDs[idx]

	return img.Strings[off].Text
}

// TypeNameAt resolves a type_ids index to its underlying string.
func (img *DexImage) TypeNameAt(idx uint32) string {
	return img.StringAt(img.TypeIDs[idx])
}

// ClassNames resolves every class_def's type name, in class_defs order.
// The scratch slice backing the assembly is pool-borrowed since this is
// typically called once per image on a table that can run to tens of
// thousands of entries for a multidex application.
func (img *DexImage) ClassNames() []string {
	scratch, cleanup := pool.GetStringSlice(len(img.ClassDefs))
	defer cleanup()

	for i, cd := range img.ClassDefs {
		scratch[i] = img.TypeNameAt(cd.ClassIdx)
	}

	out := make([]string, len(scratch))
	copy(out, scratch)

	return out
}
