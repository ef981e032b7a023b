// Package format holds the constant vocabulary of the DEX container: map
// item type codes, encoded_value tags, the supported version table, and
// the sentinel values used for absent indices and offsets.
//
// It plays the role the teacher corpus's format package plays for mebo's
// encoding/compression type enums: a leaf package of typed constants with
// String() methods, imported by every other package but depending on
// nothing itself.
package format

// MapType identifies the kind of item a map_list entry describes (spec.md §6).
type MapType uint16

const (
	TypeHeaderItem             MapType = 0x0000
	TypeStringIDItem           MapType = 0x0001
	TypeTypeIDItem             MapType = 0x0002
	TypeProtoIDItem            MapType = 0x0003
	TypeFieldIDItem            MapType = 0x0004
	TypeMethodIDItem           MapType = 0x0005
	TypeClassDefItem           MapType = 0x0006
	TypeCallSiteIDItem         MapType = 0x0007
	TypeMethodHandleItem       MapType = 0x0008
	TypeMapList                MapType = 0x1000
	TypeTypeList               MapType = 0x1001
	TypeAnnotationSetRefList   MapType = 0x1002
	TypeAnnotationSetItem      MapType = 0x1003
	TypeClassDataItem          MapType = 0x2000
	TypeCodeItem               MapType = 0x2001
	TypeStringDataItem         MapType = 0x2002
	TypeDebugInfoItem          MapType = 0x2003
	TypeAnnotationItem         MapType = 0x2004
	TypeEncodedArrayItem       MapType = 0x2005
	TypeAnnotationsDirectory   MapType = 0x2006
	TypeHiddenapiClassDataItem MapType = 0xF000
)

func (t MapType) String() string {
	switch t {
	case TypeHeaderItem:
		return "header_item"
	case TypeStringIDItem:
		return "string_id_item"
	case TypeTypeIDItem:
		return "type_id_item"
	case TypeProtoIDItem:
		return "proto_id_item"
	case TypeFieldIDItem:
		return "field_id_item"
	case TypeMethodIDItem:
		return "method_id_item"
	case TypeClassDefItem:
		return "class_def_item"
	case TypeCallSiteIDItem:
		return "call_site_id_item"
	case TypeMethodHandleItem:
		return "method_handle_item"
	case TypeMapList:
		return "map_list"
	case TypeTypeList:
		return "type_list"
	case TypeAnnotationSetRefList:
		return "annotation_set_ref_list"
	case TypeAnnotationSetItem:
		return "annotation_set_item"
	case TypeClassDataItem:
		return "class_data_item"
	case TypeCodeItem:
		return "code_item"
	case TypeStringDataItem:
		return "string_data_item"
	case TypeDebugInfoItem:
		return "debug_info_item"
	case TypeAnnotationItem:
		return "annotation_item"
	case TypeEncodedArrayItem:
		return "encoded_array_item"
	case TypeAnnotationsDirectory:
		return "annotations_directory_item"
	case TypeHiddenapiClassDataItem:
		return "hiddenapi_class_data_item"
	default:
		return "unknown_map_type"
	}
}

// Sentinels used throughout the fixed index tables (spec.md §6).
const (
	// NoIndex marks an absent optional index (superclass_idx, source_file_idx, ...).
	NoIndex uint32 = 0xFFFFFFFF
	// NoOffset marks an absent optional offset (interfaces_off, annotations_off, ...).
	NoOffset uint32 = 0
)

// HeaderSize is the fixed size in bytes of the DEX header (spec.md §6).
const HeaderSize = 0x70

// SupportedVersions enumerates the DEX format versions this module accepts
// by default. Version 040 is gated behind image.Config.AllowV040 (set by
// dex.WithV040Support) per spec.md §9 open question (a).
var SupportedVersions = map[string]bool{
	"035": true,
	"037": true,
	"038": true,
	"039": true,
}

// VersionV040 is opt-in only; see SPEC_FULL.md §9(a).
const VersionV040 = "040"
