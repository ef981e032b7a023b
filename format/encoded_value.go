package format

// ValueTag is the 5-bit value_type field of an encoded_value's 1-byte
// prefix (spec.md §4.7).
type ValueTag uint8

const (
	ValueByte         ValueTag = 0x00
	ValueShort        ValueTag = 0x02
	ValueChar         ValueTag = 0x03
	ValueInt          ValueTag = 0x04
	ValueLong         ValueTag = 0x06
	ValueFloat        ValueTag = 0x10
	ValueDouble       ValueTag = 0x11
	ValueMethodType   ValueTag = 0x15
	ValueMethodHandle ValueTag = 0x16
	ValueString       ValueTag = 0x17
	ValueType         ValueTag = 0x18
	ValueField        ValueTag = 0x19
	ValueMethod       ValueTag = 0x1a
	ValueEnum         ValueTag = 0x1b
	ValueArray        ValueTag = 0x1c
	ValueAnnotation   ValueTag = 0x1d
	ValueNull         ValueTag = 0x1e
	ValueBoolean      ValueTag = 0x1f
)

func (t ValueTag) String() string {
	switch t {
	case ValueByte:
		return "Byte"
	case ValueShort:
		return "Short"
	case ValueChar:
		return "Char"
	case ValueInt:
		return "Int"
	case ValueLong:
		return "Long"
	case ValueFloat:
		return "Float"
	case ValueDouble:
		return "Double"
	case ValueMethodType:
		return "MethodType"
	case ValueMethodHandle:
		return "MethodHandle"
	case ValueString:
		return "String"
	case ValueType:
		return "Type"
	case ValueField:
		return "Field"
	case ValueMethod:
		return "Method"
	case ValueEnum:
		return "Enum"
	case ValueArray:
		return "Array"
	case ValueAnnotation:
		return "Annotation"
	case ValueNull:
		return "Null"
	case ValueBoolean:
		return "Boolean"
	default:
		return "Unknown"
	}
}

// MaxArgForTag returns the maximum legal value_arg (inclusive) for tag, or
// -1 if the tag is not one of the eighteen dispatched by spec.md §4.7's
// table. It is 0 for Byte, Array, Annotation and Null, and 1 for Boolean,
// whose value_arg is the boolean value itself.
func MaxArgForTag(t ValueTag) int {
	switch t {
	case ValueByte:
		return 0
	case ValueShort, ValueChar, ValueFloat, ValueMethodType, ValueMethodHandle,
		ValueString, ValueType, ValueField, ValueMethod, ValueEnum:
		if t == ValueShort || t == ValueChar {
			return 1
		}

		return 3
	case ValueInt:
		return 3
	case ValueLong, ValueDouble:
		return 7
	case ValueArray, ValueAnnotation, ValueNull:
		return 0
	case ValueBoolean:
		return 1
	default:
		return -1
	}
}

// AnnotationVisibility is the 1-byte visibility prefix of an annotation_item
// (spec.md §4.6.8).
type AnnotationVisibility uint8

const (
	VisibilityBuild   AnnotationVisibility = 0x00
	VisibilityRuntime AnnotationVisibility = 0x01
	VisibilitySystem  AnnotationVisibility = 0x02
)

func (v AnnotationVisibility) String() string {
	switch v {
	case VisibilityBuild:
		return "BUILD"
	case VisibilityRuntime:
		return "RUNTIME"
	case VisibilitySystem:
		return "SYSTEM"
	default:
		return "UNKNOWN"
	}
}
