package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapType_String(t *testing.T) {
	require.Equal(t, "header_item", TypeHeaderItem.String())
	require.Equal(t, "code_item", TypeCodeItem.String())
	require.Equal(t, "unknown_map_type", MapType(0x9999).String())
}

func TestSentinels(t *testing.T) {
	require.Equal(t, uint32(0xFFFFFFFF), NoIndex)
	require.Equal(t, uint32(0), NoOffset)
}

func TestSupportedVersions(t *testing.T) {
	for _, v := range []string{"035", "037", "038", "039"} {
		require.True(t, SupportedVersions[v], "%s should be accepted by default", v)
	}

	require.False(t, SupportedVersions[VersionV040], "v040 must be opt-in")
}

func TestValueTag_String(t *testing.T) {
	require.Equal(t, "Int", ValueInt.String())
	require.Equal(t, "Boolean", ValueBoolean.String())
	require.Equal(t, "Unknown", ValueTag(0x7f).String())
}

func TestMaxArgForTag(t *testing.T) {
	tests := []struct {
		tag  ValueTag
		want int
	}{
		{ValueByte, 0},
		{ValueShort, 1},
		{ValueChar, 1},
		{ValueInt, 3},
		{ValueLong, 7},
		{ValueDouble, 7},
		{ValueArray, 0},
		{ValueAnnotation, 0},
		{ValueNull, 0},
		{ValueBoolean, 1},
		{ValueTag(0x09), -1},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, MaxArgForTag(tt.tag), "tag %v", tt.tag)
	}
}

func TestAnnotationVisibility_String(t *testing.T) {
	require.Equal(t, "BUILD", VisibilityBuild.String())
	require.Equal(t, "RUNTIME", VisibilityRuntime.String())
	require.Equal(t, "SYSTEM", VisibilitySystem.String())
	require.Equal(t, "UNKNOWN", AnnotationVisibility(9).String())
}
