package leb128

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jaqxues/dex-tool/cursor"
	"github.com/jaqxues/dex-tool/endian"
	"github.com/jaqxues/dex-tool/errs"
)

func newCursor(data []byte) *cursor.Cursor {
	return cursor.New(data, endian.GetLittleEndianEngine(), cursor.Lenient)
}

// TestReadUleb128_S2 exercises spec.md §8 scenario S2.
func TestReadUleb128_S2(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint64
	}{
		{"0x98765", []byte{0xE5, 0x8E, 0x26}, 624485},
		{"zero", []byte{0x00}, 0},
		{"single byte max", []byte{0x7F}, 127},
		{"two byte", []byte{0x80, 0x01}, 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadUleb128(newCursor(tt.data))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

// TestReadSleb128_S3 exercises spec.md §8 scenario S3.
func TestReadSleb128_S3(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want int64
	}{
		{"-123456", []byte{0xC0, 0xBB, 0x78}, -123456},
		{"-1", []byte{0x7F}, -1},
		{"63", []byte{0x3F}, 63},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadSleb128(newCursor(tt.data))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestReadUleb128P1(t *testing.T) {
	// Encoded 0 means absent: decodes to -1.
	got, err := ReadUleb128P1(newCursor([]byte{0x00}))
	require.NoError(t, err)
	require.Equal(t, int64(-1), got)

	// Encoded 1 means logical 0.
	got, err = ReadUleb128P1(newCursor([]byte{0x01}))
	require.NoError(t, err)
	require.Equal(t, int64(0), got)
}

func TestReadUleb128_Overflow(t *testing.T) {
	data := make([]byte, 10)
	for i := range data {
		data[i] = 0xFF
	}

	_, err := ReadUleb128(newCursor(data))
	require.ErrorIs(t, err, errs.ErrLebOverflow)
}

func TestReadUleb128_Truncated(t *testing.T) {
	_, err := ReadUleb128(newCursor([]byte{0x80, 0x80}))
	require.ErrorIs(t, err, errs.ErrTruncated)
}

// TestRoundTrip_Uleb128 exercises spec.md §8 property 6: encode then decode
// is the identity, and the encoder produces the minimum-length form.
func TestRoundTrip_Uleb128(t *testing.T) {
	values := []uint64{0, 1, 63, 64, 127, 128, 624485, 1 << 35, ^uint64(0)}

	for _, v := range values {
		encoded := AppendUleb128(nil, v)
		decoded, err := ReadUleb128(newCursor(encoded))
		require.NoError(t, err)
		require.Equal(t, v, decoded)

		reencoded := AppendUleb128(nil, decoded)
		require.Equal(t, encoded, reencoded, "encoding must be minimal-length")
	}
}

func TestRoundTrip_Sleb128(t *testing.T) {
	values := []int64{0, -1, 63, -64, 123456, -123456, 1 << 40, -(1 << 40)}

	for _, v := range values {
		encoded := AppendSleb128(nil, v)
		decoded, err := ReadSleb128(newCursor(encoded))
		require.NoError(t, err)
		require.Equal(t, v, decoded)

		reencoded := AppendSleb128(nil, decoded)
		require.Equal(t, encoded, reencoded)
	}
}

func TestAppendSleb128_MatchesSpecFixtures(t *testing.T) {
	require.Equal(t, []byte{0xC0, 0xBB, 0x78}, AppendSleb128(nil, -123456))
	require.Equal(t, []byte{0x7F}, AppendSleb128(nil, -1))
	require.Equal(t, []byte{0x3F}, AppendSleb128(nil, 63))
}

func TestAppendUleb128_MatchesSpecFixtures(t *testing.T) {
	require.Equal(t, []byte{0xE5, 0x8E, 0x26}, AppendUleb128(nil, 624485))
	require.Equal(t, []byte{0x00}, AppendUleb128(nil, 0))
	require.Equal(t, []byte{0x7F}, AppendUleb128(nil, 127))
	require.Equal(t, []byte{0x80, 0x01}, AppendUleb128(nil, 128))
}
