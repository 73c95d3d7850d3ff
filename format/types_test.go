package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	dt, ok := ParseDataType("double")
	require.True(t, ok)
	require.Equal(t, Double, dt)

	enc, ok := ParseEncodingType("ts_2diff")
	require.True(t, ok)
	require.Equal(t, TypeTS2Diff, enc)

	ct, ok := ParseCompressionType("ZSTD")
	require.True(t, ok)
	require.Equal(t, CompressionZstd, ct)

	_, ok = ParseDataType("decimal")
	require.False(t, ok)
	_, ok = ParseCompressionType("Unknown")
	require.False(t, ok)
}

func TestIsValid(t *testing.T) {
	for _, d := range []DataType{Boolean, Int32, Int64, Float, Double, Text, Blob, String} {
		require.True(t, d.IsValid(), d.String())
	}
	require.False(t, DataType(0x7f).IsValid())

	require.True(t, TypeGorilla.IsValid())
	require.False(t, EncodingType(0x1).IsValid())

	require.True(t, CompressionSnappy.IsValid())
	require.False(t, CompressionType(0).IsValid())
}

func TestDataTypeFamilies(t *testing.T) {
	require.True(t, Int32.IsNumeric())
	require.False(t, Boolean.IsNumeric())
	require.True(t, Float.IsFloating())
	require.False(t, Int64.IsFloating())
	require.True(t, String.IsBinary())
	require.False(t, Double.IsBinary())
}
