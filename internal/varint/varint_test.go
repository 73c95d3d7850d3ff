package varint

import (
	"bytes"
	"math"
	"testing"

	"github.com/arloliu/tsfkit/errs"
	"github.com/stretchr/testify/require"
)

func TestUvarintRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, math.MaxInt32, math.MaxUint64} {
		buf := AppendUvarint(nil, v)
		require.Len(t, buf, UvarintSize(v))

		got, n, err := Uvarint(buf, "value")
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)

		rv, err := ReadUvarint(ByteReader(bytes.NewReader(buf)), "value")
		require.NoError(t, err)
		require.Equal(t, v, rv)
	}
}

func TestVarintRoundTrip(t *testing.T) {
	for _, v := range []int64{0, -1, 1, -64, 64, math.MinInt64, math.MaxInt64} {
		buf := AppendVarint(nil, v)
		got, n, err := Varint(buf, "value")
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)
	}
}

func TestTruncated(t *testing.T) {
	_, _, err := Uvarint([]byte{0x80}, "count")
	require.ErrorIs(t, err, errs.ErrMalformedInput)
	require.Contains(t, err.Error(), "count")

	_, _, err = Varint(nil, "base")
	require.ErrorIs(t, err, errs.ErrMalformedInput)

	_, err = ReadUvarint(ByteReader(bytes.NewReader([]byte{0xFF})), "count")
	require.ErrorIs(t, err, errs.ErrMalformedInput)
}

type plainReader struct{ r *bytes.Reader }

func (p plainReader) Read(b []byte) (int, error) { return p.r.Read(b) }

func TestByteReader_DoesNotReadAhead(t *testing.T) {
	src := plainReader{r: bytes.NewReader([]byte{0x05, 0xAA, 0xBB})}
	br := ByteReader(src)

	v, err := ReadUvarint(br, "n")
	require.NoError(t, err)
	require.Equal(t, uint64(5), v)
	require.Equal(t, 2, src.r.Len())
}
