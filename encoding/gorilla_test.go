package encoding

import (
	"math"
	"math/rand"
	"testing"

	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/internal/varint"
	"github.com/stretchr/testify/require"
)

func TestGorillaEncoder_Layout(t *testing.T) {
	t.Run("unchanged value", func(t *testing.T) {
		enc := NewGorillaEncoder[float64]()
		defer enc.Finish()

		enc.WriteSlice([]float64{1.0, 1.0})
		require.Equal(t, 2, enc.Len())

		// count, the first value verbatim, then a single 0 bit padded to a byte
		require.Equal(t, []byte{0x02, 0x3f, 0xf0, 0, 0, 0, 0, 0, 0, 0x00}, flushBytes(t, enc))
		require.Zero(t, enc.Len())
	})

	t.Run("new block", func(t *testing.T) {
		enc := NewGorillaEncoder[float32]()
		defer enc.Finish()

		enc.WriteSlice([]float32{1.0, 1.5})

		// xor 0x00400000: bits 1 1 01001 000000 1, then padding
		require.Equal(t, []byte{0x02, 0x3f, 0x80, 0x00, 0x00, 0xd2, 0x04}, flushBytes(t, enc))
	})
}

func TestGorilla_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	values := make([]float64, 0, 1000)
	v := 20.0
	for range 990 {
		if rng.Intn(4) > 0 {
			v += math.Round(rng.NormFloat64()*100) / 100
		}
		values = append(values, v)
	}
	values = append(values, 0, math.Copysign(0, -1), math.NaN(), math.Inf(1), math.Inf(-1),
		math.MaxFloat64, -math.SmallestNonzeroFloat64, 1, 1, 1e-300)

	t.Run("float64", func(t *testing.T) {
		enc := NewGorillaEncoder[float64]()
		defer enc.Finish()

		enc.WriteSlice(values)
		data := flushBytes(t, enc)

		decoded, n, err := NewGorillaDecoder[float64]().Decode(data, nil)
		require.NoError(t, err)
		require.Equal(t, len(data), n)
		require.Len(t, decoded, len(values))
		for i := range values {
			require.Equal(t, math.Float64bits(values[i]), math.Float64bits(decoded[i]), "value %d", i)
		}
	})

	t.Run("float32", func(t *testing.T) {
		enc := NewGorillaEncoder[float32]()
		defer enc.Finish()

		want := make([]float32, len(values))
		for i, v := range values {
			want[i] = float32(v)
			enc.Write(want[i])
		}
		data := flushBytes(t, enc)

		decoded, n, err := NewGorillaDecoder[float32]().Decode(data, nil)
		require.NoError(t, err)
		require.Equal(t, len(data), n)
		for i := range want {
			require.Equal(t, math.Float32bits(want[i]), math.Float32bits(decoded[i]), "value %d", i)
		}
	})
}

func TestGorilla_ConcatenatedChunks(t *testing.T) {
	enc := NewGorillaEncoder[float64]()
	defer enc.Finish()

	enc.WriteSlice([]float64{1.5, 2.5, 2.5})
	first := flushBytes(t, enc)
	enc.WriteSlice([]float64{-7, 100.125})
	second := flushBytes(t, enc)

	decoded, err := DecodeAll[float64](NewGorillaDecoder[float64](), append(first, second...))
	require.NoError(t, err)
	require.Equal(t, []float64{1.5, 2.5, 2.5, -7, 100.125}, decoded)

	require.NoError(t, enc.Flush(nil))
}

func TestGorillaDecoder_MalformedInput(t *testing.T) {
	dec32 := NewGorillaDecoder[float32]()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"count too large", varint.AppendUvarint(nil, MaxChunkValues+1)},
		{"missing first value", []byte{0x01, 0x3f, 0x80}},
		{"reuse before any block", []byte{0x02, 0x3f, 0x80, 0x00, 0x00, 0x80}},
		{"block wider than value", []byte{0x02, 0x3f, 0x80, 0x00, 0x00, 0xff, 0xf8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := []float32{42}
			out, _, err := dec32.Decode(tt.data, dst)
			require.ErrorIs(t, err, errs.ErrMalformedInput)
			require.Equal(t, []float32{42}, out)
		})
	}

	t.Run("truncated stream", func(t *testing.T) {
		enc := NewGorillaEncoder[float64]()
		defer enc.Finish()

		enc.WriteSlice([]float64{1, 2, 3})
		data := flushBytes(t, enc)

		_, _, err := NewGorillaDecoder[float64]().Decode(data[:len(data)-1], nil)
		require.ErrorIs(t, err, errs.ErrMalformedInput)
	})
}
