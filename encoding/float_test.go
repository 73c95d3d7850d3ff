package encoding

import (
	"math"
	"math/rand"
	"testing"

	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/format"
	"github.com/stretchr/testify/require"
)

func TestFloatEncoder_ScalesByPrecision(t *testing.T) {
	cfg := Config{Encoding: format.TypeTS2Diff, DataType: format.Double, Precision: 2}

	enc, err := NewFloatEncoder[float64](cfg)
	require.NoError(t, err)
	defer enc.Finish()

	enc.Write(3.14159)
	data := flushBytes(t, enc)

	// precision 2, then a delta-binary payload of one batch with base 314
	require.Equal(t, []byte{0x02, 0x01, 0x80, 0x01, 0xf4, 0x04, 0x00}, data)

	dec, err := NewFloatDecoder[float64](cfg)
	require.NoError(t, err)
	decoded, n, err := dec.Decode(data, nil)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, []float64{3.14}, decoded)
}

func TestFloatEncoder_FallbackBitmap(t *testing.T) {
	cfg := Config{Encoding: format.TypeRLE, DataType: format.Float, Precision: 2}

	enc, err := NewFloatEncoder[float32](cfg)
	require.NoError(t, err)
	defer enc.Finish()

	enc.WriteSlice([]float32{1.25, 3e7, -2.5})
	require.Equal(t, 1, enc.Fallbacks())
	data := flushBytes(t, enc)

	// sentinel, three flags, bitmap with bit 1 set, then the precision
	require.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0x07, 0x03, 0x02, 0x02}, data[:8])

	dec, err := NewFloatDecoder[float32](cfg)
	require.NoError(t, err)
	decoded, n, err := dec.Decode(data, nil)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, []float32{1.25, 3e7, -2.5}, decoded)
}

func TestFloatEncoder_FallbackStoresRoundedValue(t *testing.T) {
	cfg := Config{Encoding: format.TypeTS2Diff, DataType: format.Double, Precision: 10}

	enc, err := NewFloatEncoder[float64](cfg)
	require.NoError(t, err)
	defer enc.Finish()

	values := []float64{0.5, 1e12 + 0.4, -7.25e11, math.NaN(), math.Inf(1), math.Inf(-1)}
	enc.WriteSlice(values)
	require.Equal(t, 5, enc.Fallbacks())

	dec, err := NewFloatDecoder[float64](cfg)
	require.NoError(t, err)
	decoded, _, err := dec.Decode(flushBytes(t, enc), nil)
	require.NoError(t, err)

	require.Equal(t, 0.5, decoded[0])
	require.Equal(t, 1e12, decoded[1])
	require.Equal(t, -7.25e11, decoded[2])
	require.Equal(t, 0.0, decoded[3])
	require.Equal(t, float64(math.MaxInt64), decoded[4])
	require.Equal(t, float64(math.MinInt64), decoded[5])
}

func TestFloatEncoder_RoundsHalvesUp(t *testing.T) {
	tests := []struct {
		precision int
		values    []float64
		want      []float64
	}{
		{2, []float64{-0.125, 0.125, -2.5}, []float64{-0.12, 0.13, -2.5}},
		{0, []float64{-2.5, 2.5, -0.5, -1.49}, []float64{-2, 3, 0, -1}},
	}

	for _, tt := range tests {
		cfg := Config{Encoding: format.TypeTS2Diff, DataType: format.Double, Precision: tt.precision}
		enc, err := NewFloatEncoder[float64](cfg)
		require.NoError(t, err)
		enc.WriteSlice(tt.values)
		data := flushBytes(t, enc)
		enc.Finish()

		dec, err := NewFloatDecoder[float64](cfg)
		require.NoError(t, err)
		decoded, _, err := dec.Decode(data, nil)
		require.NoError(t, err)
		require.Equal(t, tt.want, decoded, "p=%d", tt.precision)
	}

	require.Equal(t, 3.0, roundHalfUp(2.5))
	require.Equal(t, -2.0, roundHalfUp(-2.5))
	require.True(t, math.IsNaN(roundHalfUp(math.NaN())))
	require.True(t, math.IsInf(roundHalfUp(math.Inf(-1)), -1))
}

func TestFloatCodec_WithinHalfUnitOfPrecision(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for _, enc := range []format.EncodingType{format.TypeTS2Diff, format.TypeRLE, format.TypeRLBE} {
		for p := 0; p <= 4; p++ {
			cfg := Config{Encoding: enc, DataType: format.Double, Precision: p}
			e, err := NewFloatEncoder[float64](cfg)
			require.NoError(t, err)

			values := make([]float64, 257)
			for i := range values {
				values[i] = (rng.Float64() - 0.5) * 2e6
			}
			e.WriteSlice(values)
			require.Zero(t, e.Fallbacks())
			data := flushBytes(t, e)
			e.Finish()

			d, err := NewFloatDecoder[float64](cfg)
			require.NoError(t, err)
			decoded, _, err := d.Decode(data, nil)
			require.NoError(t, err)
			require.Len(t, decoded, len(values))

			tolerance := 0.5*math.Pow10(-p) + 1e-9
			for i, v := range values {
				require.InDelta(t, v, decoded[i], tolerance, "%s p=%d i=%d", enc, p, i)
			}
		}
	}
}

func TestFloatEncoder_CycleStateResetsOnFlush(t *testing.T) {
	cfg := Config{Encoding: format.TypeRLBE, DataType: format.Float, Precision: 1}

	enc, err := NewFloatEncoder[float32](cfg)
	require.NoError(t, err)
	defer enc.Finish()

	enc.WriteSlice([]float32{1e9, 2.5})
	first := flushBytes(t, enc)
	require.Equal(t, byte(0xff), first[0])
	require.Zero(t, enc.Len())

	enc.WriteSlice([]float32{2.5, 3.5})
	second := flushBytes(t, enc)
	require.Equal(t, byte(0x01), second[0], "no sentinel once the fallback cycle is flushed")

	dec, err := NewFloatDecoder[float32](cfg)
	require.NoError(t, err)
	decoded, err := DecodeAll[float32](dec, append(first, second...))
	require.NoError(t, err)
	require.Equal(t, []float32{1e9, 2.5, 2.5, 3.5}, decoded)

	require.Empty(t, flushBytes(t, enc))
}

func TestFloatEncoder_NegativePrecisionMeansZero(t *testing.T) {
	cfg := Config{Encoding: format.TypeRLE, DataType: format.Double, Precision: -3}

	enc, err := NewFloatEncoder[float64](cfg)
	require.NoError(t, err)
	defer enc.Finish()
	require.Equal(t, 0, enc.Precision())

	enc.Write(2.6)
	dec, err := NewFloatDecoder[float64](cfg)
	require.NoError(t, err)
	decoded, _, err := dec.Decode(flushBytes(t, enc), nil)
	require.NoError(t, err)
	require.Equal(t, []float64{3}, decoded)
}

func TestFloatCodec_ConfigurationErrors(t *testing.T) {
	_, err := NewFloatEncoder[float64](Config{Encoding: format.TypeGorilla, DataType: format.Double})
	require.ErrorIs(t, err, errs.ErrUnsupportedEncoding)
	require.ErrorContains(t, err, "GORILLA encoding with DOUBLE data type")

	_, err = NewFloatEncoder[float32](Config{Encoding: format.TypeTS2Diff, DataType: format.Double})
	require.ErrorIs(t, err, errs.ErrUnsupportedEncoding)

	_, err = NewFloatEncoder[float64](Config{Encoding: format.TypePlain, DataType: format.Double})
	require.ErrorIs(t, err, errs.ErrUnsupportedEncoding)

	_, err = NewFloatDecoder[float64](Config{Encoding: format.TypeTS2Diff, DataType: format.Text})
	require.ErrorIs(t, err, errs.ErrUnsupportedEncoding)

	_, err = NewFloatEncoder[float64](Config{Encoding: format.TypeTS2Diff, DataType: format.Double, Precision: FallbackSentinel})
	require.ErrorIs(t, err, errs.ErrInvalidPrecision)

	_, err = NewFloatEncoder[float64](Config{Encoding: format.TypeTS2Diff, DataType: format.Double}, WithBatchSize(3))
	require.ErrorIs(t, err, errs.ErrInvalidBatchSize)
}

func TestFloatDecoder_MalformedInput(t *testing.T) {
	cfg := Config{Encoding: format.TypeRLE, DataType: format.Float, Precision: 2}
	dec, err := NewFloatDecoder[float32](cfg)
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, _, err := dec.Decode(nil, nil)
		require.ErrorIs(t, err, errs.ErrMalformedInput)
	})

	t.Run("truncated bitmap", func(t *testing.T) {
		data := []byte{0xff, 0xff, 0xff, 0xff, 0x07, 20, 0x01}
		_, _, err := dec.Decode(data, nil)
		require.ErrorIs(t, err, errs.ErrMalformedInput)
	})

	t.Run("bitmap count differs from payload", func(t *testing.T) {
		enc, err := NewFloatEncoder[float32](cfg)
		require.NoError(t, err)
		defer enc.Finish()

		enc.WriteSlice([]float32{1.25, 3e7, -2.5})
		data := flushBytes(t, enc)
		data[5] = 0x04

		_, _, err = dec.Decode(data, nil)
		require.ErrorIs(t, err, errs.ErrMalformedInput)
	})

	t.Run("sentinel as precision", func(t *testing.T) {
		data := []byte{0xff, 0xff, 0xff, 0xff, 0x07, 0x01, 0x00, 0xff, 0xff, 0xff, 0xff, 0x07}
		_, _, err := dec.Decode(data, nil)
		require.ErrorIs(t, err, errs.ErrMalformedInput)
	})
}
