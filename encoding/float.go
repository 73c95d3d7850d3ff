package encoding

import (
	"fmt"
	"io"
	"math"

	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/format"
	"github.com/arloliu/tsfkit/internal/pool"
	"github.com/arloliu/tsfkit/internal/varint"
)

// FallbackSentinel is the stream header value announcing a fallback bitmap.
//
// A stream normally starts with the decimal precision. When at least one value
// of the chunk bypassed scaling, it starts with FallbackSentinel instead,
// followed by the flag count, the bitmap and then the precision. Precisions are
// therefore required to stay below the sentinel.
const FallbackSentinel = math.MaxInt32

// Config selects a codec variant once, at construction time.
type Config struct {
	// Encoding is the integer encoding of the backend.
	Encoding format.EncodingType
	// DataType is the column type, Float or Double for the floating-point codec.
	DataType format.DataType
	// Precision is the number of decimal digits kept; negative values mean 0.
	Precision int
}

// FloatEncoder stores floating-point values as scaled integers.
//
// Each value is multiplied by 10^precision and rounded, then written through an
// integer backend: an int32 codec for float32 and an int64 codec for float64. A
// value whose scaled form does not fit the backend falls back to its rounded,
// unscaled form and is flagged in a per-chunk bitmap.
//
// Chunk payload layout without fallback:
//
//	uvarint(precision) | backend payload
//
// Chunk payload layout with at least one fallback:
//
//	uvarint(FallbackSentinel) | uvarint(count) | bitmap | uvarint(precision) | backend payload
//
// The bitmap holds ceil(count/8) bytes, bit i set when value i fell back.
type FloatEncoder[F Float] struct {
	backend   floatBackend
	cycle     *pool.ByteBuffer // precision header plus backend payload
	flags     fallbackBitmap
	precision int
	scale     float64
	started   bool
}

var _ ChunkEncoder[float64] = (*FloatEncoder[float64])(nil)

// NewFloatEncoder creates a floating-point encoder for cfg.
//
// It fails with errs.ErrUnsupportedEncoding when cfg names no integer backend
// for F, and with errs.ErrInvalidPrecision when the precision reaches
// FallbackSentinel.
func NewFloatEncoder[F Float](cfg Config, opts ...EncoderOption) (*FloatEncoder[F], error) {
	precision, err := checkFloatConfig[F](cfg)
	if err != nil {
		return nil, err
	}

	var backend floatBackend
	if bitsOf[F]() == 32 {
		backend, err = newIntBackend[int32](cfg.Encoding, opts...)
	} else {
		backend, err = newIntBackend[int64](cfg.Encoding, opts...)
	}
	if err != nil {
		return nil, err
	}

	return &FloatEncoder[F]{
		backend:   backend,
		cycle:     pool.GetEncoderBuffer(),
		precision: precision,
		scale:     math.Pow10(precision),
	}, nil
}

// Write scales and buffers a single value.
//
// The first call of a flush cycle writes the precision header.
func (e *FloatEncoder[F]) Write(v F) {
	if !e.started {
		e.cycle.B = varint.AppendUvarint(e.cycle.B, uint64(e.precision)) //nolint:gosec
		e.started = true
	}

	x := float64(v)
	e.flags.append(e.backend.write(x*e.scale, x))
}

// WriteSlice scales and buffers all values in order.
func (e *FloatEncoder[F]) WriteSlice(values []F) {
	for _, v := range values {
		e.Write(v)
	}
}

// Len returns the number of values written since the last Flush.
func (e *FloatEncoder[F]) Len() int {
	return e.flags.len()
}

// Fallbacks returns the number of values of the current cycle stored unscaled.
func (e *FloatEncoder[F]) Fallbacks() int {
	return e.flags.set
}

// Precision returns the effective decimal precision.
func (e *FloatEncoder[F]) Precision() int {
	return e.precision
}

// Flush writes the chunk payload to w and starts a new cycle.
func (e *FloatEncoder[F]) Flush(w io.Writer) error {
	if !e.started {
		return nil
	}

	if err := e.backend.flush(e.cycle); err != nil {
		e.Reset()
		return err
	}

	var out []byte
	if e.flags.any() {
		bitmap := e.flags.bytes()
		out = make([]byte, 0, 2*varint.MaxLen+len(bitmap)+e.cycle.Len())
		out = varint.AppendUvarint(out, FallbackSentinel)
		out = varint.AppendUvarint(out, uint64(e.flags.len())) //nolint:gosec
		out = append(out, bitmap...)
	} else {
		out = make([]byte, 0, e.cycle.Len())
	}
	out = append(out, e.cycle.Bytes()...)

	e.Reset()

	_, err := w.Write(out)

	return err
}

// Reset discards the current cycle.
func (e *FloatEncoder[F]) Reset() {
	e.backend.reset()
	e.cycle.Reset()
	e.flags.reset()
	e.started = false
}

// Finish returns the pooled buffers of the encoder and its backend. The
// encoder must not be used afterwards.
func (e *FloatEncoder[F]) Finish() {
	e.backend.finish()
	pool.PutEncoderBuffer(e.cycle)
	e.cycle = nil
	e.flags = fallbackBitmap{}
	e.started = false
}

// FloatDecoder decodes payloads written by FloatEncoder.
//
// The precision is read from each payload, so one decoder serves streams
// written with any precision.
type FloatDecoder[F Float] struct {
	backend floatBackendDecoder
}

var _ ChunkDecoder[float32] = FloatDecoder[float32]{}

// NewFloatDecoder creates the decoder matching NewFloatEncoder with the same cfg.
func NewFloatDecoder[F Float](cfg Config, opts ...EncoderOption) (FloatDecoder[F], error) {
	if _, err := checkFloatConfig[F](cfg); err != nil {
		return FloatDecoder[F]{}, err
	}

	var (
		backend floatBackendDecoder
		err     error
	)
	if bitsOf[F]() == 32 {
		backend, err = newIntBackendDecoder[int32](cfg.Encoding, opts...)
	} else {
		backend, err = newIntBackendDecoder[int64](cfg.Encoding, opts...)
	}
	if err != nil {
		return FloatDecoder[F]{}, err
	}

	return FloatDecoder[F]{backend: backend}, nil
}

// Decode decodes one chunk payload and appends the values to dst.
//
// Values flagged in the fallback bitmap are returned as stored; all others are
// divided by 10^precision.
func (d FloatDecoder[F]) Decode(data []byte, dst []F) ([]F, int, error) {
	header, off, err := varint.Uvarint(data, "float stream header")
	if err != nil {
		return dst, 0, err
	}

	var (
		bitmap    []byte
		flagCount uint64
	)
	if header == FallbackSentinel {
		var n int
		flagCount, n, err = varint.Uvarint(data[off:], "fallback flag count")
		if err != nil {
			return dst, 0, err
		}
		off += n

		if flagCount > MaxChunkValues {
			return dst, 0, fmt.Errorf("%w: fallback flag count %d exceeds %d",
				errs.ErrMalformedInput, flagCount, MaxChunkValues)
		}
		size := bitmapSize(int(flagCount))
		if len(data)-off < size {
			return dst, 0, fmt.Errorf("%w: truncated fallback bitmap, need %d bytes, have %d",
				errs.ErrMalformedInput, size, len(data)-off)
		}
		bitmap = data[off : off+size]
		off += size

		header, n, err = varint.Uvarint(data[off:], "float precision")
		if err != nil {
			return dst, 0, err
		}
		off += n
	}
	if header >= FallbackSentinel {
		return dst, 0, fmt.Errorf("%w: float precision %d", errs.ErrMalformedInput, header)
	}
	scale := math.Pow10(int(header))

	values, n, err := d.backend.decode(data[off:])
	if err != nil {
		return dst, 0, err
	}
	if bitmap != nil && uint64(len(values)) != flagCount {
		return dst, 0, fmt.Errorf("%w: fallback bitmap covers %d values, payload holds %d",
			errs.ErrMalformedInput, flagCount, len(values))
	}

	for i, v := range values {
		if bitmap != nil && bitmapGet(bitmap, i) {
			dst = append(dst, F(v))
		} else {
			dst = append(dst, F(v/scale))
		}
	}

	return dst, off + n, nil
}

func checkFloatConfig[F Float](cfg Config) (int, error) {
	want := format.Double
	if bitsOf[F]() == 32 {
		want = format.Float
	}

	if cfg.DataType != want {
		return 0, fmt.Errorf("%w: %s encoding with %s data type for a %d-bit float codec",
			errs.ErrUnsupportedEncoding, cfg.Encoding, cfg.DataType, bitsOf[F]())
	}

	switch cfg.Encoding {
	case format.TypeTS2Diff, format.TypeRLE, format.TypeRLBE:
	default:
		return 0, fmt.Errorf("%w: %s encoding with %s data type",
			errs.ErrUnsupportedEncoding, cfg.Encoding, cfg.DataType)
	}

	precision := max(cfg.Precision, 0)
	if precision >= FallbackSentinel {
		return 0, fmt.Errorf("%w: %d collides with the fallback sentinel", errs.ErrInvalidPrecision, precision)
	}

	return precision, nil
}

// floatBackend hides the integer width of the backend codec from FloatEncoder.
type floatBackend interface {
	// write encodes round(scaled), or round(raw) when scaled is out of range,
	// and reports whether the fallback was taken.
	write(scaled, raw float64) bool
	flush(w io.Writer) error
	reset()
	finish()
}

type intBackend[I Integer] struct {
	enc    IntEncoder[I]
	lo, hi float64 // the backend range is [lo, hi)
}

func newIntBackend[I Integer](enc format.EncodingType, opts ...EncoderOption) (*intBackend[I], error) {
	e, err := NewIntEncoder[I](enc, opts...)
	if err != nil {
		return nil, err
	}

	hi := math.Ldexp(1, bitsOf[I]()-1)

	return &intBackend[I]{enc: e, lo: -hi, hi: hi}, nil
}

func (b *intBackend[I]) write(scaled, raw float64) bool {
	r := roundHalfUp(scaled)
	if r >= b.lo && r < b.hi { // false for NaN
		b.enc.Write(I(r))
		return false
	}

	b.enc.Write(b.saturate(roundHalfUp(raw)))

	return true
}

// roundHalfUp rounds to the nearest integer, halves toward positive infinity,
// so -0.5 becomes 0 and 2.5 becomes 3.
func roundHalfUp(x float64) float64 {
	r := math.Floor(x)
	if x-r >= 0.5 {
		r++
	}

	return r
}

// saturate converts v to I, clamping to the range of I. NaN becomes 0.
func (b *intBackend[I]) saturate(v float64) I {
	switch {
	case math.IsNaN(v):
		return 0
	case v < b.lo:
		return minInt[I]()
	case v >= b.hi:
		return maxInt[I]()
	default:
		return I(v)
	}
}

func (b *intBackend[I]) flush(w io.Writer) error { return b.enc.Flush(w) }
func (b *intBackend[I]) reset()                  { b.enc.Reset() }
func (b *intBackend[I]) finish()                 { b.enc.Finish() }

type floatBackendDecoder interface {
	decode(data []byte) ([]float64, int, error)
}

type intBackendDecoder[I Integer] struct {
	dec IntDecoder[I]
}

func newIntBackendDecoder[I Integer](enc format.EncodingType, opts ...EncoderOption) (intBackendDecoder[I], error) {
	d, err := NewIntDecoder[I](enc, opts...)
	if err != nil {
		return intBackendDecoder[I]{}, err
	}

	return intBackendDecoder[I]{dec: d}, nil
}

func (b intBackendDecoder[I]) decode(data []byte) ([]float64, int, error) {
	ints, n, err := b.dec.Decode(data, nil)
	if err != nil {
		return nil, 0, err
	}

	out := make([]float64, len(ints))
	for i, v := range ints {
		out[i] = float64(v)
	}

	return out, n, nil
}

func maxInt[I Integer]() I {
	return I(^uint64(0) >> (65 - bitsOf[I]()))
}

func minInt[I Integer]() I {
	return -maxInt[I]() - 1
}
