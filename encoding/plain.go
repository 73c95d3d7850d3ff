package encoding

import (
	"fmt"
	"io"
	"math"

	"github.com/arloliu/tsfkit/endian"
	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/internal/options"
	"github.com/arloliu/tsfkit/internal/pool"
	"github.com/arloliu/tsfkit/internal/varint"
)

// WithEndian sets the byte order of fixed-width values written by the plain codecs.
//
// The default is big-endian. Encoder and decoder must use the same engine.
func WithEndian(engine endian.EndianEngine) EncoderOption {
	return options.NoError(func(c *encoderConfig) {
		c.engine = engine
	})
}

// PlainEncoder stores fixed-width numbers in their binary representation.
//
// Chunk payload layout:
//
//	uvarint(count) | value... (sizeof(T) bytes each, in the configured byte order)
//
// Floats are stored as their IEEE 754 bits.
type PlainEncoder[T Number] struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
	count  int
}

var (
	_ IntEncoder[int64]     = (*PlainEncoder[int64])(nil)
	_ ChunkEncoder[float64] = (*PlainEncoder[float64])(nil)
)

// NewPlainEncoder creates a plain fixed-width encoder.
//
// Parameters:
//   - opts: codec options, only WithEndian affects the output
//
// Returns:
//   - *PlainEncoder[T]: the encoder
//   - error: an option error
func NewPlainEncoder[T Number](opts ...EncoderOption) (*PlainEncoder[T], error) {
	cfg := newEncoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &PlainEncoder[T]{
		buf:    pool.GetEncoderBuffer(),
		engine: cfg.engine,
	}, nil
}

// Write appends a single value.
//
// The buffer is pre-grown by one value so repeated calls amortize reallocation.
func (e *PlainEncoder[T]) Write(v T) {
	e.count++

	size := bitsOf[T]() / 8
	e.buf.Grow(size)
	e.appendValue(v)
}

// WriteSlice appends all values after growing the buffer once.
func (e *PlainEncoder[T]) WriteSlice(values []T) {
	e.count += len(values)
	e.buf.Grow(len(values) * bitsOf[T]() / 8)
	for _, v := range values {
		e.appendValue(v)
	}
}

// Len returns the number of values written since the last Flush.
func (e *PlainEncoder[T]) Len() int {
	return e.count
}

// Size returns the number of value bytes buffered since the last Flush.
func (e *PlainEncoder[T]) Size() int {
	return e.buf.Len()
}

// Flush writes the chunk payload to w and resets the encoder.
func (e *PlainEncoder[T]) Flush(w io.Writer) error {
	if e.count == 0 {
		return nil
	}

	out := make([]byte, 0, varint.MaxLen+e.buf.Len())
	out = varint.AppendUvarint(out, uint64(e.count)) //nolint:gosec
	out = append(out, e.buf.Bytes()...)

	e.Reset()

	_, err := w.Write(out)

	return err
}

// Reset discards all buffered values.
func (e *PlainEncoder[T]) Reset() {
	e.buf.Reset()
	e.count = 0
}

// Finish returns the buffer to the pool. Any subsequent Write panics.
func (e *PlainEncoder[T]) Finish() {
	pool.PutEncoderBuffer(e.buf)
	e.buf = nil
	e.count = 0
}

func (e *PlainEncoder[T]) appendValue(v T) {
	switch {
	case isFloat[T]() && bitsOf[T]() == 32:
		e.buf.B = e.engine.AppendUint32(e.buf.B, math.Float32bits(float32(v)))
	case isFloat[T]():
		e.buf.B = e.engine.AppendUint64(e.buf.B, math.Float64bits(float64(v)))
	case bitsOf[T]() == 32:
		e.buf.B = e.engine.AppendUint32(e.buf.B, uint32(int32(v))) //nolint:gosec
	default:
		e.buf.B = e.engine.AppendUint64(e.buf.B, uint64(int64(v))) //nolint:gosec
	}
}

// PlainDecoder decodes payloads written by PlainEncoder.
type PlainDecoder[T Number] struct {
	engine endian.EndianEngine
}

var (
	_ IntDecoder[int64]     = PlainDecoder[int64]{}
	_ ChunkDecoder[float32] = PlainDecoder[float32]{}
)

// NewPlainDecoder creates a plain fixed-width decoder.
//
// The decoder is returned by value; it is stateless and can be shared.
func NewPlainDecoder[T Number](opts ...EncoderOption) (PlainDecoder[T], error) {
	cfg := newEncoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return PlainDecoder[T]{}, err
	}

	return PlainDecoder[T]{engine: cfg.engine}, nil
}

// Decode decodes one chunk payload and appends the values to dst.
func (d PlainDecoder[T]) Decode(data []byte, dst []T) ([]T, int, error) {
	count, off, err := varint.Uvarint(data, "plain value count")
	if err != nil {
		return dst, 0, err
	}

	size := uint64(bitsOf[T]() / 8) //nolint:gosec
	if count > uint64(len(data)-off)/size {
		return dst, 0, fmt.Errorf("%w: plain payload holds %d bytes, need %d values of %d bytes",
			errs.ErrMalformedInput, len(data)-off, count, size)
	}

	for range count {
		dst = append(dst, d.value(data[off:]))
		off += int(size)
	}

	return dst, off, nil
}

func (d PlainDecoder[T]) value(b []byte) T {
	switch {
	case isFloat[T]() && bitsOf[T]() == 32:
		return T(math.Float32frombits(d.engine.Uint32(b)))
	case isFloat[T]():
		return T(math.Float64frombits(d.engine.Uint64(b)))
	case bitsOf[T]() == 32:
		return T(int32(d.engine.Uint32(b))) //nolint:gosec
	default:
		return T(int64(d.engine.Uint64(b))) //nolint:gosec
	}
}

// MaxBinaryLength is the maximum length of a single binary value.
const MaxBinaryLength = 1<<31 - 1

// PlainBinaryEncoder stores variable-length byte values with a length prefix.
//
// Chunk payload layout:
//
//	uvarint(count) | value...
//	value = uvarint(len) | bytes
type PlainBinaryEncoder struct {
	buf   *pool.ByteBuffer
	count int
}

var _ ChunkEncoder[[]byte] = (*PlainBinaryEncoder)(nil)

// NewPlainBinaryEncoder creates a length-prefixed binary encoder.
func NewPlainBinaryEncoder() *PlainBinaryEncoder {
	return &PlainBinaryEncoder{buf: pool.GetEncoderBuffer()}
}

// Write appends a copy of v.
func (e *PlainBinaryEncoder) Write(v []byte) {
	e.count++
	e.buf.Grow(varint.MaxLen + len(v))
	e.buf.B = varint.AppendUvarint(e.buf.B, uint64(len(v)))
	e.buf.MustWrite(v)
}

// WriteSlice appends all values after growing the buffer once.
func (e *PlainBinaryEncoder) WriteSlice(values [][]byte) {
	total := 0
	for _, v := range values {
		total += varint.UvarintSize(uint64(len(v))) + len(v)
	}
	e.buf.Grow(total)

	for _, v := range values {
		e.count++
		e.buf.B = varint.AppendUvarint(e.buf.B, uint64(len(v)))
		e.buf.MustWrite(v)
	}
}

// WriteString appends s as a binary value.
func (e *PlainBinaryEncoder) WriteString(s string) {
	e.Write([]byte(s))
}

func (e *PlainBinaryEncoder) Len() int {
	return e.count
}

func (e *PlainBinaryEncoder) Size() int {
	return e.buf.Len()
}

// Flush writes the chunk payload to w and resets the encoder.
func (e *PlainBinaryEncoder) Flush(w io.Writer) error {
	if e.count == 0 {
		return nil
	}

	out := make([]byte, 0, varint.MaxLen+e.buf.Len())
	out = varint.AppendUvarint(out, uint64(e.count)) //nolint:gosec
	out = append(out, e.buf.Bytes()...)

	e.Reset()

	_, err := w.Write(out)

	return err
}

func (e *PlainBinaryEncoder) Reset() {
	e.buf.Reset()
	e.count = 0
}

func (e *PlainBinaryEncoder) Finish() {
	pool.PutEncoderBuffer(e.buf)
	e.buf = nil
	e.count = 0
}

// PlainBinaryDecoder decodes payloads written by PlainBinaryEncoder.
//
// Decoded values alias data; copy them if data is reused.
type PlainBinaryDecoder struct{}

var _ ChunkDecoder[[]byte] = PlainBinaryDecoder{}

// Decode decodes one chunk payload and appends the values to dst.
func (PlainBinaryDecoder) Decode(data []byte, dst [][]byte) ([][]byte, int, error) {
	count, off, err := varint.Uvarint(data, "binary value count")
	if err != nil {
		return dst, 0, err
	}
	// every value carries at least its one byte length prefix
	if count > uint64(len(data)-off) {
		return dst, 0, fmt.Errorf("%w: binary count %d exceeds payload of %d bytes",
			errs.ErrMalformedInput, count, len(data)-off)
	}

	start := len(dst)
	for range count {
		length, n, err := varint.Uvarint(data[off:], "binary value length")
		if err != nil {
			return dst[:start], 0, err
		}
		off += n

		if length > MaxBinaryLength || length > uint64(len(data)-off) {
			return dst[:start], 0, fmt.Errorf("%w: binary value of %d bytes with %d remaining",
				errs.ErrMalformedInput, length, len(data)-off)
		}
		end := off + int(length)
		dst = append(dst, data[off:end:end])
		off = end
	}

	return dst, off, nil
}
