package encoding

import (
	"fmt"
	"io"
	"math/bits"

	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/internal/bitpack"
	"github.com/arloliu/tsfkit/internal/options"
	"github.com/arloliu/tsfkit/internal/pool"
	"github.com/arloliu/tsfkit/internal/varint"
)

// DefaultBatchSize is the default number of values per delta-binary batch.
const DefaultBatchSize = 128

// WithBatchSize sets the number of values per delta-binary batch.
//
// The size must be a positive multiple of 8 so every batch starts byte aligned
// in the bit-packing tables.
func WithBatchSize(n int) EncoderOption {
	return options.New(func(c *encoderConfig) error {
		if n <= 0 || n%bitpack.GroupSize != 0 {
			return fmt.Errorf("%w: got %d", errs.ErrInvalidBatchSize, n)
		}
		c.batchSize = n

		return nil
	})
}

// DeltaBinaryEncoder implements frame-of-reference encoding with bit-packed deltas.
//
// Values are grouped into batches of a fixed size. For each batch the minimum is
// stored as the base, every value is stored as its distance from the base, and
// the distances are bit-packed at the width of the largest one.
//
// Chunk payload layout:
//
//	uvarint(count) | uvarint(batchSize) | batch...
//	batch = varint(base) | width (1 byte) | packed deltas (ceil(width*batchLen/8) bytes)
//
// The last batch holds count mod batchSize values when count is not a multiple
// of the batch size.
//
// A run of identical values packs at width 0 and costs only the batch header.
type DeltaBinaryEncoder[T Integer] struct {
	buf       *pool.ByteBuffer // full batches encoded so far
	pending   []T              // values of the current, incomplete batch
	batchSize int
	count     int
}

var _ IntEncoder[int64] = (*DeltaBinaryEncoder[int64])(nil)

// NewDeltaBinaryEncoder creates a delta-binary encoder.
//
// Returns errs.ErrInvalidBatchSize if WithBatchSize is given an invalid size.
func NewDeltaBinaryEncoder[T Integer](opts ...EncoderOption) (*DeltaBinaryEncoder[T], error) {
	cfg := newEncoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &DeltaBinaryEncoder[T]{
		buf:       pool.GetEncoderBuffer(),
		pending:   make([]T, 0, cfg.batchSize),
		batchSize: cfg.batchSize,
	}, nil
}

// Write buffers a single value, encoding the current batch once it is full.
func (e *DeltaBinaryEncoder[T]) Write(v T) {
	e.pending = append(e.pending, v)
	e.count++

	if len(e.pending) == e.batchSize {
		e.encodeBatch(e.pending)
		e.pending = e.pending[:0]
	}
}

// WriteSlice buffers all values in order.
func (e *DeltaBinaryEncoder[T]) WriteSlice(values []T) {
	e.buf.Grow(len(values)/e.batchSize*e.MaxEncodedSizeForBatch() + 1)
	for _, v := range values {
		e.Write(v)
	}
}

// Len returns the number of values buffered since the last Flush.
func (e *DeltaBinaryEncoder[T]) Len() int {
	return e.count
}

// Size returns the encoded size in bytes of the completed batches.
func (e *DeltaBinaryEncoder[T]) Size() int {
	return e.buf.Len()
}

// BatchSize returns the configured batch size.
func (e *DeltaBinaryEncoder[T]) BatchSize() int {
	return e.batchSize
}

// MaxEncodedSizeForBatch returns an upper bound of the encoded size of one batch.
func (e *DeltaBinaryEncoder[T]) MaxEncodedSizeForBatch() int {
	return varint.MaxLen + 1 + bitpack.PackedSize(bitsOf[T](), e.batchSize)
}

// MaxStreamSize returns an upper bound of the payload size for count values.
//
// Callers can pre-size their sink with it; the bound never under-estimates.
func (e *DeltaBinaryEncoder[T]) MaxStreamSize(count int) int {
	batches := (count + e.batchSize - 1) / e.batchSize

	return 2*varint.MaxLen + batches*e.MaxEncodedSizeForBatch()
}

// Flush writes the chunk payload to w and resets the encoder.
func (e *DeltaBinaryEncoder[T]) Flush(w io.Writer) error {
	if e.count == 0 {
		return nil
	}

	if len(e.pending) > 0 {
		e.encodeBatch(e.pending)
		e.pending = e.pending[:0]
	}

	out := make([]byte, 0, 2*varint.MaxLen+e.buf.Len())
	out = varint.AppendUvarint(out, uint64(e.count))     //nolint:gosec
	out = varint.AppendUvarint(out, uint64(e.batchSize)) //nolint:gosec
	out = append(out, e.buf.Bytes()...)

	e.Reset()

	_, err := w.Write(out)

	return err
}

// Reset discards all buffered values.
func (e *DeltaBinaryEncoder[T]) Reset() {
	e.buf.Reset()
	e.pending = e.pending[:0]
	e.count = 0
}

// Finish returns the internal buffer to the pool. The encoder must not be used afterwards.
func (e *DeltaBinaryEncoder[T]) Finish() {
	pool.PutEncoderBuffer(e.buf)
	e.buf = nil
	e.pending = nil
	e.count = 0
}

func (e *DeltaBinaryEncoder[T]) encodeBatch(values []T) {
	base := int64(values[0])
	for _, v := range values[1:] {
		if int64(v) < base {
			base = int64(v)
		}
	}

	deltas, cleanup := pool.GetUint64Slice(len(values))
	defer cleanup()

	var maxDelta uint64
	for j, v := range values {
		// unsigned difference is exact even when the span exceeds math.MaxInt64
		d := uint64(int64(v)) - uint64(base) //nolint:gosec
		deltas[j] = d
		maxDelta |= d
	}
	width := bits.Len64(maxDelta)

	b := e.buf.B
	b = varint.AppendVarint(b, base)
	b = append(b, byte(width))
	b, _ = bitpack.Pack(b, deltas, width) // width is always within [0, 64]
	e.buf.B = b
}

// DeltaBinaryDecoder decodes payloads written by DeltaBinaryEncoder.
//
// The decoder is stateless and safe for concurrent use.
type DeltaBinaryDecoder[T Integer] struct{}

var _ IntDecoder[int64] = DeltaBinaryDecoder[int64]{}

// NewDeltaBinaryDecoder creates a delta-binary decoder.
func NewDeltaBinaryDecoder[T Integer]() DeltaBinaryDecoder[T] {
	return DeltaBinaryDecoder[T]{}
}

// Decode decodes one chunk payload and appends the values to dst.
//
// Error conditions (all wrap errs.ErrMalformedInput):
//   - truncated header, base or packed deltas
//   - a count above MaxChunkValues
//   - batch size that is not a positive multiple of 8
//   - bit width wider than T
//   - a value outside the range of T
func (d DeltaBinaryDecoder[T]) Decode(data []byte, dst []T) ([]T, int, error) {
	count, off, err := varint.Uvarint(data, "delta-binary value count")
	if err != nil {
		return dst, 0, err
	}
	batchSize, n, err := varint.Uvarint(data[off:], "delta-binary batch size")
	if err != nil {
		return dst, 0, err
	}
	off += n

	if count > MaxChunkValues {
		return dst, 0, fmt.Errorf("%w: delta-binary count %d exceeds %d", errs.ErrMalformedInput, count, MaxChunkValues)
	}
	if batchSize == 0 || batchSize%bitpack.GroupSize != 0 || batchSize > MaxChunkValues {
		return dst, 0, fmt.Errorf("%w: delta-binary batch size %d", errs.ErrMalformedInput, batchSize)
	}
	// every batch needs at least a one byte base and a width byte
	batches := (count + batchSize - 1) / batchSize
	if batches > uint64(len(data)-off)/2 {
		return dst, 0, fmt.Errorf("%w: delta-binary count %d exceeds payload of %d bytes",
			errs.ErrMalformedInput, count, len(data)-off)
	}

	start := len(dst)
	maxWidth := bitsOf[T]()
	deltas, cleanup := pool.GetUint64Slice(int(batchSize))
	defer cleanup()

	for remaining := int(count); remaining > 0; {
		batchLen := min(remaining, int(batchSize))

		base, n, err := varint.Varint(data[off:], "delta-binary base")
		if err != nil {
			return dst[:start], 0, err
		}
		off += n
		if int64(T(base)) != base {
			return dst[:start], 0, fmt.Errorf("%w: delta-binary base %d overflows %d bits",
				errs.ErrMalformedInput, base, maxWidth)
		}

		if off >= len(data) {
			return dst[:start], 0, fmt.Errorf("%w: missing delta-binary bit width", errs.ErrMalformedInput)
		}
		width := int(data[off])
		off++
		if width > maxWidth {
			return dst[:start], 0, fmt.Errorf("%w: delta-binary bit width %d exceeds %d",
				errs.ErrMalformedInput, width, maxWidth)
		}

		n, err = bitpack.Unpack(data[off:], deltas[:batchLen], width)
		if err != nil {
			return dst[:start], 0, err
		}
		off += n

		for _, delta := range deltas[:batchLen] {
			v := int64(uint64(base) + delta) //nolint:gosec
			if int64(T(v)) != v {
				return dst[:start], 0, fmt.Errorf("%w: delta-binary value %d overflows %d bits",
					errs.ErrMalformedInput, v, maxWidth)
			}
			dst = append(dst, T(v))
		}
		remaining -= batchLen
	}

	return dst, off, nil
}
