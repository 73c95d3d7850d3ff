package encoding

import (
	"fmt"
	"io"

	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/internal/options"
	"github.com/arloliu/tsfkit/internal/pool"
	"github.com/arloliu/tsfkit/internal/varint"
)

// RLBEEncoder encodes integers as runs of equal consecutive differences.
//
// Chunk payload layout:
//
//	uvarint(count) | varint(first) | run...
//	run = uvarint(length) | varint(diff)
//
// Regular series such as counters or fixed-interval timestamps collapse into a
// single run. Differences wrap around in T, so any sequence round-trips.
type RLBEEncoder[T Integer] struct {
	buf   *pool.ByteBuffer
	prev  T
	diff  T
	run   uint64
	count int
}

var _ IntEncoder[int64] = (*RLBEEncoder[int64])(nil)

// NewRLBEEncoder creates a run-length-of-differences encoder.
func NewRLBEEncoder[T Integer](opts ...EncoderOption) (*RLBEEncoder[T], error) {
	if err := options.Apply(newEncoderConfig(), opts...); err != nil {
		return nil, err
	}

	return &RLBEEncoder[T]{buf: pool.GetEncoderBuffer()}, nil
}

func (e *RLBEEncoder[T]) Write(v T) {
	e.count++
	if e.count == 1 {
		e.buf.B = varint.AppendVarint(e.buf.B, int64(v))
		e.prev = v

		return
	}

	diff := v - e.prev
	e.prev = v
	if e.run > 0 && diff == e.diff {
		e.run++
		return
	}

	e.closeRun()
	e.diff = diff
	e.run = 1
}

func (e *RLBEEncoder[T]) WriteSlice(values []T) {
	for _, v := range values {
		e.Write(v)
	}
}

func (e *RLBEEncoder[T]) Len() int {
	return e.count
}

// Flush writes the chunk payload to w and resets the encoder.
func (e *RLBEEncoder[T]) Flush(w io.Writer) error {
	if e.count == 0 {
		return nil
	}
	e.closeRun()

	out := make([]byte, 0, varint.MaxLen+e.buf.Len())
	out = varint.AppendUvarint(out, uint64(e.count)) //nolint:gosec
	out = append(out, e.buf.Bytes()...)

	e.Reset()

	_, err := w.Write(out)

	return err
}

func (e *RLBEEncoder[T]) Reset() {
	e.buf.Reset()
	e.run = 0
	e.count = 0
}

func (e *RLBEEncoder[T]) Finish() {
	pool.PutEncoderBuffer(e.buf)
	e.buf = nil
	e.run = 0
	e.count = 0
}

func (e *RLBEEncoder[T]) closeRun() {
	if e.run == 0 {
		return
	}

	e.buf.B = varint.AppendUvarint(e.buf.B, e.run)
	e.buf.B = varint.AppendVarint(e.buf.B, int64(e.diff))
	e.run = 0
}

// RLBEDecoder decodes payloads written by RLBEEncoder.
type RLBEDecoder[T Integer] struct{}

var _ IntDecoder[int64] = RLBEDecoder[int64]{}

// NewRLBEDecoder creates a run-length-of-differences decoder.
func NewRLBEDecoder[T Integer]() RLBEDecoder[T] {
	return RLBEDecoder[T]{}
}

// Decode decodes one chunk payload and appends the values to dst.
func (d RLBEDecoder[T]) Decode(data []byte, dst []T) ([]T, int, error) {
	count, off, err := varint.Uvarint(data, "rlbe value count")
	if err != nil {
		return dst, 0, err
	}
	if count == 0 {
		return dst, off, nil
	}
	if count > MaxChunkValues {
		return dst, 0, fmt.Errorf("%w: rlbe count %d exceeds %d", errs.ErrMalformedInput, count, MaxChunkValues)
	}

	first, n, err := varint.Varint(data[off:], "rlbe first value")
	if err != nil {
		return dst, 0, err
	}
	off += n
	if int64(T(first)) != first {
		return dst, 0, fmt.Errorf("%w: rlbe first value %d overflows %d bits",
			errs.ErrMalformedInput, first, bitsOf[T]())
	}

	start := len(dst)
	prev := T(first)
	dst = append(dst, prev)

	for remaining := count - 1; remaining > 0; {
		run, n, err := varint.Uvarint(data[off:], "rlbe run length")
		if err != nil {
			return dst[:start], 0, err
		}
		off += n

		diff, n, err := varint.Varint(data[off:], "rlbe difference")
		if err != nil {
			return dst[:start], 0, err
		}
		off += n

		if run == 0 || run > remaining {
			return dst[:start], 0, fmt.Errorf("%w: rlbe run of %d with %d values remaining",
				errs.ErrMalformedInput, run, remaining)
		}
		if int64(T(diff)) != diff {
			return dst[:start], 0, fmt.Errorf("%w: rlbe difference %d overflows %d bits",
				errs.ErrMalformedInput, diff, bitsOf[T]())
		}

		for range run {
			prev += T(diff)
			dst = append(dst, prev)
		}
		remaining -= run
	}

	return dst, off, nil
}
