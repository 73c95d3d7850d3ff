package encoding

import (
	"fmt"
	"io"

	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/internal/options"
	"github.com/arloliu/tsfkit/internal/pool"
	"github.com/arloliu/tsfkit/internal/varint"
)

// RLEEncoder encodes integers as runs of repeated values.
//
// Chunk payload layout:
//
//	uvarint(count) | run...
//	run = varint(value) | uvarint(length)
//
// It suits status-like series that hold the same value for long stretches.
type RLEEncoder[T Integer] struct {
	buf   *pool.ByteBuffer // completed runs
	value T
	run   uint64
	count int
}

var _ IntEncoder[int32] = (*RLEEncoder[int32])(nil)

// NewRLEEncoder creates a run-length encoder. It accepts the shared codec
// options; none of them currently change its output.
func NewRLEEncoder[T Integer](opts ...EncoderOption) (*RLEEncoder[T], error) {
	if err := options.Apply(newEncoderConfig(), opts...); err != nil {
		return nil, err
	}

	return &RLEEncoder[T]{buf: pool.GetEncoderBuffer()}, nil
}

func (e *RLEEncoder[T]) Write(v T) {
	e.count++
	if e.run > 0 && v == e.value {
		e.run++
		return
	}

	e.closeRun()
	e.value = v
	e.run = 1
}

func (e *RLEEncoder[T]) WriteSlice(values []T) {
	for _, v := range values {
		e.Write(v)
	}
}

func (e *RLEEncoder[T]) Len() int {
	return e.count
}

// Flush writes the chunk payload to w and resets the encoder.
func (e *RLEEncoder[T]) Flush(w io.Writer) error {
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

func (e *RLEEncoder[T]) Reset() {
	e.buf.Reset()
	e.run = 0
	e.count = 0
}

func (e *RLEEncoder[T]) Finish() {
	pool.PutEncoderBuffer(e.buf)
	e.buf = nil
	e.run = 0
	e.count = 0
}

func (e *RLEEncoder[T]) closeRun() {
	if e.run == 0 {
		return
	}

	e.buf.B = varint.AppendVarint(e.buf.B, int64(e.value))
	e.buf.B = varint.AppendUvarint(e.buf.B, e.run)
	e.run = 0
}

// RLEDecoder decodes payloads written by RLEEncoder.
type RLEDecoder[T Integer] struct{}

var _ IntDecoder[int32] = RLEDecoder[int32]{}

// NewRLEDecoder creates a run-length decoder.
func NewRLEDecoder[T Integer]() RLEDecoder[T] {
	return RLEDecoder[T]{}
}

// Decode decodes one chunk payload and appends the values to dst.
//
// A zero-length run, a run past the declared count or a value outside the
// range of T is reported as errs.ErrMalformedInput.
func (d RLEDecoder[T]) Decode(data []byte, dst []T) ([]T, int, error) {
	count, off, err := varint.Uvarint(data, "run-length value count")
	if err != nil {
		return dst, 0, err
	}
	if count > MaxChunkValues {
		return dst, 0, fmt.Errorf("%w: run-length count %d exceeds %d", errs.ErrMalformedInput, count, MaxChunkValues)
	}

	start := len(dst)
	for remaining := count; remaining > 0; {
		value, n, err := varint.Varint(data[off:], "run-length value")
		if err != nil {
			return dst[:start], 0, err
		}
		off += n

		run, n, err := varint.Uvarint(data[off:], "run-length length")
		if err != nil {
			return dst[:start], 0, err
		}
		off += n

		if run == 0 || run > remaining {
			return dst[:start], 0, fmt.Errorf("%w: run of %d with %d values remaining",
				errs.ErrMalformedInput, run, remaining)
		}
		if int64(T(value)) != value {
			return dst[:start], 0, fmt.Errorf("%w: run-length value %d overflows %d bits",
				errs.ErrMalformedInput, value, bitsOf[T]())
		}

		for range run {
			dst = append(dst, T(value))
		}
		remaining -= run
	}

	return dst, off, nil
}
