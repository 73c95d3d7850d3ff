package chunk

import (
	"bytes"
	"fmt"

	"go.uber.org/zap"

	"github.com/arloliu/tsfkit/column"
	"github.com/arloliu/tsfkit/compress"
	"github.com/arloliu/tsfkit/encoding"
	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/format"
)

// Reader decodes chunks back into columns.
//
// A Reader holds no per-chunk state and is safe for concurrent use when its
// memory tracker is.
type Reader struct {
	logger  *zap.Logger
	tracker column.MemoryTracker
}

// NewReader creates a reader.
func NewReader(opts ...Option) (*Reader, error) {
	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}

	return &Reader{logger: s.logger, tracker: s.tracker}, nil
}

// Timestamps decodes the timestamps of c.
func (r *Reader) Timestamps(c *Chunk) (column.Column[int64], error) {
	times, _, err := r.payload(c)
	if err != nil {
		return nil, err
	}

	ts, err := r.decodeTimes(c, times)
	if err != nil {
		return nil, err
	}

	return materialize(r, format.Int64, ts)
}

// ReadInt32 decodes an INT32 chunk.
func (r *Reader) ReadInt32(c *Chunk) (column.Column[int64], column.Column[int32], error) {
	return readInts[int32](r, c, format.Int32)
}

// ReadInt64 decodes an INT64 chunk.
func (r *Reader) ReadInt64(c *Chunk) (column.Column[int64], column.Column[int64], error) {
	return readInts[int64](r, c, format.Int64)
}

// ReadFloat32 decodes a FLOAT chunk.
func (r *Reader) ReadFloat32(c *Chunk) (column.Column[int64], column.Column[float32], error) {
	return readFloats[float32](r, c, format.Float)
}

// ReadFloat64 decodes a DOUBLE chunk.
func (r *Reader) ReadFloat64(c *Chunk) (column.Column[int64], column.Column[float64], error) {
	return readFloats[float64](r, c, format.Double)
}

// ReadBool decodes a BOOLEAN chunk.
func (r *Reader) ReadBool(c *Chunk) (column.Column[int64], column.Column[bool], error) {
	ts, raw, err := decodeChunk(r, c, format.Boolean, func(h *Header) (encoding.ChunkDecoder[int32], error) {
		return encoding.NewIntDecoder[int32](h.ValueEncoding)
	})
	if err != nil {
		return nil, nil, err
	}

	values := make([]bool, len(raw))
	for i, v := range raw {
		values[i] = v != 0
	}

	return build(r, c, ts, values)
}

// ReadBinary decodes a TEXT, STRING or BLOB chunk. The values are copies and
// do not alias the chunk.
func (r *Reader) ReadBinary(c *Chunk) (column.Column[int64], column.Column[[]byte], error) {
	if !c.Header.DataType.IsBinary() {
		return nil, nil, readTypeError(c, "binary")
	}

	ts, values, err := decodeChunk(r, c, c.Header.DataType, func(h *Header) (encoding.ChunkDecoder[[]byte], error) {
		if h.ValueEncoding != format.TypePlain {
			return nil, fmt.Errorf("%w: %s encoding with %s data type",
				errs.ErrUnsupportedEncoding, h.ValueEncoding, h.DataType)
		}

		return encoding.PlainBinaryDecoder{}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	for i, v := range values {
		values[i] = bytes.Clone(v)
	}

	return build(r, c, ts, values)
}

// Each decodes c and calls fn for every pair in timestamp order until fn
// returns false. Values are passed with their Go type: bool, int32, int64,
// float32, float64 or []byte.
func (r *Reader) Each(c *Chunk, fn func(ts int64, v any) bool) error {
	switch c.Header.DataType {
	case format.Boolean:
		ts, values, err := r.ReadBool(c)
		if err != nil {
			return err
		}
		each(ts, values, fn)
	case format.Int32:
		ts, values, err := r.ReadInt32(c)
		if err != nil {
			return err
		}
		each(ts, values, fn)
	case format.Int64:
		ts, values, err := r.ReadInt64(c)
		if err != nil {
			return err
		}
		each(ts, values, fn)
	case format.Float:
		ts, values, err := r.ReadFloat32(c)
		if err != nil {
			return err
		}
		each(ts, values, fn)
	case format.Double:
		ts, values, err := r.ReadFloat64(c)
		if err != nil {
			return err
		}
		each(ts, values, fn)
	default:
		ts, values, err := r.ReadBinary(c)
		if err != nil {
			return err
		}
		each(ts, values, fn)
	}

	return nil
}

func each[T column.Value](ts column.Column[int64], values column.Column[T], fn func(int64, any) bool) {
	for i := range ts.Len() {
		if !fn(ts.Value(i), values.Value(i)) {
			return
		}
	}
}

// intValue and floatValue are the numeric element types shared by codecs and columns.
type (
	intValue   interface{ int32 | int64 }
	floatValue interface{ float32 | float64 }
)

func readInts[T intValue](r *Reader, c *Chunk, dataType format.DataType) (column.Column[int64], column.Column[T], error) {
	ts, values, err := decodeChunk(r, c, dataType, func(h *Header) (encoding.ChunkDecoder[T], error) {
		return encoding.NewIntDecoder[T](h.ValueEncoding)
	})
	if err != nil {
		return nil, nil, err
	}

	return build(r, c, ts, values)
}

func readFloats[F floatValue](r *Reader, c *Chunk, dataType format.DataType) (column.Column[int64], column.Column[F], error) {
	ts, values, err := decodeChunk(r, c, dataType, func(h *Header) (encoding.ChunkDecoder[F], error) {
		switch h.ValueEncoding {
		case format.TypePlain:
			return encoding.NewPlainDecoder[F]()
		case format.TypeGorilla:
			return encoding.NewGorillaDecoder[F](), nil
		}

		return encoding.NewFloatDecoder[F](encoding.Config{
			Encoding:  h.ValueEncoding,
			DataType:  h.DataType,
			Precision: int(h.Precision),
		})
	})
	if err != nil {
		return nil, nil, err
	}

	return build(r, c, ts, values)
}

// decodeChunk verifies c, then decodes its timestamps and values.
func decodeChunk[T any](
	r *Reader,
	c *Chunk,
	dataType format.DataType,
	newDecoder func(h *Header) (encoding.ChunkDecoder[T], error),
) ([]int64, []T, error) {
	if c.Header.DataType != dataType {
		return nil, nil, readTypeError(c, dataType.String())
	}

	dec, err := newDecoder(&c.Header)
	if err != nil {
		return nil, nil, err
	}

	times, data, err := r.payload(c)
	if err != nil {
		return nil, nil, err
	}

	ts, err := r.decodeTimes(c, times)
	if err != nil {
		return nil, nil, err
	}

	values, err := decodeExact(dec, data, int(c.Header.Count), "values")
	if err != nil {
		return nil, nil, err
	}

	r.logger.Debug("chunk decoded",
		zap.Uint64("series_id", c.Header.SeriesID),
		zap.Stringer("data_type", c.Header.DataType),
		zap.Uint32("count", c.Header.Count),
	)

	return ts, values, nil
}

// payload verifies the checksum of c, decompresses its payload and splits it
// into the timestamp and value parts.
func (r *Reader) payload(c *Chunk) ([]byte, []byte, error) {
	if err := c.VerifyChecksum(); err != nil {
		return nil, nil, err
	}

	raw, err := compress.Decompress(c.Header.Compression, c.Payload)
	if err != nil {
		return nil, nil, err
	}
	if len(raw) != int(c.Header.UncompressedSize) {
		return nil, nil, fmt.Errorf("%w: payload of %d bytes, header says %d",
			errs.ErrMalformedInput, len(raw), c.Header.UncompressedSize)
	}

	return raw[:c.Header.TimeSize], raw[c.Header.TimeSize:], nil
}

func (r *Reader) decodeTimes(c *Chunk, data []byte) ([]int64, error) {
	dec, err := encoding.NewIntDecoder[int64](c.Header.TimeEncoding)
	if err != nil {
		return nil, err
	}

	ts, err := decodeExact[int64](dec, data, int(c.Header.Count), "timestamps")
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(ts); i++ {
		if ts[i] <= ts[i-1] {
			return nil, fmt.Errorf("%w: timestamp %d at position %d after %d",
				errs.ErrMalformedInput, ts[i], i, ts[i-1])
		}
	}

	return ts, nil
}

// decodeExact decodes one payload that must fill data and hold count values.
func decodeExact[T any](dec encoding.ChunkDecoder[T], data []byte, count int, what string) ([]T, error) {
	values, n, err := dec.Decode(data, make([]T, 0, count))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	if n != len(data) || len(values) != count {
		return nil, fmt.Errorf("%w: %s hold %d values in %d of %d bytes, want %d values",
			errs.ErrMalformedInput, what, len(values), n, len(data), count)
	}

	return values, nil
}

func build[T column.Value](r *Reader, c *Chunk, ts []int64, values []T) (column.Column[int64], column.Column[T], error) {
	tsCol, err := materialize(r, format.Int64, ts)
	if err != nil {
		return nil, nil, err
	}
	valCol, err := materialize(r, c.Header.DataType, values)
	if err != nil {
		return nil, nil, err
	}

	return tsCol, valCol, nil
}

// materialize copies values into a column built with the reader's tracker.
func materialize[T column.Value](r *Reader, dataType format.DataType, values []T) (column.Column[T], error) {
	var opts []column.BuilderOption
	if dataType.IsBinary() {
		opts = append(opts, column.WithDataType(dataType))
	}
	if r.tracker != nil {
		opts = append(opts, column.WithMemoryTracker(r.tracker))
	}

	b, err := column.NewBuilder[T](len(values), opts...)
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		b.WriteValue(v)
	}

	return b.Build(), nil
}

func readTypeError(c *Chunk, want string) error {
	return fmt.Errorf("%w: %s chunk read as %s", errs.ErrUnsupportedType, c.Header.DataType, want)
}
