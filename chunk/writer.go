package chunk

import (
	"bytes"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/arloliu/tsfkit/compress"
	"github.com/arloliu/tsfkit/encoding"
	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/format"
	"github.com/arloliu/tsfkit/internal/hash"
	"github.com/arloliu/tsfkit/internal/pool"
	"github.com/arloliu/tsfkit/stats"
)

// fallbackLogRatio is the share of fallback values above which a flushed
// floating-point chunk is logged at info level.
const fallbackLogRatio = 0.1

// valueEncoder is the type-erased view of the active value encoder.
type valueEncoder interface {
	Len() int
	Flush(w io.Writer) error
	Reset()
	Finish()
}

// Writer accumulates (timestamp, value) pairs of one series and flushes them
// as chunks.
//
// Timestamps must be strictly ascending across the whole series, flushes
// included. A Writer is single-writer and not safe for concurrent use.
type Writer struct {
	cfg      Config
	logger   *zap.Logger
	seriesID uint64

	times  encoding.IntEncoder[int64]
	values valueEncoder

	int32s   encoding.ChunkEncoder[int32]
	int64s   encoding.ChunkEncoder[int64]
	float32s encoding.ChunkEncoder[float32]
	float64s encoding.ChunkEncoder[float64]
	binaries encoding.ChunkEncoder[[]byte]

	stats   stats.Statistics
	count   int
	lastTS  int64
	written bool
}

// NewWriter creates a writer for cfg.
//
// Unknown data types fail with errs.ErrUnsupportedType, encodings with no
// codec for the data type with errs.ErrUnsupportedEncoding, and unknown
// compressions with errs.ErrUnsupportedCompression.
func NewWriter(cfg Config, opts ...Option) (*Writer, error) {
	cfg = cfg.normalized()

	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}

	st, err := stats.New(cfg.DataType)
	if err != nil {
		return nil, err
	}
	if _, err := compress.GetCodec(cfg.Compression); err != nil {
		return nil, err
	}

	encOpts := []encoding.EncoderOption{encoding.WithBatchSize(cfg.BatchSize)}

	times, err := encoding.NewIntEncoder[int64](cfg.TimeEncoding, encOpts...)
	if err != nil {
		return nil, fmt.Errorf("timestamps: %w", err)
	}

	w := &Writer{
		cfg:      cfg,
		logger:   s.logger.With(zap.String("series", cfg.SeriesName)),
		seriesID: hash.ID(cfg.SeriesName),
		times:    times,
		stats:    st,
	}
	if err := w.initValueEncoder(encOpts); err != nil {
		times.Finish()
		return nil, fmt.Errorf("values: %w", err)
	}

	return w, nil
}

func (w *Writer) initValueEncoder(opts []encoding.EncoderOption) error {
	var err error

	switch w.cfg.DataType {
	case format.Boolean, format.Int32:
		w.int32s, err = encoding.NewIntEncoder[int32](w.cfg.ValueEncoding, opts...)
		w.values = w.int32s
	case format.Int64:
		w.int64s, err = encoding.NewIntEncoder[int64](w.cfg.ValueEncoding, opts...)
		w.values = w.int64s
	case format.Float:
		w.float32s, err = newFloatEncoder[float32](w.cfg, opts)
		w.values = w.float32s
	case format.Double:
		w.float64s, err = newFloatEncoder[float64](w.cfg, opts)
		w.values = w.float64s
	default:
		if w.cfg.ValueEncoding != format.TypePlain {
			return fmt.Errorf("%w: %s encoding with %s data type",
				errs.ErrUnsupportedEncoding, w.cfg.ValueEncoding, w.cfg.DataType)
		}
		w.binaries = encoding.NewPlainBinaryEncoder()
		w.values = w.binaries
	}

	return err
}

func newFloatEncoder[F encoding.Float](cfg Config, opts []encoding.EncoderOption) (encoding.ChunkEncoder[F], error) {
	switch cfg.ValueEncoding {
	case format.TypePlain:
		enc, err := encoding.NewPlainEncoder[F](opts...)
		if err != nil {
			return nil, err
		}

		return enc, nil
	case format.TypeGorilla:
		return encoding.NewGorillaEncoder[F](), nil
	}

	enc, err := encoding.NewFloatEncoder[F](encoding.Config{
		Encoding:  cfg.ValueEncoding,
		DataType:  cfg.DataType,
		Precision: cfg.Precision,
	}, opts...)
	if err != nil {
		return nil, err
	}

	return enc, nil
}

// Config returns the normalized configuration of the writer.
func (w *Writer) Config() Config {
	return w.cfg
}

// Len returns the number of pairs buffered since the last flush.
func (w *Writer) Len() int {
	return w.count
}

// IsFull reports whether the buffered chunk reached encoding.MaxChunkValues.
func (w *Writer) IsFull() bool {
	return w.count >= encoding.MaxChunkValues
}

// Stats returns the statistics of the buffered chunk.
func (w *Writer) Stats() stats.Statistics {
	return w.stats
}

// WriteInt32 appends a pair to an INT32 series.
func (w *Writer) WriteInt32(ts int64, v int32) error {
	if err := w.check(format.Int32, ts); err != nil {
		return err
	}
	w.int32s.Write(v)
	w.stats.(*stats.NumericStatistics[int32]).Update(v, ts) //nolint:forcetypeassert
	w.advance(ts)

	return nil
}

// WriteInt64 appends a pair to an INT64 series.
func (w *Writer) WriteInt64(ts int64, v int64) error {
	if err := w.check(format.Int64, ts); err != nil {
		return err
	}
	w.int64s.Write(v)
	w.stats.(*stats.NumericStatistics[int64]).Update(v, ts) //nolint:forcetypeassert
	w.advance(ts)

	return nil
}

// WriteFloat32 appends a pair to a FLOAT series.
func (w *Writer) WriteFloat32(ts int64, v float32) error {
	if err := w.check(format.Float, ts); err != nil {
		return err
	}
	w.float32s.Write(v)
	w.stats.(*stats.NumericStatistics[float32]).Update(v, ts) //nolint:forcetypeassert
	w.advance(ts)

	return nil
}

// WriteFloat64 appends a pair to a DOUBLE series.
func (w *Writer) WriteFloat64(ts int64, v float64) error {
	if err := w.check(format.Double, ts); err != nil {
		return err
	}
	w.float64s.Write(v)
	w.stats.(*stats.NumericStatistics[float64]).Update(v, ts) //nolint:forcetypeassert
	w.advance(ts)

	return nil
}

// WriteBool appends a pair to a BOOLEAN series. Booleans are stored as 0 and 1
// through the INT32 codecs.
func (w *Writer) WriteBool(ts int64, v bool) error {
	if err := w.check(format.Boolean, ts); err != nil {
		return err
	}
	var x int32
	if v {
		x = 1
	}
	w.int32s.Write(x)
	w.stats.(*stats.BooleanStatistics).Update(v, ts) //nolint:forcetypeassert
	w.advance(ts)

	return nil
}

// WriteBinary appends a pair to a TEXT, STRING or BLOB series. v is copied.
func (w *Writer) WriteBinary(ts int64, v []byte) error {
	if !w.cfg.DataType.IsBinary() {
		return w.typeError("binary")
	}
	if err := w.check(w.cfg.DataType, ts); err != nil {
		return err
	}
	w.binaries.Write(v)
	w.stats.(*stats.BinaryStatistics).Update(v, ts) //nolint:forcetypeassert
	w.advance(ts)

	return nil
}

// WriteString appends a pair to a TEXT, STRING or BLOB series.
func (w *Writer) WriteString(ts int64, v string) error {
	return w.WriteBinary(ts, []byte(v))
}

func (w *Writer) check(dataType format.DataType, ts int64) error {
	if dataType != w.cfg.DataType {
		return w.typeError(dataType.String())
	}
	if w.written && ts <= w.lastTS {
		return fmt.Errorf("%w: %d after %d", errs.ErrOutOfOrder, ts, w.lastTS)
	}
	if w.IsFull() {
		return fmt.Errorf("%w: %d values", errs.ErrChunkFull, w.count)
	}

	return nil
}

func (w *Writer) typeError(got string) error {
	return fmt.Errorf("%w: %s value for %s series", errs.ErrUnsupportedType, got, w.cfg.DataType)
}

func (w *Writer) advance(ts int64) {
	w.times.Write(ts)
	w.lastTS = ts
	w.written = true
	w.count++
}

// Flush encodes the buffered pairs into a chunk and starts a new one.
//
// It returns errs.ErrEmptyChunk when nothing was written since the last flush.
// When compression fails the buffered pairs are discarded.
func (w *Writer) Flush() (*Chunk, error) {
	if w.count == 0 {
		return nil, errs.ErrEmptyChunk
	}

	fallbacks := w.fallbacks()

	buf := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(buf)

	if err := w.times.Flush(buf); err != nil {
		w.reset()
		return nil, err
	}
	timeSize := buf.Len()
	if err := w.values.Flush(buf); err != nil {
		w.reset()
		return nil, err
	}

	raw := buf.Bytes()
	payload, cs, err := compress.Compress(w.cfg.Compression, raw)
	if err != nil {
		w.reset()
		return nil, err
	}
	if w.cfg.Compression == format.CompressionNone {
		payload = bytes.Clone(raw)
	}

	c := &Chunk{
		Header: Header{
			Magic:            MagicV1,
			DataType:         w.cfg.DataType,
			TimeEncoding:     w.cfg.TimeEncoding,
			ValueEncoding:    w.cfg.ValueEncoding,
			Compression:      w.cfg.Compression,
			SeriesID:         w.seriesID,
			Count:            uint32(w.count),
			Precision:        uint32(w.cfg.Precision),
			TimeSize:         uint32(timeSize),
			UncompressedSize: uint32(len(raw)),
			CompressedSize:   uint32(len(payload)),
			StatsSize:        uint32(w.stats.SerializedSize()),
			Checksum:         hash.Checksum(payload),
		},
		Stats:   w.stats,
		Payload: payload,
	}

	w.logger.Debug("chunk flushed",
		zap.Int("count", w.count),
		zap.Int64("start_time", w.stats.StartTime()),
		zap.Int64("end_time", w.stats.EndTime()),
		zap.Int("uncompressed_size", len(raw)),
		zap.Int("compressed_size", len(payload)),
		zap.Stringer("compression", w.cfg.Compression),
		zap.Float64("ratio", cs.CompressionRatio()),
	)
	if fallbacks > 0 && float64(fallbacks) >= fallbackLogRatio*float64(w.count) {
		w.logger.Info("chunk has many unscaled values",
			zap.Int("count", w.count),
			zap.Int("fallbacks", fallbacks),
			zap.Int("precision", w.cfg.Precision),
		)
	}

	w.stats, _ = stats.New(w.cfg.DataType)
	w.count = 0

	return c, nil
}

// fallbacks returns the number of buffered floating-point values stored unscaled.
func (w *Writer) fallbacks() int {
	type fallbackCounter interface{ Fallbacks() int }

	if f, ok := w.float32s.(fallbackCounter); ok {
		return f.Fallbacks()
	}
	if f, ok := w.float64s.(fallbackCounter); ok {
		return f.Fallbacks()
	}

	return 0
}

// Reset discards the buffered pairs. The timestamp order is kept.
func (w *Writer) Reset() {
	w.reset()
}

func (w *Writer) reset() {
	w.times.Reset()
	w.values.Reset()
	w.stats, _ = stats.New(w.cfg.DataType)
	w.count = 0
}

// Close releases the pooled buffers of the encoders. Buffered pairs are lost;
// call Flush first.
func (w *Writer) Close() {
	w.times.Finish()
	w.values.Finish()
}
