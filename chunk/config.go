package chunk

import (
	"go.uber.org/zap"

	"github.com/arloliu/tsfkit/column"
	"github.com/arloliu/tsfkit/encoding"
	"github.com/arloliu/tsfkit/format"
	"github.com/arloliu/tsfkit/internal/options"
)

// DefaultPrecision is the decimal precision of DefaultConfig.
const DefaultPrecision = 2

// Config describes the series written by a Writer. Codecs are selected from it
// once, when the writer is created.
type Config struct {
	// SeriesName identifies the series; its xxHash64 is stored in every chunk.
	SeriesName string
	// DataType is the type of the values.
	DataType format.DataType
	// TimeEncoding is the integer encoding of the timestamps.
	TimeEncoding format.EncodingType
	// ValueEncoding is the encoding of the values. Floating-point values use
	// the decimal-scale codec over this integer encoding, or raw IEEE bits for
	// PLAIN. Binary values only support PLAIN.
	ValueEncoding format.EncodingType
	// Precision is the number of decimal digits kept for floating-point values.
	Precision int
	// Compression is applied to the encoded payload. Zero means none.
	Compression format.CompressionType
	// BatchSize is the TS_2DIFF batch size. Zero means encoding.DefaultBatchSize.
	BatchSize int
}

// DefaultConfig returns the configuration used when nothing else is known
// about a series: TS_2DIFF timestamps, RLE booleans, PLAIN binary values and
// TS_2DIFF for everything else, uncompressed.
func DefaultConfig(seriesName string, dataType format.DataType) Config {
	cfg := Config{
		SeriesName:    seriesName,
		DataType:      dataType,
		TimeEncoding:  format.TypeTS2Diff,
		ValueEncoding: format.TypeTS2Diff,
		Precision:     DefaultPrecision,
		Compression:   format.CompressionNone,
		BatchSize:     encoding.DefaultBatchSize,
	}
	switch {
	case dataType == format.Boolean:
		cfg.ValueEncoding = format.TypeRLE
	case dataType.IsBinary():
		cfg.ValueEncoding = format.TypePlain
	}

	return cfg
}

func (c Config) normalized() Config {
	if c.Compression == 0 {
		c.Compression = format.CompressionNone
	}
	if c.BatchSize == 0 {
		c.BatchSize = encoding.DefaultBatchSize
	}
	if !c.DataType.IsFloating() || c.ValueEncoding == format.TypePlain || c.ValueEncoding == format.TypeGorilla {
		// values stored unscaled
		c.Precision = 0
	}
	c.Precision = max(c.Precision, 0)

	return c
}

type settings struct {
	logger  *zap.Logger
	tracker column.MemoryTracker
}

// Option configures a Writer or a Reader.
type Option = options.Option[*settings]

func newSettings(opts []Option) (*settings, error) {
	s := &settings{logger: zap.NewNop()}
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	return s, nil
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(s *settings) {
		if logger == nil {
			logger = zap.NewNop()
		}
		s.logger = logger
	})
}

// WithMemoryTracker makes a Reader report the bytes of the columns it
// materializes to tracker.
func WithMemoryTracker(tracker column.MemoryTracker) Option {
	return options.NoError(func(s *settings) {
		s.tracker = tracker
	})
}
