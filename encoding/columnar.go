package encoding

import (
	"io"
	"unsafe"

	"github.com/arloliu/tsfkit/endian"
	"github.com/arloliu/tsfkit/internal/options"
)

// MaxChunkValues bounds the value count a decoder accepts for one chunk payload.
const MaxChunkValues = 1 << 24

// Integer is the set of integer types handled by the integer codecs.
type Integer interface {
	~int32 | ~int64
}

// Float is the set of floating-point types handled by FloatEncoder.
type Float interface {
	~float32 | ~float64
}

// Number is any fixed-width numeric type.
type Number interface {
	Integer | Float
}

// ChunkEncoder buffers the values of one chunk and writes them as a single
// self-describing payload on Flush.
//
// Encoders are single-writer and not safe for concurrent use. After Flush the
// encoder is empty and ready for the next chunk.
type ChunkEncoder[T any] interface {
	// Write buffers a single value.
	Write(v T)

	// WriteSlice buffers all values in order.
	WriteSlice(values []T)

	// Len returns the number of values buffered since the last Flush.
	Len() int

	// Flush writes the buffered chunk payload to w and resets the encoder.
	//
	// An encoder with no buffered values writes nothing.
	Flush(w io.Writer) error

	// Reset discards all buffered values without writing them.
	Reset()

	// Finish releases pooled resources. The encoder must not be used afterwards.
	Finish()
}

// ChunkDecoder decodes payloads written by the matching ChunkEncoder.
type ChunkDecoder[T any] interface {
	// Decode decodes exactly one chunk payload from the start of data and appends
	// the values to dst.
	//
	// It returns the extended slice and the number of bytes consumed. A malformed
	// payload returns an error wrapping errs.ErrMalformedInput and dst unchanged.
	Decode(data []byte, dst []T) ([]T, int, error)
}

// IntEncoder is a ChunkEncoder for integers. Integer encoders also serve as the
// backends of FloatEncoder.
type IntEncoder[T Integer] interface {
	ChunkEncoder[T]
}

// IntDecoder is a ChunkDecoder for integers.
type IntDecoder[T Integer] interface {
	ChunkDecoder[T]
}

// DecodeAll decodes consecutive chunk payloads until data is exhausted.
func DecodeAll[T any](dec ChunkDecoder[T], data []byte) ([]T, error) {
	var out []T
	for len(data) > 0 {
		var (
			n   int
			err error
		)
		out, n, err = dec.Decode(data, out)
		if err != nil {
			return nil, err
		}
		data = data[n:]
	}

	return out, nil
}

// bitsOf returns the width in bits of T.
func bitsOf[T Number]() int {
	var zero T
	return int(unsafe.Sizeof(zero)) * 8
}

// isFloat reports whether T is a floating-point type.
func isFloat[T Number]() bool {
	var one T = 1
	return one/2 != 0
}

// encoderConfig holds the options shared by all codecs.
type encoderConfig struct {
	batchSize int
	engine    endian.EndianEngine
}

func newEncoderConfig() *encoderConfig {
	return &encoderConfig{
		batchSize: DefaultBatchSize,
		engine:    endian.Default(),
	}
}

// EncoderOption configures a codec.
type EncoderOption = options.Option[*encoderConfig]
