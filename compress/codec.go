package compress

import (
	"fmt"

	"github.com/arloliu/tsfkit/errs"
	"github.com/arloliu/tsfkit/format"
)

// Compressor compresses an already-encoded chunk payload.
//
// Memory management:
//   - The returned slice is owned by the caller, except for NoOpCompressor
//     which returns its input
//   - The input slice is not modified
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor of the same algorithm.
//
// Corrupted input, or input produced by another algorithm, yields an error
// wrapping errs.ErrMalformedInput.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions. Built-in codecs are safe for concurrent use.
type Codec interface {
	Compressor
	Decompressor
}

// CompressionStats describes one compression of a payload.
type CompressionStats struct {
	// Algorithm identifies the compression algorithm used
	Algorithm format.CompressionType

	// OriginalSize is the size of input data before compression
	OriginalSize int64

	// CompressedSize is the size of data after compression
	CompressedSize int64
}

// CompressionRatio returns compressed size / original size, 0 for empty input.
//
// Values above 1 mean the algorithm added overhead.
func (s CompressionStats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space savings as a percentage.
func (s CompressionStats) SpaceSavings() float64 {
	return (1.0 - s.CompressionRatio()) * 100.0
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone:   NewNoOpCompressor(),
	format.CompressionZstd:   NewZstdCompressor(),
	format.CompressionS2:     NewS2Compressor(),
	format.CompressionLZ4:    NewLZ4Compressor(),
	format.CompressionSnappy: NewSnappyCompressor(),
}

// GetCodec returns the built-in Codec for compressionType.
//
// Unknown types yield errs.ErrUnsupportedCompression.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
}

// Compress compresses data with the codec of compressionType and reports the sizes.
func Compress(compressionType format.CompressionType, data []byte) ([]byte, CompressionStats, error) {
	stats := CompressionStats{Algorithm: compressionType, OriginalSize: int64(len(data))}

	codec, err := GetCodec(compressionType)
	if err != nil {
		return nil, stats, err
	}

	out, err := codec.Compress(data)
	if err != nil {
		return nil, stats, fmt.Errorf("%s compression failed: %w", compressionType, err)
	}
	stats.CompressedSize = int64(len(out))

	return out, stats, nil
}

// Decompress decompresses data with the codec of compressionType.
func Decompress(compressionType format.CompressionType, data []byte) ([]byte, error) {
	codec, err := GetCodec(compressionType)
	if err != nil {
		return nil, err
	}

	return codec.Decompress(data)
}

func malformed(algorithm string, err error) error {
	return fmt.Errorf("%w: %s decompression failed: %v", errs.ErrMalformedInput, algorithm, err)
}
