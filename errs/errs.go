// Package errs defines the sentinel errors returned by tsfkit packages.
//
// Errors are returned wrapped with context using fmt.Errorf("%w: ..."), so callers
// should test for them with errors.Is.
package errs

import "errors"

// Configuration errors. Raised once when a codec or writer is constructed.
var (
	// ErrUnsupportedEncoding indicates an encoding/data type pairing with no defined codec.
	ErrUnsupportedEncoding = errors.New("unsupported encoding for data type")
	// ErrUnsupportedCompression indicates an unknown compression type.
	ErrUnsupportedCompression = errors.New("unsupported compression type")
	// ErrInvalidBatchSize indicates a delta-binary batch size that is not a positive multiple of 8.
	ErrInvalidBatchSize = errors.New("batch size must be a positive multiple of 8")
	// ErrInvalidPrecision indicates a decimal precision that collides with the fallback sentinel.
	ErrInvalidPrecision = errors.New("invalid decimal precision")
)

// Statistics errors.
var (
	// ErrUnsupportedOperation indicates an orderable-only aggregate requested from unordered statistics.
	ErrUnsupportedOperation = errors.New("unsupported statistics operation")
	// ErrTypeMismatch indicates a merge between statistics of incompatible families.
	ErrTypeMismatch = errors.New("statistics type mismatch")
)

// Decoding errors.
var (
	// ErrMalformedInput indicates an inconsistent or truncated encoded stream.
	ErrMalformedInput = errors.New("malformed input")
	// ErrChecksumMismatch indicates a chunk payload whose checksum does not match its header.
	ErrChecksumMismatch = errors.New("chunk checksum mismatch")
	// ErrInvalidHeader indicates a chunk header with a bad magic number or field.
	ErrInvalidHeader = errors.New("invalid chunk header")
)

// Writing errors.
var (
	// ErrUnsupportedType indicates a value whose runtime type does not match the column or statistics type.
	ErrUnsupportedType = errors.New("unsupported data type")
	// ErrOutOfOrder indicates a timestamp that is not strictly greater than the previous one.
	ErrOutOfOrder = errors.New("timestamp out of order")
	// ErrEmptyChunk indicates a flush with no buffered values.
	ErrEmptyChunk = errors.New("no values written")
	// ErrChunkFull indicates a write to a chunk that already holds the maximum value count.
	ErrChunkFull = errors.New("chunk is full")
)
